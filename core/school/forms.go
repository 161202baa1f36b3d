package school

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/carbonschool/dashboard/core"
	"github.com/carbonschool/dashboard/storage/document"
)

// Keys written by older versions of the input page. Saving a tab removes them.
var (
	deprecatedChecklist = []string{"ecoCoolRoof", "insulation"}

	deprecatedCulture = []string{"footprint_reduction_promise"}

	deprecatedBehavior = []string{
		"electricity_saving",
		"water_saving",
		"gas_saving",
		"peak_power_management",
		"hvac_temperature_compliance",
		"disposable_reduction",
		"paper_reduction",
		"recycling_separation",
	}

	deprecatedEnvironment = []string{
		"school_garden_area_m2",
		"trash_processing_cost",
		"resource_recovery_revenue",
		"solar_generation_kwh",
		"rainwater_tank_l",
	}

	deprecatedEnvironmentChecks = []string{
		"solar_generation_share",
		"school_forest_manage",
		"school_garden_operate",
		"facility_experience_edu",
	}
)

func (b *Basic) Validate(validate *validator.Validate) error {
	return validate.Struct(b)
}

// Patch builds the merge-write for the basic tab.
func (b Basic) Patch() document.Doc {
	checklist := map[string]interface{}{
		"planDoc":               b.Checklist.PlanDoc,
		"smartStandby":          b.Checklist.SmartStandby,
		"hvacEfficiencyUpgrade": b.Checklist.HVACEfficiencyUpgrade,
		"board":                 b.Checklist.Board,
	}
	tombstones(checklist, deprecatedChecklist)

	return document.Doc{
		"basic": map[string]interface{}{
			"students":         intValue(b.Students),
			"staff":            intValue(b.Staff),
			"classes":          intValue(b.Classes),
			"building_area_m2": floatValue(b.BuildingAreaM2),
			"playground_m2":    floatValue(b.PlaygroundM2),
			"cooling":          map[string]interface{}{"min": b.Cooling, "max": b.Cooling},
			"heating":          map[string]interface{}{"min": b.Heating, "max": b.Heating},
			"checklist":        checklist,
		},
		"updatedAt": document.ServerTimestamp(),
	}
}

type bceTab struct {
	BehaviorCosts Costs `json:"behavior_costs" validate:"dive,omitempty,min=0"`
}

// Validate checks amounts are not negative and every key is a known item.
func (f *BCE) Validate(validate *validator.Validate) error {
	if err := validate.Struct(bceTab{BehaviorCosts: f.BehaviorCosts}); err != nil {
		return err
	}

	var flds []core.FieldError
	flds = append(flds, unknownKeys("behavior_costs", costKeys(f.BehaviorCosts), CostItems)...)
	flds = append(flds, unknownKeys("culture_checks", checkKeys(f.CultureChecks), CultureItems)...)
	flds = append(flds, unknownKeys("behavior_checks", checkKeys(f.BehaviorChecks), BehaviorCheckItems)...)
	flds = append(flds, unknownKeys("environment_checks", checkKeys(f.EnvironmentChecks), EnvironmentCheckItems)...)
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

// Patch builds the merge-write for the behavior / culture / environment tab.
// smart_standby and board are written back to basic.checklist.
func (f BCE) Patch() document.Doc {
	costs := make(map[string]interface{}, len(CostItems))
	for _, item := range CostItems {
		costs[item] = floatValue(f.BehaviorCosts.Get(item))
	}

	culture := checksValue(f.CultureChecks, CultureItems)
	tombstones(culture, deprecatedCulture)

	behavior := checksValue(f.BehaviorChecks, BehaviorCheckItems)
	tombstones(behavior, deprecatedBehavior)

	environment := make(map[string]interface{}, len(deprecatedEnvironment))
	tombstones(environment, deprecatedEnvironment)

	envChecks := checksValue(f.EnvironmentChecks, EnvironmentCheckItems)
	tombstones(envChecks, deprecatedEnvironmentChecks)

	return document.Doc{
		"bce": map[string]interface{}{
			"behavior_costs":     costs,
			"culture_checks":     culture,
			"behavior_checks":    behavior,
			"environment":        environment,
			"environment_checks": envChecks,
		},
		"basic.checklist.smartStandby": f.SmartStandby,
		"basic.checklist.board":        f.Board,
		"updatedAt":                    document.ServerTimestamp(),
	}
}

func tombstones(m map[string]interface{}, keys []string) {
	for _, k := range keys {
		m[k] = document.Delete()
	}
}

func checksValue(checks Checks, items []string) map[string]interface{} {
	m := make(map[string]interface{}, len(items))
	for _, item := range items {
		m[item] = checks[item]
	}
	return m
}

func intValue(p *int) interface{} {
	if p == nil {
		return nil
	}
	return float64(*p)
}

func floatValue(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func costKeys(c Costs) []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

func checkKeys(c Checks) []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

func unknownKeys(field string, keys, known []string) []core.FieldError {
	allowed := make(map[string]struct{}, len(known))
	for _, k := range known {
		allowed[k] = struct{}{}
	}
	sort.Strings(keys)

	var flds []core.FieldError
	for _, k := range keys {
		if _, ok := allowed[k]; !ok {
			flds = append(flds, core.FieldError{
				Field: fmt.Sprintf("%s.%s", field, k),
				Error: "unknown item",
			})
		}
	}
	return flds
}
