package school

import (
	"math"
	"time"

	"github.com/carbonschool/dashboard/storage/document"
)

// Tabs of the school input page. Each tab is saved independently.
const (
	TabBasic = "basic"
	TabBCE   = "bce"
)

// Setpoints used when a document holds no HVAC values.
const (
	DefaultCooling = 26.0
	DefaultHeating = 20.0
)

// Item keys. The order is the display order.
var (
	CostItems = []string{
		"electricity_cost",
		"gas_cost",
		"water_cost",
		"a4_paper_cost",
		"disposable_cost",
		"waste_disposal_cost",
	}

	CultureItems = []string{
		"teacher_training",
		"learning_community",
		"student_club",
		"uniform_reuse",
		"sharing_market",
		"local_farm_menu",
		"plant_based_meals",
		"local_foodbank",
		"data_literacy_edu",
		"community_link",
		"school_carbon_rules",
		"food_waste_reduction",
	}

	BehaviorCheckItems = []string{
		"carbon_data_sharing",
		"device_charging_policy",
	}

	EnvironmentCheckItems = []string{
		"solar_install",
		"greywater_facility",
		"rainwater_tank_use",
		"low_flow_toilet",
		"forest_experience_edu",
		"eco_cool_roof",
		"window_insulation_film",
		"forest_garden_manage",
		"recycling_station_edu_program",
		"solar_facility_edu_program",
		"recycling_promo_edu_program",
	}
)

type (
	// Checklist is basic.checklist; keys follow the stored document.
	Checklist struct {
		PlanDoc               bool `json:"planDoc"`
		SmartStandby          bool `json:"smartStandby"`
		HVACEfficiencyUpgrade bool `json:"hvacEfficiencyUpgrade"`
		Board                 bool `json:"board"`
	}

	// Basic is the basic information tab.
	// Unset numbers are nil and are stored as null.
	Basic struct {
		Students       *int      `json:"students" validate:"omitempty,min=0"`
		Staff          *int      `json:"staff" validate:"omitempty,min=0"`
		Classes        *int      `json:"classes" validate:"omitempty,min=0"`
		BuildingAreaM2 *float64  `json:"building_area_m2" validate:"omitempty,min=0"`
		PlaygroundM2   *float64  `json:"playground_m2" validate:"omitempty,min=0"`
		Cooling        float64   `json:"cooling" validate:"min=18,max=30"`
		Heating        float64   `json:"heating" validate:"min=16,max=30"`
		Checklist      Checklist `json:"checklist"`

		// counts as stored; per-person costs divide by these, not the rounded ones
		rawStudents, rawStaff *float64
	}

	// Costs maps CostItems to yearly amounts.
	Costs map[string]*float64

	// Checks maps item keys to their completion.
	Checks map[string]bool

	// BCE is the behavior / culture / environment tab. SmartStandby and Board
	// are shown with the environment items but live in basic.checklist.
	BCE struct {
		BehaviorCosts     Costs  `json:"behavior_costs"`
		CultureChecks     Checks `json:"culture_checks"`
		BehaviorChecks    Checks `json:"behavior_checks"`
		EnvironmentChecks Checks `json:"environment_checks"`
		SmartStandby      bool   `json:"smart_standby"`
		Board             bool   `json:"board"`
	}

	// Record is a school document normalized for editing and scoring.
	Record struct {
		ID        string     `json:"id"`
		Name      string     `json:"name"`
		District  string     `json:"district"`
		Exists    bool       `json:"exists"`
		Basic     Basic      `json:"basic"`
		BCE       BCE        `json:"bce"`
		UpdatedAt *time.Time `json:"updated_at"`
	}

	// Option is an entry of the school picker.
	Option struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	}
)

// TotalPeople is students plus staff; unset counts are 0.
// A count read from a document keeps its stored fraction until it is changed.
func (b Basic) TotalPeople() float64 {
	return count(b.Students, b.rawStudents) + count(b.Staff, b.rawStaff)
}

func count(i *int, raw *float64) float64 {
	if i == nil {
		return 0
	}
	if raw != nil && int(math.Round(*raw)) == *i {
		return *raw
	}
	return float64(*i)
}

// Get returns the cost of item, nil when unset.
func (c Costs) Get(item string) *float64 {
	if c == nil {
		return nil
	}
	return c[item]
}

func emptyBCE() BCE {
	return BCE{
		BehaviorCosts:     make(Costs, len(CostItems)),
		CultureChecks:     make(Checks, len(CultureItems)),
		BehaviorChecks:    make(Checks, len(BehaviorCheckItems)),
		EnvironmentChecks: make(Checks, len(EnvironmentCheckItems)),
	}
}

// FromDoc normalizes a stored snapshot. A nil doc yields the defaults of a new school.
//
// Legacy documents are read with these fallbacks:
//   - HVAC setpoints read min, then max, then the defaults;
//   - solar_install falls back to solar_generation_kwh > 0;
//   - rainwater_tank_use falls back to rainwater_tank_l > 0;
//   - forest_garden_manage also accepts school_forest_manage and school_garden_operate.
func FromDoc(id string, doc document.Doc) Record {
	rec := Record{
		ID:     id,
		Exists: doc != nil,
		Basic: Basic{
			Cooling: DefaultCooling,
			Heating: DefaultHeating,
		},
		BCE: emptyBCE(),
	}
	if doc == nil {
		doc = document.Doc{}
	}

	if name, ok := doc.String("name"); ok {
		rec.Name = name
	}
	if district, ok := doc.String("district"); ok {
		rec.District = district
	}
	if ts, ok := doc.String("updatedAt"); ok {
		if t, err := time.Parse(document.TimestampLayout, ts); err == nil {
			rec.UpdatedAt = &t
		}
	}

	b := &rec.Basic
	b.Students = intField(doc, "basic.students")
	b.Staff = intField(doc, "basic.staff")
	b.rawStudents = floatField(doc, "basic.students")
	b.rawStaff = floatField(doc, "basic.staff")
	b.Classes = intField(doc, "basic.classes")
	b.BuildingAreaM2 = floatField(doc, "basic.building_area_m2")
	b.PlaygroundM2 = floatField(doc, "basic.playground_m2")
	b.Cooling = setpoint(doc, "basic.cooling", DefaultCooling)
	b.Heating = setpoint(doc, "basic.heating", DefaultHeating)
	b.Checklist = Checklist{
		PlanDoc:               doc.Truthy("basic.checklist.planDoc"),
		SmartStandby:          doc.Truthy("basic.checklist.smartStandby"),
		HVACEfficiencyUpgrade: doc.Truthy("basic.checklist.hvacEfficiencyUpgrade"),
		Board:                 doc.Truthy("basic.checklist.board"),
	}

	bce := &rec.BCE
	for _, item := range CostItems {
		bce.BehaviorCosts[item] = floatField(doc, "bce.behavior_costs."+item)
	}
	for _, item := range CultureItems {
		bce.CultureChecks[item] = doc.Truthy("bce.culture_checks." + item)
	}
	for _, item := range BehaviorCheckItems {
		bce.BehaviorChecks[item] = doc.Truthy("bce.behavior_checks." + item)
	}
	for _, item := range EnvironmentCheckItems {
		bce.EnvironmentChecks[item] = doc.Truthy("bce.environment_checks." + item)
	}
	bce.EnvironmentChecks["solar_install"] = boolOrPositive(doc,
		"bce.environment_checks.solar_install", "bce.environment.solar_generation_kwh")
	bce.EnvironmentChecks["rainwater_tank_use"] = boolOrPositive(doc,
		"bce.environment_checks.rainwater_tank_use", "bce.environment.rainwater_tank_l")
	bce.EnvironmentChecks["forest_garden_manage"] = doc.Truthy("bce.environment_checks.forest_garden_manage") ||
		doc.Truthy("bce.environment_checks.school_forest_manage") ||
		doc.Truthy("bce.environment_checks.school_garden_operate")
	bce.SmartStandby = b.Checklist.SmartStandby
	bce.Board = b.Checklist.Board

	return rec
}

func floatField(doc document.Doc, path string) *float64 {
	n, ok := doc.Number(path)
	if !ok {
		return nil
	}
	return &n
}

// intField reads a count for display and editing; non-integral legacy values are rounded.
func intField(doc document.Doc, path string) *int {
	n, ok := doc.Number(path)
	if !ok {
		return nil
	}
	i := int(math.Round(n))
	return &i
}

func setpoint(doc document.Doc, path string, def float64) float64 {
	if n, ok := doc.Number(path + ".min"); ok {
		return n
	}
	if n, ok := doc.Number(path + ".max"); ok {
		return n
	}
	return def
}

func boolOrPositive(doc document.Doc, boolPath, numPath string) bool {
	if v, ok := doc.Bool(boolPath); ok {
		return v
	}
	n, ok := doc.Number(numPath)
	return ok && n > 0
}
