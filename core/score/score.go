// Package score turns a school record into behavior, culture and environment
// completion percentages and the traffic-light signal of their sum.
package score

import (
	"math"

	"github.com/carbonschool/dashboard/core"
	"github.com/carbonschool/dashboard/core/school"
)

type Signal string

const (
	SignalRed    Signal = "red"
	SignalYellow Signal = "yellow"
	SignalGreen  Signal = "green"
)

// MaxSum is the highest possible signal sum (three domains at 100).
const MaxSum = 300

// costFlags derives behavior items from yearly costs per person.
var costFlags = []struct {
	item string
	cost string
}{
	{"electricity_saving", "electricity_cost"},
	{"gas_saving", "gas_cost"},
	{"water_saving", "water_cost"},
	{"paper_reduction", "a4_paper_cost"},
	{"disposable_reduction", "disposable_cost"},
	{"waste_reduction", "waste_disposal_cost"},
}

const hvacItem = "hvac_temperature_compliance"

// Item lists per domain, in display order.
var (
	BehaviorItems = append(append(costFlagItems(), hvacItem), school.BehaviorCheckItems...)
	CultureItems  = school.CultureItems
	EnvItems      = append(append([]string{}, school.EnvironmentCheckItems...), "smart_standby", "board")
)

func costFlagItems() []string {
	items := make([]string, 0, len(costFlags)+1)
	for _, f := range costFlags {
		items = append(items, f.item)
	}
	return items
}

type (
	// Thresholds are the product settings behind derived items.
	Thresholds struct {
		PerPerson    map[string]float64 // keyed by cost item
		CoolingAbove float64
		HeatingBelow float64
	}

	// Cutoffs bucket the signal sum: below Red is red, below Yellow is yellow.
	Cutoffs struct {
		Red    int `json:"red"`
		Yellow int `json:"yellow"`
	}

	Item struct {
		Key  string `json:"key"`
		Done bool   `json:"done"`
	}

	Domain struct {
		Score int    `json:"score"`
		Done  int    `json:"done"`
		Total int    `json:"total"`
		Items []Item `json:"items"`
	}

	Scores struct {
		Behavior Domain `json:"behavior"`
		Culture  Domain `json:"culture"`
		Env      Domain `json:"env"`
		Sum      int    `json:"sum"`
	}
)

func DefaultThresholds() Thresholds {
	return Thresholds{
		PerPerson: map[string]float64{
			"electricity_cost":    150000,
			"gas_cost":            50000,
			"water_cost":          30000,
			"a4_paper_cost":       5000,
			"disposable_cost":     3000,
			"waste_disposal_cost": 10000,
		},
		CoolingAbove: school.DefaultCooling,
		HeatingBelow: school.DefaultHeating,
	}
}

func DefaultCutoffs() Cutoffs {
	return Cutoffs{Red: 150, Yellow: 240}
}

func ThresholdsFromConfig(conf *core.Config) Thresholds {
	sc := conf.Scoring
	return Thresholds{
		PerPerson: map[string]float64{
			"electricity_cost":    sc.ElectricityPerPerson,
			"gas_cost":            sc.GasPerPerson,
			"water_cost":          sc.WaterPerPerson,
			"a4_paper_cost":       sc.PaperPerPerson,
			"disposable_cost":     sc.DisposablePerPerson,
			"waste_disposal_cost": sc.WastePerPerson,
		},
		CoolingAbove: sc.CoolingAbove,
		HeatingBelow: sc.HeatingBelow,
	}
}

func CutoffsFromConfig(conf *core.Config) Cutoffs {
	return Cutoffs{Red: conf.Scoring.SignalRed, Yellow: conf.Scoring.SignalYellow}
}

// Percent is round(100*k/n), 0 when n is 0.
func Percent(k, n int) int {
	if n <= 0 {
		return 0
	}
	if k < 0 {
		k = 0
	} else if k > n {
		k = n
	}
	return int(math.Round(100 * float64(k) / float64(n)))
}

// CostPerPersonFlag reports whether cost/people is below threshold.
// It is false when the cost is unset or there are no people.
func CostPerPersonFlag(cost *float64, people, threshold float64) bool {
	if cost == nil || people <= 0 {
		return false
	}
	return *cost/people < threshold
}

// HVACCompliant reports whether the cooling setpoint is above and the
// heating setpoint below the thresholds.
func HVACCompliant(cooling, heating float64, th Thresholds) bool {
	return cooling > th.CoolingAbove && heating < th.HeatingBelow
}

// Compute scores a record.
func Compute(rec school.Record, th Thresholds) Scores {
	people := rec.Basic.TotalPeople()

	behavior := make([]Item, 0, len(BehaviorItems))
	for _, f := range costFlags {
		behavior = append(behavior, Item{
			Key:  f.item,
			Done: CostPerPersonFlag(rec.BCE.BehaviorCosts.Get(f.cost), people, th.PerPerson[f.cost]),
		})
	}
	behavior = append(behavior, Item{Key: hvacItem, Done: HVACCompliant(rec.Basic.Cooling, rec.Basic.Heating, th)})
	behavior = append(behavior, checkItems(rec.BCE.BehaviorChecks, school.BehaviorCheckItems)...)

	culture := checkItems(rec.BCE.CultureChecks, school.CultureItems)

	env := checkItems(rec.BCE.EnvironmentChecks, school.EnvironmentCheckItems)
	env = append(env,
		Item{Key: "smart_standby", Done: rec.Basic.Checklist.SmartStandby},
		Item{Key: "board", Done: rec.Basic.Checklist.Board},
	)

	s := Scores{
		Behavior: newDomain(behavior),
		Culture:  newDomain(culture),
		Env:      newDomain(env),
	}
	s.Sum = s.Behavior.Score + s.Culture.Score + s.Env.Score
	return s
}

func checkItems(checks school.Checks, keys []string) []Item {
	items := make([]Item, 0, len(keys))
	for _, k := range keys {
		items = append(items, Item{Key: k, Done: checks[k]})
	}
	return items
}

func newDomain(items []Item) Domain {
	var done int
	for _, it := range items {
		if it.Done {
			done++
		}
	}
	return Domain{
		Score: Percent(done, len(items)),
		Done:  done,
		Total: len(items),
		Items: items,
	}
}

// SignalFor buckets a signal sum.
func SignalFor(sum int, c Cutoffs) Signal {
	switch {
	case sum < c.Red:
		return SignalRed
	case sum < c.Yellow:
		return SignalYellow
	default:
		return SignalGreen
	}
}
