package energy

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

type Metric string

const (
	Electric Metric = "electric"
	Water    Metric = "water"
	Gas      Metric = "gas"
	Solar    Metric = "solar"
)

// Hours of the school day shown by hourly series.
const (
	FirstHour = 6
	LastHour  = 20
)

var (
	Metrics = []Metric{Electric, Water, Gas, Solar}

	units = map[Metric]string{
		Electric: "kWh",
		Water:    "m3",
		Gas:      "m3",
		Solar:    "kWh",
	}

	// errors
	ErrUnknownMetric = errors.New("unknown metric")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidDay    = errors.New("invalid day")
)

func ParseMetric(s string) (Metric, error) {
	m := Metric(s)
	if _, ok := units[m]; !ok {
		return "", ErrUnknownMetric
	}
	return m, nil
}

func (m Metric) Unit() string { return units[m] }

// YearMonth is a calendar month.
type YearMonth struct {
	Year  int
	Month int
}

const yearMonthLayout = "2006-01"

func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse(yearMonthLayout, s)
	if err != nil {
		return YearMonth{}, ErrInvalidMonth
	}
	return YearMonthOf(t), nil
}

func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: int(t.Month())}
}

func (ym YearMonth) index() int { return ym.Year*12 + ym.Month - 1 }

// AddMonths moves ym by n months (n may be negative).
func (ym YearMonth) AddMonths(n int) YearMonth {
	i := ym.index() + n
	return YearMonth{Year: i / 12, Month: i%12 + 1}
}

func (ym YearMonth) Before(other YearMonth) bool { return ym.index() < other.index() }

func (ym YearMonth) Valid() bool { return ym.Month >= 1 && ym.Month <= 12 && ym.Year > 0 }

func (ym YearMonth) String() string { return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month) }

type (
	MonthlyReading struct {
		SchoolID string  `json:"school_id"`
		Metric   Metric  `json:"metric"`
		Year     int     `json:"year" validate:"min=2000,max=2100"`
		Month    int     `json:"month" validate:"min=1,max=12"`
		Value    float64 `json:"value" validate:"min=0"`
	}

	HourlyReading struct {
		SchoolID string  `json:"school_id"`
		Metric   Metric  `json:"metric"`
		Day      string  `json:"day" validate:"required,datetime=2006-01-02"`
		Hour     int     `json:"hour" validate:"min=0,max=23"`
		Value    float64 `json:"value" validate:"min=0"`
	}

	// CompareSeries is a metric over the last months against the same months a year before.
	CompareSeries struct {
		Metric   Metric    `json:"metric"`
		Unit     string    `json:"unit"`
		Labels   []string  `json:"labels"`
		Current  []float64 `json:"current"`
		LastYear []float64 `json:"last_year"`
	}

	// MonthlySeries is the use of a metric against last year and the district and city averages.
	MonthlySeries struct {
		Metric       Metric    `json:"metric"`
		Unit         string    `json:"unit"`
		Labels       []string  `json:"labels"`
		Current      []float64 `json:"current"`
		LastYear     []float64 `json:"last_year"`
		DistrictName string    `json:"district_name"`
		District     []float64 `json:"district"`
		City         []float64 `json:"city"`
	}

	// HourlySeries is one school day against the same weekday a week before.
	// Today values after the cutoff hour are null.
	HourlySeries struct {
		Metric      Metric     `json:"metric"`
		Unit        string     `json:"unit"`
		Day         string     `json:"day"`
		Hours       []int      `json:"hours"`
		Today       []*float64 `json:"today"`
		WeekAgo     []float64  `json:"week_ago"`
		CutoffIndex int        `json:"cutoff_index"` // last index with a today value, -1 for none
		PeakIndex   int        `json:"peak_index"`
		PeakBand    [2]int     `json:"peak_band"`
	}

	// Carbon summarizes year-to-date emissions in kg CO2e.
	Carbon struct {
		Year          int     `json:"year"`
		ThroughMonth  int     `json:"through_month"`
		EmittedKg     float64 `json:"emitted_kg"`
		LastYearKg    float64 `json:"last_year_kg"`
		ReducedKg     float64 `json:"reduced_kg"`
		SolarOffsetKg float64 `json:"solar_offset_kg"`
		TempC         float64 `json:"temp_c"`
		Gauge         float64 `json:"gauge"`
	}

	// Factors are emission factors in kg CO2e per unit.
	Factors struct {
		Electric   float64
		Gas        float64
		Water      float64
		MaxAbsTemp float64
	}
)

const dayLayout = "2006-01-02"

func ParseDay(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dayLayout, s, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDay
	}
	return t, nil
}
