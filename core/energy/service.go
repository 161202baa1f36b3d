package energy

import (
	"context"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/carbonschool/dashboard/core"
)

// MaxMonths bounds the length of monthly series.
const MaxMonths = 24

type (
	Repository interface {
		UpsertMonthly(ctx context.Context, readings []MonthlyReading) error
		UpsertHourly(ctx context.Context, readings []HourlyReading) error
		// ListMonthly returns readings of metric from `from` to `to` included.
		// Without schoolIDs, readings of every school are returned.
		ListMonthly(ctx context.Context, metric Metric, from, to YearMonth, schoolIDs ...string) ([]MonthlyReading, error)
		ListHourly(ctx context.Context, schoolID string, metric Metric, day string) ([]HourlyReading, error)
	}

	// Schools resolves the district of each school.
	Schools interface {
		Districts(ctx context.Context) (map[string]string, error)
	}

	Service struct {
		repo     Repository
		schools  Schools
		validate *validator.Validate
		factors  Factors
		loc      *time.Location
		nowFunc  func() time.Time
	}
)

func NewService(conf *core.Config, repo Repository, schools Schools, validate *validator.Validate) *Service {
	return &Service{
		repo:     repo,
		schools:  schools,
		validate: validate,
		factors: Factors{
			Electric:   conf.Energy.ElectricFactor,
			Gas:        conf.Energy.GasFactor,
			Water:      conf.Energy.WaterFactor,
			MaxAbsTemp: conf.Energy.MaxAbsTemp,
		},
		loc:     conf.Location(),
		nowFunc: time.Now,
	}
}

// Now is the current time in the school time zone.
func (svc *Service) Now() time.Time {
	return svc.nowFunc().In(svc.loc)
}

func (svc *Service) Location() *time.Location { return svc.loc }

// SaveMonthly upserts monthly readings of one school and metric.
func (svc *Service) SaveMonthly(ctx context.Context, schoolID string, metric Metric, readings []MonthlyReading) error {
	for i := range readings {
		readings[i].SchoolID = schoolID
		readings[i].Metric = metric
	}
	if err := svc.validate.Struct(monthlyBatch{Readings: readings}); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.UpsertMonthly(ctx, readings), "upserting monthly readings")
}

// SaveHourly upserts hourly readings of one school, metric and day.
func (svc *Service) SaveHourly(ctx context.Context, schoolID string, metric Metric, readings []HourlyReading) error {
	for i := range readings {
		readings[i].SchoolID = schoolID
		readings[i].Metric = metric
	}
	if err := svc.validate.Struct(hourlyBatch{Readings: readings}); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.UpsertHourly(ctx, readings), "upserting hourly readings")
}

type (
	monthlyBatch struct {
		Readings []MonthlyReading `json:"readings" validate:"required,dive"`
	}
	hourlyBatch struct {
		Readings []HourlyReading `json:"readings" validate:"required,dive"`
	}
)

func clampMonths(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxMonths {
		return MaxMonths
	}
	return n
}

func byMonth(readings []MonthlyReading) map[int]float64 {
	m := make(map[int]float64, len(readings))
	for _, r := range readings {
		m[YearMonth{Year: r.Year, Month: r.Month}.index()] += r.Value
	}
	return m
}

// CompareSeries returns the last n months up to `to` and the same months a year before.
// Missing readings count as 0.
func (svc *Service) CompareSeries(ctx context.Context, schoolID string, metric Metric, to YearMonth, n int) (CompareSeries, error) {
	n = clampMonths(n)
	from := to.AddMonths(-(n - 1))

	readings, err := svc.repo.ListMonthly(ctx, metric, from.AddMonths(-12), to, schoolID)
	if err != nil {
		return CompareSeries{}, errors.Wrap(err, "listing monthly readings")
	}
	values := byMonth(readings)

	s := CompareSeries{
		Metric:   metric,
		Unit:     metric.Unit(),
		Labels:   make([]string, n),
		Current:  make([]float64, n),
		LastYear: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		ym := from.AddMonths(i)
		s.Labels[i] = ym.String()
		s.Current[i] = values[ym.index()]
		s.LastYear[i] = values[ym.AddMonths(-12).index()]
	}
	return s, nil
}

// MonthlySeries returns the use of metric with the district and city averages.
// Averages only count schools with a reading for the month.
func (svc *Service) MonthlySeries(ctx context.Context, schoolID string, metric Metric, to YearMonth, n int) (MonthlySeries, error) {
	own, err := svc.CompareSeries(ctx, schoolID, metric, to, n)
	if err != nil {
		return MonthlySeries{}, err
	}
	n = len(own.Labels)
	from := to.AddMonths(-(n - 1))

	var (
		all       []MonthlyReading
		districts map[string]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		all, err = svc.repo.ListMonthly(gctx, metric, from, to)
		return errors.Wrap(err, "listing city readings")
	})
	g.Go(func() error {
		var err error
		districts, err = svc.schools.Districts(gctx)
		return errors.Wrap(err, "listing districts")
	})
	if err := g.Wait(); err != nil {
		return MonthlySeries{}, err
	}

	district := districts[schoolID]
	var inDistrict []MonthlyReading
	if district != "" {
		for _, r := range all {
			if districts[r.SchoolID] == district {
				inDistrict = append(inDistrict, r)
			}
		}
	}

	s := MonthlySeries{
		Metric:       metric,
		Unit:         own.Unit,
		Labels:       own.Labels,
		Current:      own.Current,
		LastYear:     own.LastYear,
		DistrictName: district,
		District:     averages(inDistrict, from, n),
		City:         averages(all, from, n),
	}
	return s, nil
}

func averages(readings []MonthlyReading, from YearMonth, n int) []float64 {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, r := range readings {
		i := YearMonth{Year: r.Year, Month: r.Month}.index()
		sums[i] += r.Value
		counts[i]++
	}

	avgs := make([]float64, n)
	for i := 0; i < n; i++ {
		idx := from.AddMonths(i).index()
		if c := counts[idx]; c > 0 {
			avgs[i] = round1(sums[idx] / float64(c))
		}
	}
	return avgs
}

// HourlySeries returns day against the same weekday a week before.
// For today, values stop at the current hour; future days have no values.
func (svc *Service) HourlySeries(ctx context.Context, schoolID string, metric Metric, day time.Time) (HourlySeries, error) {
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, svc.loc)
	weekAgo := day.AddDate(0, 0, -7)

	var today, before []HourlyReading
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		today, err = svc.repo.ListHourly(gctx, schoolID, metric, day.Format(dayLayout))
		return errors.Wrap(err, "listing hourly readings")
	})
	g.Go(func() error {
		var err error
		before, err = svc.repo.ListHourly(gctx, schoolID, metric, weekAgo.Format(dayLayout))
		return errors.Wrap(err, "listing week-ago readings")
	})
	if err := g.Wait(); err != nil {
		return HourlySeries{}, err
	}

	return buildHourly(metric, day, svc.Now(), today, before), nil
}

func buildHourly(metric Metric, day, now time.Time, today, weekAgo []HourlyReading) HourlySeries {
	todayByHour := make(map[int]float64, len(today))
	for _, r := range today {
		todayByHour[r.Hour] += r.Value
	}
	weekAgoByHour := make(map[int]float64, len(weekAgo))
	for _, r := range weekAgo {
		weekAgoByHour[r.Hour] += r.Value
	}

	cutoffHour := LastHour
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, day.Location())
	switch {
	case day.Equal(nowDay):
		cutoffHour = now.Hour()
	case day.After(nowDay):
		cutoffHour = -1
	}

	n := LastHour - FirstHour + 1
	s := HourlySeries{
		Metric:      metric,
		Unit:        metric.Unit(),
		Day:         day.Format(dayLayout),
		Hours:       make([]int, n),
		Today:       make([]*float64, n),
		WeekAgo:     make([]float64, n),
		CutoffIndex: -1,
	}
	for i := 0; i < n; i++ {
		h := FirstHour + i
		s.Hours[i] = h
		s.WeekAgo[i] = weekAgoByHour[h]
		if h <= cutoffHour {
			v := todayByHour[h]
			s.Today[i] = &v
			s.CutoffIndex = i
		}
		if s.WeekAgo[i] > s.WeekAgo[s.PeakIndex] {
			s.PeakIndex = i
		}
	}

	lo, hi := s.PeakIndex-1, s.PeakIndex+1
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	s.PeakBand = [2]int{lo, hi}
	return s
}

// CarbonSummary compares emissions from January through `through` with the same months of the year before.
func (svc *Service) CarbonSummary(ctx context.Context, schoolID string, year, through int) (Carbon, error) {
	if through < 1 || through > 12 {
		return Carbon{}, ErrInvalidMonth
	}
	from := YearMonth{Year: year - 1, Month: 1}
	to := YearMonth{Year: year, Month: through}

	totals := make(map[Metric][2]float64, len(Metrics)) // [last year, this year]
	results := make([][]MonthlyReading, len(Metrics))
	g, gctx := errgroup.WithContext(ctx)
	for i, metric := range Metrics {
		i, metric := i, metric
		g.Go(func() error {
			var err error
			results[i], err = svc.repo.ListMonthly(gctx, metric, from, to, schoolID)
			return errors.Wrapf(err, "listing %s readings", metric)
		})
	}
	if err := g.Wait(); err != nil {
		return Carbon{}, err
	}
	for i, metric := range Metrics {
		var sums [2]float64
		for _, r := range results[i] {
			if r.Month > through {
				continue
			}
			switch r.Year {
			case year - 1:
				sums[0] += r.Value
			case year:
				sums[1] += r.Value
			}
		}
		totals[metric] = sums
	}

	f := svc.factors
	emissions := func(k int) (gross, solar float64) {
		gross = totals[Electric][k]*f.Electric + totals[Gas][k]*f.Gas + totals[Water][k]*f.Water
		solar = totals[Solar][k] * f.Electric
		return gross, solar
	}
	lastGross, lastSolar := emissions(0)
	gross, solar := emissions(1)

	c := Carbon{
		Year:          year,
		ThroughMonth:  through,
		EmittedKg:     round1(gross - solar),
		LastYearKg:    round1(lastGross - lastSolar),
		SolarOffsetKg: round1(solar),
	}
	c.ReducedKg = round1(c.LastYearKg - c.EmittedKg)
	if c.LastYearKg > 0 {
		c.TempC = round1((c.EmittedKg - c.LastYearKg) / c.LastYearKg * 100)
	}
	c.Gauge = Gauge(c.TempC, f.MaxAbsTemp)
	return c, nil
}

// Gauge maps t, clamped to ±maxAbs, onto [0, 1].
func Gauge(t, maxAbs float64) float64 {
	if maxAbs <= 0 {
		return 0.5
	}
	t = math.Max(-maxAbs, math.Min(maxAbs, t))
	return (t + maxAbs) / (2 * maxAbs)
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
