package echoapi

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/carbonschool/dashboard/core/energy"
)

const defaultMonths = 12

// seriesQuery is the query of monthly series: ?to=2025-03&months=12.
// to defaults to the current month.
type seriesQuery struct {
	To     energy.YearMonth
	Months int
}

func (q *seriesQuery) Bind(ctx echo.Context, now time.Time) error {
	var to string
	q.Months = defaultMonths
	err := echo.QueryParamsBinder(ctx).
		String("to", &to).
		Int("months", &q.Months).
		BindError()
	if err != nil {
		return err
	}

	q.To = energy.YearMonthOf(now)
	if to != "" {
		if q.To, err = energy.ParseYearMonth(to); err != nil {
			return err
		}
	}
	return nil
}

// carbonQuery is ?year=2025&through=3; both default to the current month.
type carbonQuery struct {
	Year    int
	Through int
}

func (q *carbonQuery) Bind(ctx echo.Context, now time.Time) error {
	q.Year = now.Year()
	q.Through = int(now.Month())
	return echo.QueryParamsBinder(ctx).
		Int("year", &q.Year).
		Int("through", &q.Through).
		BindError()
}

// bindDay reads ?day=2025-03-04; day defaults to today.
func bindDay(ctx echo.Context, now time.Time, loc *time.Location) (time.Time, error) {
	day := ctx.QueryParam("day")
	if day == "" {
		return now, nil
	}
	return energy.ParseDay(day, loc)
}

func bindMetric(ctx echo.Context) (energy.Metric, error) {
	return energy.ParseMetric(ctx.Param("metric"))
}
