package inmemdb

import (
	"context"
	"sort"

	"github.com/carbonschool/dashboard/core/energy"
)

type energyRepository struct {
	db *energyTable
}

func NewEnergyRepository(db *DB) energy.Repository {
	return &energyRepository{db: db.energy}
}

func (repo *energyRepository) UpsertMonthly(_ context.Context, readings []energy.MonthlyReading) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, r := range readings {
		repo.db.monthly[monthlyKey{r.SchoolID, r.Metric, r.Year, r.Month}] = r.Value
	}
	return nil
}

func (repo *energyRepository) UpsertHourly(_ context.Context, readings []energy.HourlyReading) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, r := range readings {
		repo.db.hourly[hourlyKey{r.SchoolID, r.Metric, r.Day, r.Hour}] = r.Value
	}
	return nil
}

func (repo *energyRepository) ListMonthly(
	_ context.Context,
	metric energy.Metric,
	from, to energy.YearMonth,
	schoolIDs ...string,
) ([]energy.MonthlyReading, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ids := make(map[string]bool, len(schoolIDs))
	for _, id := range schoolIDs {
		ids[id] = true
	}

	readings := make([]energy.MonthlyReading, 0)
	for k, v := range repo.db.monthly {
		ym := energy.YearMonth{Year: k.year, Month: k.month}
		if k.metric != metric || ym.Before(from) || to.Before(ym) {
			continue
		}
		if len(ids) > 0 && !ids[k.schoolID] {
			continue
		}
		readings = append(readings, energy.MonthlyReading{
			SchoolID: k.schoolID,
			Metric:   k.metric,
			Year:     k.year,
			Month:    k.month,
			Value:    v,
		})
	}
	sort.Slice(readings, func(i, j int) bool {
		a, b := readings[i], readings[j]
		if a.SchoolID != b.SchoolID {
			return a.SchoolID < b.SchoolID
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})
	return readings, nil
}

func (repo *energyRepository) ListHourly(_ context.Context, schoolID string, metric energy.Metric, day string) ([]energy.HourlyReading, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	readings := make([]energy.HourlyReading, 0)
	for k, v := range repo.db.hourly {
		if k.schoolID == schoolID && k.metric == metric && k.day == day {
			readings = append(readings, energy.HourlyReading{
				SchoolID: k.schoolID,
				Metric:   k.metric,
				Day:      k.day,
				Hour:     k.hour,
				Value:    v,
			})
		}
	}
	sort.Slice(readings, func(i, j int) bool { return readings[i].Hour < readings[j].Hour })
	return readings, nil
}
