package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/carbonschool/dashboard/core/energy"
)

// Readings carry no db tags; columns are aliased to the default field mapping.
type energyRepository struct {
	db *sqlx.DB
}

func NewEnergyRepository(db *sqlx.DB) energy.Repository {
	return &energyRepository{db: db}
}

func (repo *energyRepository) UpsertMonthly(ctx context.Context, readings []energy.MonthlyReading) error {
	q := `INSERT INTO energy_monthly (school_id, metric, year, month, value) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (school_id, metric, year, month) DO UPDATE SET value = excluded.value`
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, tx.Rebind(q))
		if err != nil {
			return errors.Wrap(err, "preparing monthly upsert")
		}
		defer func() { _ = stmt.Close() }()

		for _, r := range readings {
			if _, err = stmt.ExecContext(ctx, r.SchoolID, string(r.Metric), r.Year, r.Month, r.Value); err != nil {
				return errors.Wrap(err, "upserting monthly reading")
			}
		}
		return nil
	})
}

func (repo *energyRepository) UpsertHourly(ctx context.Context, readings []energy.HourlyReading) error {
	q := `INSERT INTO energy_hourly (school_id, metric, day, hour, value) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (school_id, metric, day, hour) DO UPDATE SET value = excluded.value`
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, tx.Rebind(q))
		if err != nil {
			return errors.Wrap(err, "preparing hourly upsert")
		}
		defer func() { _ = stmt.Close() }()

		for _, r := range readings {
			if _, err = stmt.ExecContext(ctx, r.SchoolID, string(r.Metric), r.Day, r.Hour, r.Value); err != nil {
				return errors.Wrap(err, "upserting hourly reading")
			}
		}
		return nil
	})
}

func (repo *energyRepository) ListMonthly(
	ctx context.Context,
	metric energy.Metric,
	from, to energy.YearMonth,
	schoolIDs ...string,
) ([]energy.MonthlyReading, error) {
	q := `SELECT school_id AS schoolid, metric, year, month, value FROM energy_monthly
		WHERE metric = ? AND (year * 12 + month) BETWEEN ? AND ?`
	args := []interface{}{string(metric), from.Year*12 + from.Month, to.Year*12 + to.Month}
	if len(schoolIDs) > 0 {
		q += ` AND school_id IN (?)`
		args = append(args, schoolIDs)
	}
	q += ` ORDER BY school_id, year, month`

	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "expanding monthly query")
	}

	readings := make([]energy.MonthlyReading, 0)
	if err = repo.db.SelectContext(ctx, &readings, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting monthly readings")
	}
	return readings, nil
}

func (repo *energyRepository) ListHourly(ctx context.Context, schoolID string, metric energy.Metric, day string) ([]energy.HourlyReading, error) {
	q := repo.db.Rebind(`SELECT school_id AS schoolid, metric, day, hour, value FROM energy_hourly
		WHERE school_id = ? AND metric = ? AND day = ? ORDER BY hour`)

	readings := make([]energy.HourlyReading, 0)
	if err := repo.db.SelectContext(ctx, &readings, q, schoolID, string(metric), day); err != nil {
		return nil, errors.Wrap(err, "selecting hourly readings")
	}
	return readings, nil
}
