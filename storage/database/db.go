package database

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/carbonschool/dashboard/core"
	appfs "github.com/carbonschool/dashboard/fs"
)

const (
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"

	migrationsDir = "migrations"
)

var (
	ErrUnknownEngine = errors.New("unknown database engine")

	gooseMu sync.Mutex
)

func dataSource(conf *core.Config) (driver, dsn string, err error) {
	switch conf.Database.Engine {
	case EngineSQLite:
		q := make(url.Values)
		q.Add("_pragma", "busy_timeout(5000)")
		q.Add("_pragma", "foreign_keys(1)")
		q.Add("_time_format", "sqlite")
		return "sqlite", "file:" + conf.Database.Path + "?" + q.Encode(), nil

	case EnginePostgres:
		sslMode := "require"
		if conf.Database.DisableTLS {
			sslMode = "disable"
		}
		q := make(url.Values)
		q.Set("sslmode", sslMode)
		q.Set("timezone", "utc")

		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(conf.Database.User, conf.Database.Password),
			Host:     conf.Database.Address(),
			Path:     conf.Database.Name,
			RawQuery: q.Encode(),
		}
		return "postgres", u.String(), nil
	}
	return "", "", errors.Wrap(ErrUnknownEngine, conf.Database.Engine)
}

// Open connects to the configured database and waits for it to answer.
func Open(conf *core.Config) (*sqlx.DB, error) {
	driver, dsn, err := dataSource(conf)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if conf.Database.Engine == EngineSQLite {
		// a single writer; read-modify-write transactions queue up
		db.SetMaxOpenConns(1)
	}
	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err = db.PingContext(ctx)
		cancel()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func gooseDialect(db *sqlx.DB) string {
	if strings.HasPrefix(db.DriverName(), EngineSQLite) {
		return "sqlite3"
	}
	return "postgres"
}

// Goose runs a goose command ("up", "down", "status", "redo", ...) on the embedded migrations.
func Goose(db *sqlx.DB, command string, args ...string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(appfs.FS)
	if err := goose.SetDialect(gooseDialect(db)); err != nil {
		return errors.Wrap(err, "setting migration dialect")
	}
	if err := goose.Run(command, db.DB, migrationsDir, args...); err != nil {
		return errors.Wrapf(err, "running migration command %q", command)
	}
	return nil
}

func Migrate(db *sqlx.DB) error {
	return errors.Wrap(Goose(db, "up"), "migrating database")
}
