package dig_container

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/carbonschool/dashboard/apps/api/echo"
	"github.com/carbonschool/dashboard/core"
	"github.com/carbonschool/dashboard/core/account"
	"github.com/carbonschool/dashboard/core/dashboard"
	"github.com/carbonschool/dashboard/core/energy"
	"github.com/carbonschool/dashboard/core/notice"
	"github.com/carbonschool/dashboard/core/school"
	emailsvc "github.com/carbonschool/dashboard/services/email"
	sendgridmail "github.com/carbonschool/dashboard/services/email/sendgrid"
	"github.com/carbonschool/dashboard/services/feed"
	logsvc "github.com/carbonschool/dashboard/services/logger"
	"github.com/carbonschool/dashboard/storage/database"
	sqlxrepos "github.com/carbonschool/dashboard/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In
	Conf         *core.Config
	Logger       core.Logger
	AccountSvc   *account.Service
	SchoolSvc    *school.Service
	DashboardSvc *dashboard.Service
	EnergySvc    *energy.Service
	Notices      *notice.Rotator
	Validate     *validator.Validate
	Translator   ut.Translator
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		if err = database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridAPIKey == "" {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return sendgridmail.NewService(conf, logger)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newSchoolService(repo school.Repository, broker *feed.Broker, validate *validator.Validate) *school.Service {
	return school.NewService(repo, broker, validate)
}

func newDashboardService(conf *core.Config, schools *school.Service, logger core.Logger) *dashboard.Service {
	return dashboard.NewService(conf, schools, logger)
}

func newEnergyService(conf *core.Config, repo energy.Repository, schools *school.Service, validate *validator.Validate) *energy.Service {
	return energy.NewService(conf, repo, schools, validate)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:         p.Conf,
		Logger:       p.Logger,
		AccountSvc:   p.AccountSvc,
		SchoolSvc:    p.SchoolSvc,
		DashboardSvc: p.DashboardSvc,
		EnergySvc:    p.EnergySvc,
		Notices:      p.Notices,
		Validate:     p.Validate,
		Translator:   p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newEmailService))
	must(c.Provide(sqlxrepos.NewAccountRepository))
	must(c.Provide(sqlxrepos.NewSchoolRepository))
	must(c.Provide(sqlxrepos.NewEnergyRepository))
	must(c.Provide(feed.NewBroker))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))
	must(c.Provide(account.NewService))
	must(c.Provide(newSchoolService))
	must(c.Provide(newDashboardService))
	must(c.Provide(newEnergyService))
	must(c.Provide(notice.NewRotatorFromConfig))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
