package main

import (
	"log"
	"os"
	_ "time/tzdata"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/carbonschool/dashboard/core"
	"github.com/carbonschool/dashboard/core/account"
	"github.com/carbonschool/dashboard/core/school"
	emailsvc "github.com/carbonschool/dashboard/services/email"
	"github.com/carbonschool/dashboard/services/feed"
	logsvc "github.com/carbonschool/dashboard/services/logger"
	"github.com/carbonschool/dashboard/storage/database"
	sqlxrepos "github.com/carbonschool/dashboard/storage/database/sqlx"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()
	logger = logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)

	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	account.LoadCommonPasswords(logger)

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)

	broker := feed.NewBroker()
	cli := commandLine{
		db:        db,
		accSvc:    account.NewService(conf, sqlxrepos.NewAccountRepository(db), emailsvc.NewConsoleService(conf, logger), validate),
		schoolSvc: school.NewService(sqlxrepos.NewSchoolRepository(db), broker, validate),
	}
	err = cli.run(os.Args)
	broker.Close()
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("\nerror: "+err.Error(), err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
