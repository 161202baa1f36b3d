package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonschool/dashboard/core"
	"github.com/carbonschool/dashboard/core/account"
	"github.com/carbonschool/dashboard/core/school"
	emailsvc "github.com/carbonschool/dashboard/services/email"
	"github.com/carbonschool/dashboard/services/feed"
	logsvc "github.com/carbonschool/dashboard/services/logger"
	sqlxrepos "github.com/carbonschool/dashboard/storage/database/sqlx"
	testutil "github.com/carbonschool/dashboard/tests"
)

const pwd = "Green-Campus9"

var accRepo account.Repository

func setup(t *testing.T) *commandLine {
	t.Helper()
	conf := testutil.NewConfig(t)
	logger = logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)

	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	account.LoadCommonPasswords(logger)

	// set up DB & repos
	db := testutil.PrepareDB(t)
	accRepo = sqlxrepos.NewAccountRepository(db)
	broker := feed.NewBroker()
	t.Cleanup(broker.Close)

	// start CLI
	return &commandLine{
		db:        db,
		accSvc:    account.NewService(conf, accRepo, emailsvc.NewConsoleServiceMock(conf, logger), validate),
		schoolSvc: school.NewService(sqlxrepos.NewSchoolRepository(db), broker, validate),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func mockPassword(p string) {
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(p), nil }
}

func Test_commandLine_help(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "addschool: no args", args: []string{"addschool"}, wantErr: errHelp},
		{name: "addschool: no password", args: []string{"addschool", "-school", "hanbit"}, wantErr: errHelp},
		{name: "resetpassword: no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "resetpassword: no password", args: []string{"resetpassword", "-school", "hanbit"}, wantErr: errHelp},
		{name: "setactive: no args", args: []string{"setactive"}, wantErr: errHelp},
		{name: "migrate: no subcommand", args: []string{"migrate"}, wantErr: errHelp},
	}
	mockPassword("")
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, cli.run(args))
		})
	}
}

func Test_commandLine_addSchool(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	mockPassword(pwd)
	err := cli.run([]string{"admin", "addschool", "-school", "Hanbit", "-name", "한빛초", "-district", "강남", "-admin"})
	require.NoError(t, err)

	acc, err := accRepo.GetAccountByID(ctx, "hanbit")
	require.NoError(t, err)
	assert.Equal(t, "한빛초", acc.Name)
	assert.True(t, acc.IsAdmin)
	assert.True(t, acc.IsActive)
	assert.NoError(t, acc.CheckPassword(pwd))

	rec, err := cli.schoolSvc.Load(ctx, "hanbit")
	require.NoError(t, err)
	assert.Equal(t, "한빛초", rec.Name)
	assert.Equal(t, "강남", rec.District)

	t.Run("exists", func(t *testing.T) {
		err := cli.run([]string{"admin", "addschool", "-school", "hanbit"})
		assert.ErrorIs(t, err, account.ErrExists)
	})

	t.Run("weak password", func(t *testing.T) {
		mockPassword("1234")
		err := cli.run([]string{"admin", "addschool", "-school", "saebit"})
		var verrs validator.ValidationErrors
		assert.ErrorAs(t, err, &verrs)
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	acc := testutil.CreateAccount(t, accRepo, "hanbit", "한빛초", "hanbit@sen.go.kr", pwd, false, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "account not found", args: []string{"resetpassword", "-school", "lol"}, extra: extra{pwd: "lol"}, wantErr: account.ErrNotFound},
		{name: "reset with id", args: []string{"resetpassword", "-school", acc.ID}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-school", acc.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt.extra.(extra).pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			refreshed, err := accRepo.GetAccountByID(context.Background(), acc.ID)
			require.NoError(t, err)
			assert.NoError(t, refreshed.CheckPassword(tt.extra.(extra).pwd))
		})
	}
}

func Test_commandLine_setActive(t *testing.T) {
	cli := setup(t)
	acc := testutil.CreateAccount(t, accRepo, "hanbit", "한빛초", "hanbit@sen.go.kr", pwd, false, true)

	require.NoError(t, cli.run([]string{"admin", "setactive", "-school", acc.ID, "-active=false"}))
	refreshed, err := accRepo.GetAccountByID(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.False(t, refreshed.IsActive)

	require.NoError(t, cli.run([]string{"admin", "setactive", "-school", acc.ID}))
	refreshed, err = accRepo.GetAccountByID(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.True(t, refreshed.IsActive)

	assert.ErrorIs(t, cli.run([]string{"admin", "setactive", "-school", "nobody"}), account.ErrNotFound)
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(db *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErrStr != "" {
				assert.EqualError(t, err, tt.wantErrStr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
