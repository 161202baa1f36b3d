package account_test

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonschool/dashboard/core"
	"github.com/carbonschool/dashboard/core/account"
	emailsvc "github.com/carbonschool/dashboard/services/email"
	logsvc "github.com/carbonschool/dashboard/services/logger"
	inmemdb "github.com/carbonschool/dashboard/storage/database/inmem"
)

const pwd = "Green-Campus9"

func setup(t *testing.T) (*account.Service, account.Repository) {
	t.Helper()
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)

	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	account.LoadCommonPasswords(logger)
	core.ParseEmailTemplates(conf, logger)

	repo := inmemdb.NewAccountRepository(inmemdb.Open())
	svc := account.NewService(conf, repo, emailsvc.NewConsoleServiceMock(conf, logger), validate)
	return svc, repo
}

func createHanbit(t *testing.T, svc *account.Service) account.Account {
	t.Helper()
	acc, err := svc.Create(context.Background(), account.NewAccount{
		SchoolID:        "hanbit",
		Name:            "한빛초",
		District:        "강남",
		Password:        pwd,
		PasswordConfirm: pwd,
	})
	require.NoError(t, err)
	return acc
}

func TestService_Create(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	acc := createHanbit(t, svc)
	assert.Equal(t, "hanbit", acc.ID)
	assert.Equal(t, "hanbit@sen.go.kr", acc.Email)
	assert.Equal(t, "강남", acc.District)
	assert.True(t, acc.IsActive)
	assert.False(t, acc.IsAdmin)
	assert.NoError(t, acc.CheckPassword(pwd))

	_, err := svc.Create(ctx, account.NewAccount{SchoolID: "HANBIT", Password: pwd, PasswordConfirm: pwd})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "school_id", verr.Fields[0].Field)

	_, err = svc.Create(ctx, account.NewAccount{SchoolID: "saebit", Password: "short", PasswordConfirm: "short"})
	assert.IsType(t, validator.ValidationErrors{}, err)
}

func TestService_koreanSchool(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	acc, err := svc.Create(ctx, account.NewAccount{
		SchoolID:        " 오류중학교 ",
		Name:            "오류중학교",
		Password:        pwd,
		PasswordConfirm: pwd,
	})
	require.NoError(t, err)
	assert.Equal(t, "오류중학교", acc.ID)
	assert.Equal(t, "오류중학교@sen.go.kr", acc.Email)

	_, err = svc.Authenticate(ctx, "오류중학교", pwd)
	assert.NoError(t, err)
	_, err = svc.Authenticate(ctx, "오류중학교@SEN.GO.KR", pwd)
	assert.NoError(t, err)

	got, err := svc.GetByID(ctx, "오류중학교")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)
	assert.True(t, got.CanEdit("오류중학교"))
}

func TestService_Authenticate(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	createHanbit(t, svc)

	acc, err := svc.Authenticate(ctx, "Hanbit", pwd)
	require.NoError(t, err)
	assert.False(t, acc.LastLogin.IsZero())

	_, err = svc.Authenticate(ctx, "hanbit@sen.go.kr", pwd)
	assert.NoError(t, err)

	_, err = svc.Authenticate(ctx, "hanbit", "wrong")
	assert.Equal(t, account.ErrAuthenticationFailed, err)
	_, err = svc.Authenticate(ctx, "nobody", pwd)
	assert.Equal(t, account.ErrAuthenticationFailed, err)

	_, err = svc.SetActive(ctx, "hanbit", false)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "hanbit", pwd)
	assert.Equal(t, account.ErrDeactivated, err)
}

func TestService_SetPassword(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	createHanbit(t, svc)

	acc, err := svc.SetPassword(ctx, "hanbit", "1234")
	require.NoError(t, err)
	assert.NoError(t, acc.CheckPassword("1234"))

	_, err = svc.SetPassword(ctx, "nobody", "1234")
	assert.Equal(t, account.ErrNotFound, err)
}

func TestService_PasswordReset(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	createHanbit(t, svc)
	emailsvc.SentMessages()

	require.NoError(t, svc.RequestPasswordReset(ctx, "hanbit"))
	assert.Equal(t, account.ErrNotFound, svc.RequestPasswordReset(ctx, "nobody"))

	sent := emailsvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "hanbit@sen.go.kr", sent[0].To[0].Address)
	data, ok := sent[0].TemplateData.(map[string]string)
	require.True(t, ok)
	assert.Contains(t, sent[0].TextContent, data["Token"])

	newPwd := "Solar-Roof-2030"
	reset := account.ResetPassword{Token: data["Token"], UID: data["UID"], Password: newPwd, PasswordConfirm: newPwd}

	t.Run("bad token", func(t *testing.T) {
		bad := reset
		bad.Token = "HE4TS-sigsig"
		_, err := svc.ResetPassword(ctx, bad)
		var verr *core.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "token", verr.Fields[0].Field)

		bad = reset
		bad.UID = "bm9ib2R5" // nobody
		_, err = svc.ResetPassword(ctx, bad)
		require.ErrorAs(t, err, &verr)
	})

	t.Run("weak password", func(t *testing.T) {
		weak := reset
		weak.Password, weak.PasswordConfirm = "12345678", "12345678"
		_, err := svc.ResetPassword(ctx, weak)
		assert.IsType(t, validator.ValidationErrors{}, err)
	})

	acc, err := svc.ResetPassword(ctx, reset)
	require.NoError(t, err)
	assert.NoError(t, acc.CheckPassword(newPwd))

	// the token is void once the password changed
	_, err = svc.ResetPassword(ctx, reset)
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)
}
