package account

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonschool/dashboard/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	LoadCommonPasswords(nopLogger{})
	return validate
}

func TestLoginEmail(t *testing.T) {
	tests := []struct {
		login, want string
	}{
		{"hanbit", "hanbit@sen.go.kr"},
		{"  HanBit ", "hanbit@sen.go.kr"},
		{"Hanbit@Sen.Go.Kr", "hanbit@sen.go.kr"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LoginEmail(tt.login, "SEN.go.kr"), "LoginEmail(%q)", tt.login)
	}
	assert.Equal(t, "hanbit", SchoolIDFromEmail("Hanbit@sen.go.kr"))
	assert.Equal(t, "hanbit", SchoolIDFromEmail("hanbit"))
}

func TestAccount_CanEdit(t *testing.T) {
	acc := Account{ID: "hanbit"}
	assert.True(t, acc.CanEdit("hanbit"))
	assert.True(t, acc.CanEdit("Hanbit"))
	assert.False(t, acc.CanEdit("saebit"))
	acc.IsAdmin = true
	assert.True(t, acc.CanEdit("saebit"))
}

func TestPasswordPolicy(t *testing.T) {
	validate := newValidator(t)

	tests := []struct {
		name    string
		pwd     string
		wantTag string
	}{
		{"too short", "Ab1!", pwdMinLenTag},
		{"whitespace", "Abcd 123!", pwdNoSpaceTag},
		{"all numeric", "12345678", pwdNotAllNumTag},
		{"no complexity", "abcdefgh1", pwdComplexityTag},
		{"similar to school", "Hanbit1!", pwdAttrSimTag},
		{"common", "P@ssw0rd", pwdNoCommonTag},
		{"valid", "Green-Campus9", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			na := NewAccount{SchoolID: "hanbit", Name: "한빛초", Password: tt.pwd, PasswordConfirm: tt.pwd}
			err := na.Validate(validate, "sen.go.kr")
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.wantTag, verrs[0].Tag())
			assert.Equal(t, "password", verrs[0].Field())
		})
	}
}

func TestNewAccount_Validate(t *testing.T) {
	validate := newValidator(t)

	na := NewAccount{SchoolID: " HanBit ", Name: " 한빛초 ", Password: "Green-Campus9", PasswordConfirm: "Green-Campus9"}
	require.NoError(t, na.Validate(validate, "sen.go.kr"))
	assert.Equal(t, "hanbit", na.SchoolID)
	assert.Equal(t, "한빛초", na.Name)
	assert.Equal(t, "hanbit@sen.go.kr", na.email)

	na = NewAccount{SchoolID: "han bit", Password: "Green-Campus9", PasswordConfirm: "Green-Campus8"}
	var verrs validator.ValidationErrors
	require.ErrorAs(t, na.Validate(validate, "sen.go.kr"), &verrs)
	tags := make(map[string]string)
	for _, e := range verrs {
		tags[e.Field()] = e.Tag()
	}
	assert.Equal(t, map[string]string{"school_id": "schoolid", "password_confirm": "eqfield"}, tags)
}
