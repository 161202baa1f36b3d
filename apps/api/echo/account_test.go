package echoapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/carbonschool/dashboard/apps/api/echo"
	"github.com/carbonschool/dashboard/core/account"
	emailsvc "github.com/carbonschool/dashboard/services/email"
)

func Test_accountApi_login(t *testing.T) {
	app := setup(t)

	acc := app.createAccount(t, "hanbit", false, true)
	app.createAccount(t, "nuri", false, false)

	type extra struct {
		schoolID string
	}
	tests := []httpTest{
		{
			name: "missing fields", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"school": "this field is required", "password": "this field is required"}),
		},
		{
			name: "unknown school", body: marchallObj(t, echoapi.LoginRequest{School: "lol", Password: pwd}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", body: marchallObj(t, echoapi.LoginRequest{School: "hanbit", Password: "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated", body: marchallObj(t, echoapi.LoginRequest{School: "nuri", Password: pwd}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "school name", body: marchallObj(t, echoapi.LoginRequest{School: " Hanbit ", Password: pwd}),
			wantCode: http.StatusOK, extra: extra{schoolID: acc.ID},
		},
		{
			name: "email", body: marchallObj(t, echoapi.LoginRequest{School: acc.Email, Password: pwd}),
			wantCode: http.StatusOK, extra: extra{schoolID: acc.ID},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/login", tt.body)
			app.server.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			checkCode(t, tt, rec)

			var resp echoapi.LoginResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.extra.(extra).schoolID, resp.SchoolID)

			claims := new(echoapi.Claims)
			_, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
				return []byte(app.conf.SecretKey), nil
			})
			require.NoError(t, err)
			assert.Equal(t, acc.ID, claims.Subject)
			assert.Equal(t, acc.Email, claims.Email)
			assert.False(t, claims.IsAdmin)
		})
	}

	// the login is recorded
	refreshed, err := app.accRepo.GetAccountByID(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.False(t, refreshed.LastLogin.IsZero())
}

func Test_accountApi_me(t *testing.T) {
	app := setup(t)

	acc := app.createAccount(t, "hanbit", false, true)
	acc, err := app.accRepo.GetAccountByID(context.Background(), acc.ID)
	require.NoError(t, err)
	gone := account.Account{ID: "gone", Email: "gone@sen.go.kr"}

	expired := echoapi.NewClaims(app.conf, acc)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	expiredToken, err := echoapi.GenerateToken(app.conf, expired)
	require.NoError(t, err)

	app.run(t, []httpTest{
		{name: "auth required", path: "/v1/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "bad token", path: "/v1/me", token: "lol", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidToken)},
		{name: "expired token", path: "/v1/me", token: expiredToken, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidToken)},
		{
			name: "unknown account", path: "/v1/me", token: getToken(t, app.conf, gone),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "account not authenticated"}),
		},
		{name: "header", path: "/v1/me", token: getToken(t, app.conf, acc), wantCode: http.StatusOK, wantData: marchallObj(t, acc)},
		{name: "query", path: "/v1/me?token=" + getToken(t, app.conf, acc), wantCode: http.StatusOK, wantData: marchallObj(t, acc)},
	}, true)
}

func Test_accountApi_refreshToken(t *testing.T) {
	app := setup(t)

	acc := app.createAccount(t, "hanbit", false, true)
	inactive := app.createAccount(t, "nuri", false, false)

	old := echoapi.NewClaims(app.conf, acc, time.Now().Add(-app.conf.Server.JWTRefreshExpirationDelta-time.Minute).Unix())
	oldToken, err := echoapi.GenerateToken(app.conf, old)
	require.NoError(t, err)

	app.run(t, []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/v1/auth/token-refresh", wantCode: http.StatusUnauthorized},
		{
			name: "deactivated", method: http.MethodPost, path: "/v1/auth/token-refresh", token: getToken(t, app.conf, inactive),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "refresh expired", method: http.MethodPost, path: "/v1/auth/token-refresh", token: oldToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
	}, false)

	t.Run("refreshed", func(t *testing.T) {
		origIat := time.Now().Add(-time.Hour).Unix()
		token, err := echoapi.GenerateToken(app.conf, echoapi.NewClaims(app.conf, acc, origIat))
		require.NoError(t, err)

		req, rec := newAuthRequest(http.MethodPost, "/v1/auth/token-refresh", token)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp echoapi.LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, acc.ID, resp.SchoolID)

		claims := new(echoapi.Claims)
		_, err = jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(app.conf.SecretKey), nil
		})
		require.NoError(t, err)
		assert.Equal(t, origIat, claims.OrigIssuedAt)
	})
}

func Test_accountApi_passwordReset(t *testing.T) {
	app := setup(t)
	emailsvc.SentMessages() // drop messages of other tests

	acc := app.createAccount(t, "hanbit", false, true)
	app.createAccount(t, "nuri", false, false)

	success := marchallObj(t, echoapi.SuccessResponse{
		Success: "If the school is associated with an active account on this system, " +
			"an email will arrive in its inbox shortly with instructions to reset the password.",
	})
	app.run(t, []httpTest{
		{
			name: "login required", method: http.MethodPost, path: "/v1/auth/password-reset", body: []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"login": "this field is required"}),
		},
		{
			name: "unknown school", method: http.MethodPost, path: "/v1/auth/password-reset",
			body: marchallObj(t, echoapi.PasswordResetRequest{Login: "lol"}), wantCode: http.StatusOK, wantData: success,
		},
		{
			name: "deactivated", method: http.MethodPost, path: "/v1/auth/password-reset",
			body: marchallObj(t, echoapi.PasswordResetRequest{Login: "nuri"}), wantCode: http.StatusOK, wantData: success,
		},
	}, true)
	assert.Empty(t, emailsvc.SentMessages())

	req, rec := newRequest(http.MethodPost, "/v1/auth/password-reset", marchallObj(t, echoapi.PasswordResetRequest{Login: "HANBIT"}))
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	msgs := emailsvc.SentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, acc.Email, msgs[0].To[0].Address)
	data := msgs[0].TemplateData.(map[string]string)
	uid, token := data["UID"], data["Token"]
	assert.Regexp(t, regexp.MustCompile(`^[A-Z2-7]+-[A-Za-z0-9_-]+$`), token)

	const newPwd = "Solar-Panel42"
	app.run(t, []httpTest{
		{
			name: "invalid token", method: http.MethodPost, path: "/v1/auth/password-reset-confirm",
			body:     marchallObj(t, account.ResetPassword{UID: uid, Token: "lol", Password: newPwd, PasswordConfirm: newPwd}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"token": "invalid token"}),
		},
		{
			name: "unknown uid", method: http.MethodPost, path: "/v1/auth/password-reset-confirm",
			body:     marchallObj(t, account.ResetPassword{UID: "bG9s", Token: token, Password: newPwd, PasswordConfirm: newPwd}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"token": "invalid token"}),
		},
		{
			name: "weak password", method: http.MethodPost, path: "/v1/auth/password-reset-confirm",
			body:     marchallObj(t, account.ResetPassword{UID: uid, Token: token, Password: "12345678", PasswordConfirm: "12345678"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"password": "password cannot be entirely numeric"}),
		},
		{
			name: "reset", method: http.MethodPost, path: "/v1/auth/password-reset-confirm",
			body:     marchallObj(t, account.ResetPassword{UID: uid, Token: token, Password: newPwd, PasswordConfirm: newPwd}),
			wantCode: http.StatusOK, wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Password has been reset with the new password."}),
		},
		{
			name: "token used", method: http.MethodPost, path: "/v1/auth/password-reset-confirm",
			body:     marchallObj(t, account.ResetPassword{UID: uid, Token: token, Password: newPwd, PasswordConfirm: newPwd}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"token": "invalid token"}),
		},
	}, true)

	req, rec = newRequest(http.MethodPost, "/v1/auth/login", marchallObj(t, echoapi.LoginRequest{School: "hanbit", Password: newPwd}))
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
