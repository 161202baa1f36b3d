package echoapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	echoapi "github.com/carbonschool/dashboard/apps/api/echo"
	"github.com/carbonschool/dashboard/core"
	"github.com/carbonschool/dashboard/core/account"
	"github.com/carbonschool/dashboard/core/dashboard"
	"github.com/carbonschool/dashboard/core/energy"
	"github.com/carbonschool/dashboard/core/notice"
	"github.com/carbonschool/dashboard/core/school"
	emailsvc "github.com/carbonschool/dashboard/services/email"
	"github.com/carbonschool/dashboard/services/feed"
	logsvc "github.com/carbonschool/dashboard/services/logger"
	sqlxrepos "github.com/carbonschool/dashboard/storage/database/sqlx"
	testutil "github.com/carbonschool/dashboard/tests"
)

const pwd = "Green-Campus9"

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errInvalidToken = httpErr{Error: "invalid or expired jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "Not Found"}
)

type testApp struct {
	server    *echoapi.Server
	conf      *core.Config
	accRepo   account.Repository
	schoolSvc *school.Service
	energyRep energy.Repository
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func setup(t *testing.T) testApp {
	t.Helper()
	conf := testutil.NewConfig(t)
	conf.Debug = false

	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	account.LoadCommonPasswords(logger)

	// set up DB & repos
	db := testutil.PrepareDB(t)
	accRepo := sqlxrepos.NewAccountRepository(db)
	energyRepo := sqlxrepos.NewEnergyRepository(db)

	// set up services
	broker := feed.NewBroker()
	t.Cleanup(broker.Close)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	schoolSvc := school.NewService(sqlxrepos.NewSchoolRepository(db), broker, validate)

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		AccountSvc:     account.NewService(conf, accRepo, mailSvc, validate),
		SchoolSvc:      schoolSvc,
		DashboardSvc:   dashboard.NewService(conf, schoolSvc, logger),
		EnergySvc:      energy.NewService(conf, energyRepo, schoolSvc, validate),
		Notices:        notice.NewRotatorFromConfig(conf),
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	t.Cleanup(func() { _ = server.Close() })

	return testApp{
		server:    server,
		conf:      conf,
		accRepo:   accRepo,
		schoolSvc: schoolSvc,
		energyRep: energyRepo,
	}
}

func (app testApp) createAccount(t *testing.T, id string, isAdmin, isActive bool) account.Account {
	t.Helper()
	return testutil.CreateAccount(t, app.accRepo, id, id+" school", id+"@"+app.conf.LoginDomain, pwd, isAdmin, isActive)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, conf *core.Config, acc account.Account) string {
	t.Helper()
	token, err := echoapi.GenerateToken(conf, echoapi.NewClaims(conf, acc))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	if _, ok := j1.([]interface{}); !ok {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCode(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	checkCode(t, tt, rec)
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func (app testApp) run(t *testing.T, tests []httpTest, checkData bool) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			if checkData {
				checkCodeAndData(t, tt, rec)
			} else {
				checkCode(t, tt, rec)
			}
		})
	}
}
