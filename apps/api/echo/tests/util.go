package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/studytrack/studytrack/apps/api/echo"
	"github.com/studytrack/studytrack/apps/shared"
	"github.com/studytrack/studytrack/assets"
	"github.com/studytrack/studytrack/core"
	emailsvc "github.com/studytrack/studytrack/services/email"
	"github.com/studytrack/studytrack/tests"
)

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errNotFound     = httpErr{Error: "not found"}
)

type testApp struct {
	Server
	cms  *testutil.CMS
	conf *core.Config
	svcs *shared.Services
}

// newTestApp starts a fake CMS and an API server talking to it.
// opts may adjust the config before anything is built.
func newTestApp(t *testing.T, opts ...func(conf *core.Config)) *testApp {
	conf := core.NewTestConfig()
	cms := testutil.NewCMS(t, conf.CMS.JWTSecret)
	conf.CMS = cms.Config()
	conf.CMS.RetryCount = 0
	for _, opt := range opts {
		opt(conf)
	}

	logger := shared.NewLogger(log.New(ioutil.Discard, "", 0), conf)

	tmpls, err := core.ParseEmailTemplates(assets.EmailTemplates(), conf, true)
	require.NoError(t, err)
	emailsvc.ClearSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock(tmpls, conf)

	svcs := shared.NewServices(conf, logger, mailSvc)
	validate, translator := shared.NewValidator()

	srv := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		AccountSvc:     svcs.Account,
		CatalogSvc:     svcs.Catalog,
		StudentSvc:     svcs.Student,
		DashboardSvc:   svcs.Dashboard,
		Resolver:       svcs.Resolver,
		CMS:            svcs.CMS,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	return &testApp{Server: srv, cms: cms, conf: conf, svcs: svcs}
}

// signedUpStudent seeds an account with a student profile and returns the user id, the student id and a session token.
func (app *testApp) signedUpStudent(username string) (int, int, string) {
	userID := app.cms.AddUser(username, username+"@test.cd", "Str0ngPass!")
	studentID := app.cms.AddStudent(userID, "Student "+username, username+"@test.cd", "UPSC")
	return userID, studentID, app.cms.Token(userID)
}

func (app *testApp) do(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	app.ServeHTTP(rec, req)
	return rec
}

func withToken(token string) context.Context {
	return core.WithAuthToken(context.Background(), token)
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

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj(): %v", err)
	}
	return data
}

func unmarshalBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("unmarshalBody(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.do(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func sessionCookie(t *testing.T, app *testApp, rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == app.conf.Session.CookieName {
			return c
		}
	}
	assert.Fail(t, "session cookie not set")
	return nil
}
