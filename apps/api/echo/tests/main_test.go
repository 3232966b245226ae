package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	echoapi "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/class"
	"github.com/trezcool/shule/core/teacher"
	"github.com/trezcool/shule/core/timetable"
	"github.com/trezcool/shule/tests"
)

// testApp is a server backed by a fresh in-memory store.
type testApp struct {
	srv   *echoapi.Server
	store *testutil.Store
	cal   core.Calendar
	mgr   *timetable.Manager
	reg   *prometheus.Registry
}

func setup(t *testing.T) *testApp {
	t.Helper()

	store := testutil.NewStore()
	cal := testutil.Calendar()
	logger := testutil.NopLogger()

	validate := validator.New()
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	core.InitValidators(validate, translator)

	mgr := timetable.NewManager(store.DB, store.Timetables, store.Teachers, nil, cal, logger)
	reg := prometheus.NewRegistry()

	srv := echoapi.NewServer(echoapi.ServerDeps{
		Conf: &core.Config{
			AppName:  "Shule",
			Debug:    false,
			TestMode: true,
			Server:   core.ServerConfig{DisableReqLogs: true},
		},
		Logger:     logger,
		Registerer: reg,
		Validate:   validate,
		Translator: translator,
		Timetables: mgr,
		Teachers:   teacher.NewService(store.DB, store.Teachers, store.Timetables, cal),
		Classes:    class.NewService(store.DB, store.Classes, mgr),
	})
	t.Cleanup(func() { _ = srv.Close() })

	return &testApp{srv: srv, store: store, cal: cal, mgr: mgr, reg: reg}
}

func (app *testApp) do(method, path string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newRequest(method, path, data...)
	app.srv.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = make([]interface{}, 0)
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
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
	return false, nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
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

func TestHome(t *testing.T) {
	app := setup(t)

	rec := app.do(http.MethodGet, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; want %v", rec.Code, http.StatusOK)
	}
	if got, want := rec.Body.String(), "Welcome to Shule API!"; got != want {
		t.Errorf("body = %q; want %q", got, want)
	}
}
