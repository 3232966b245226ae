package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/class"
	"github.com/trezcool/shule/core/teacher"
	"github.com/trezcool/shule/core/timetable"
	"github.com/trezcool/shule/tests"
)

func TestClassCreate(t *testing.T) {
	app := setup(t)

	rec := app.do(http.MethodPost, "/api/classes", []byte(`{"name": "  7A "}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var cls class.Class
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cls))
	assert.NotEmpty(t, cls.ID)
	assert.Equal(t, "7A", cls.Name)

	// the class comes with an empty timetable
	rec = app.do(http.MethodGet, "/api/timetables/"+cls.ID)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, timetable.New(cls.ID, app.cal))}, rec)

	tests := []httpTest{
		{
			name:     "empty payload",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
		{
			name:     "name taken",
			body:     []byte(`{"name": "7a"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "a class with this name already exists"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(http.MethodPost, "/api/classes", tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestClassQueryAndRetrieve(t *testing.T) {
	app := setup(t)
	now := time.Now()
	c7a := testutil.CreateClass(t, app.store, app.cal, "7A", now)
	c7b := testutil.CreateClass(t, app.store, app.cal, "7B", now.Add(time.Minute))
	c8a := testutil.CreateClass(t, app.store, app.cal, "8A", now.Add(2*time.Minute))

	tests := []httpTest{
		{
			name:     "list",
			path:     "/api/classes",
			wantCode: http.StatusOK,
			wantData: marchallList(t, c7a, c7b, c8a),
		},
		{
			name:     "list ordered",
			path:     "/api/classes?ordering=-name",
			wantCode: http.StatusOK,
			wantData: marchallList(t, c8a, c7b, c7a),
		},
		{
			name:     "search",
			path:     "/api/classes?search=7",
			wantCode: http.StatusOK,
			wantData: marchallList(t, c7a, c7b),
		},
		{
			name:     "retrieve",
			path:     "/api/classes/" + c7b.ID,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, c7b),
		},
		{
			name:     "retrieve unknown",
			path:     "/api/classes/unknown",
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "class not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(http.MethodGet, tt.path)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestClassDelete(t *testing.T) {
	app := setup(t)
	ctx := context.Background()
	tchr := testutil.CreateTeacher(t, app.store.Teachers, "T", "", teacher.Availability{core.Monday: {1}})
	cls := testutil.CreateClass(t, app.store, app.cal, "7A")

	_, err := app.mgr.AssignTeacher(ctx, cls.ID, timetable.AssignSlot{TeacherID: tchr.ID, Day: core.Monday, Period: 1, Subject: "Math"})
	require.NoError(t, err)

	tests := []httpTest{
		{
			name:     "delete",
			method:   http.MethodDelete,
			path:     "/api/classes/" + cls.ID,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "class is gone",
			method:   http.MethodGet,
			path:     "/api/classes/" + cls.ID,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "class not found"}),
		},
		{
			name:     "timetable is gone",
			method:   http.MethodGet,
			path:     "/api/timetables/" + cls.ID,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "timetable not found"}),
		},
		{
			name:     "teacher is released",
			method:   http.MethodGet,
			path:     "/api/teachers/" + tchr.ID + "/schedule",
			wantCode: http.StatusOK,
			wantData: marchallList(t),
		},
		{
			name:     "delete again",
			method:   http.MethodDelete,
			path:     "/api/classes/" + cls.ID,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "class not found"}),
		},
	}
	for _, tt := range tests {
		rec := app.do(tt.method, tt.path)
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, rec)
		})
	}
}
