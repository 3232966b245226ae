package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/class"
	"github.com/trezcool/shule/core/teacher"
	"github.com/trezcool/shule/core/timetable"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
)

// Store bundles the repositories of a fresh in-memory database.
type Store struct {
	DB         *inmemdb.DB
	Teachers   teacher.Repository
	Classes    class.Repository
	Timetables timetable.Repository
}

func NewStore() *Store {
	db := inmemdb.Open()
	return &Store{
		DB:         db,
		Teachers:   inmemdb.NewTeacherRepository(db),
		Classes:    inmemdb.NewClassRepository(db),
		Timetables: inmemdb.NewTimetableRepository(db),
	}
}

// Calendar is a Monday to Friday week of 8 periods.
func Calendar() core.Calendar {
	return core.Calendar{
		Weekdays:      []core.Weekday{core.Monday, core.Tuesday, core.Wednesday, core.Thursday, core.Friday},
		PeriodsPerDay: 8,
	}
}

type nopLogger struct{}

func NopLogger() core.Logger { return &nopLogger{} }

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func CreateTeacher(
	t *testing.T,
	repo teacher.Repository,
	name, email string,
	availability teacher.Availability,
	createdAt ...time.Time,
) teacher.Teacher {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if availability == nil {
		availability = make(teacher.Availability)
	}
	tchr, err := repo.CreateTeacher(context.Background(), teacher.Teacher{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Availability: availability,
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	})
	if err != nil {
		t.Fatalf("createTeacher() failed: %v", err)
	}
	return tchr
}

// CreateClass stores a class and its empty timetable.
func CreateClass(t *testing.T, store *Store, cal core.Calendar, name string, createdAt ...time.Time) class.Class {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	ctx := context.Background()
	cls, err := store.Classes.CreateClass(ctx, class.Class{ID: uuid.NewString(), Name: name, CreatedAt: tstamp})
	if err != nil {
		t.Fatalf("createClass() failed: %v", err)
	}
	if err = store.Timetables.CreateTimetable(ctx, timetable.New(cls.ID, cal)); err != nil {
		t.Fatalf("createClass() failed: %v", err)
	}
	return cls
}
