package sqlxrepos

import (
	"context"
	stderrors "errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/class"
	"github.com/trezcool/shule/core/teacher"
	"github.com/trezcool/shule/core/timetable"
	"github.com/trezcool/shule/storage/database"
	testutil "github.com/trezcool/shule/tests"
)

// openTestDB connects to the postgres server of the TEST env config.
func openTestDB(t *testing.T) *sqlx.DB {
	if os.Getenv("SHULE_PG_TESTS") == "" {
		t.Skip("set SHULE_PG_TESTS=1 to run against postgres")
	}
	conf := core.NewConfig()
	if err := database.CreateIfNotExist(conf); err != nil {
		t.Fatal(err)
	}
	db, err := database.Open(conf)
	if err != nil {
		t.Fatal(err)
	}
	if err = database.Migrate(db, "up"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "postgres")
}

func TestTimetableRepository_AssignSlot(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	cal := core.Calendar{Weekdays: []core.Weekday{core.Monday}, PeriodsPerDay: 3}

	tx := NewTransactor(db)
	teachers := NewTeacherRepository(db)
	classes := NewClassRepository(db)
	repo := NewTimetableRepository(db)

	now := time.Now().UTC()
	tchr, err := teachers.CreateTeacher(ctx, teacher.Teacher{
		ID:           uuid.NewString(),
		Name:         "Jane Doe",
		Availability: teacher.Availability{core.Monday: {1, 2}},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatal(err)
	}

	var classIDs []string
	for _, name := range []string{"PG " + uuid.NewString(), "PG " + uuid.NewString()} {
		cls, err := classes.CreateClass(ctx, class.Class{ID: uuid.NewString(), Name: name, CreatedAt: now})
		if err != nil {
			t.Fatal(err)
		}
		if err = repo.CreateTimetable(ctx, timetable.New(cls.ID, cal)); err != nil {
			t.Fatal(err)
		}
		classIDs = append(classIDs, cls.ID)
	}
	t.Cleanup(func() {
		for _, id := range classIDs {
			_ = classes.DeleteClass(ctx, id)
		}
		_ = teachers.DeleteTeacher(ctx, tchr.ID)
	})

	booking := timetable.Entry{ClassID: classIDs[0], Day: core.Monday, Period: 1, TeacherID: tchr.ID, Subject: "Maths"}
	assert.NoError(t, repo.AssignSlot(ctx, booking))

	conflict, err := repo.FindConflict(ctx, tchr.ID, core.Monday, 1)
	assert.NoError(t, err)
	assert.Equal(t, &booking, conflict)

	// the unique index rejects a second booking, even inside a transaction
	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		return repo.AssignSlot(ctx, timetable.Entry{ClassID: classIDs[1], Day: core.Monday, Period: 1, TeacherID: tchr.ID, Subject: "Maths"})
	})
	var conflictErr *timetable.ConflictError
	assert.True(t, stderrors.As(err, &conflictErr))

	n, err := repo.CountBookings(ctx, tchr.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.NoError(t, repo.ClearSlot(ctx, classIDs[0], core.Monday, 1))
	assert.Equal(t, timetable.ErrSlotNotAssigned, errors.Cause(repo.ClearSlot(ctx, classIDs[0], core.Monday, 1)))
	conflict, err = repo.FindConflict(ctx, tchr.ID, core.Monday, 1)
	assert.NoError(t, err)
	assert.Nil(t, conflict)

	tt, err := repo.GetByClassID(ctx, classIDs[0])
	assert.NoError(t, err)
	assert.Equal(t, timetable.New(classIDs[0], cal), tt)

	_, err = repo.GetByClassID(ctx, uuid.NewString())
	assert.Equal(t, timetable.ErrNotFound, errors.Cause(err))
}

type pgFixture struct {
	mgr      *timetable.Manager
	teachers *teacher.Service
	tchr     teacher.Teacher
	classID  string
}

func newPGFixture(t *testing.T, db *sqlx.DB) pgFixture {
	ctx := context.Background()
	cal := core.Calendar{Weekdays: []core.Weekday{core.Monday}, PeriodsPerDay: 3}
	tx := NewTransactor(db)
	teacherRepo := NewTeacherRepository(db)
	classes := NewClassRepository(db)
	repo := NewTimetableRepository(db)

	now := time.Now().UTC()
	tchr, err := teacherRepo.CreateTeacher(ctx, teacher.Teacher{
		ID:           uuid.NewString(),
		Name:         "Jane Doe",
		Availability: teacher.Availability{core.Monday: {1}},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatal(err)
	}
	cls, err := classes.CreateClass(ctx, class.Class{ID: uuid.NewString(), Name: "PG " + uuid.NewString(), CreatedAt: now})
	if err != nil {
		t.Fatal(err)
	}
	if err = repo.CreateTimetable(ctx, timetable.New(cls.ID, cal)); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = classes.DeleteClass(ctx, cls.ID)
		_ = teacherRepo.DeleteTeacher(ctx, tchr.ID)
	})

	return pgFixture{
		mgr:      timetable.NewManager(tx, repo, teacherRepo, nil, cal, testutil.NopLogger()),
		teachers: teacher.NewService(tx, teacherRepo, repo, cal),
		tchr:     tchr,
		classID:  cls.ID,
	}
}

func (fx pgFixture) assign(t *testing.T) {
	_, err := fx.mgr.AssignTeacher(context.Background(), fx.classID, timetable.AssignSlot{
		TeacherID: fx.tchr.ID,
		Day:       core.Monday,
		Period:    1,
		Subject:   "Maths",
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestManager_ConcurrentDeleteSlot(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	fx := newPGFixture(t, db)
	fx.assign(t)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.mgr.DeleteSlot(ctx, fx.classID, core.Monday, 1)
		}(i)
	}
	wg.Wait()

	var successes, unassigned int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Cause(err) == timetable.ErrSlotNotAssigned:
			unassigned++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, unassigned)
}

func TestService_SetAvailabilityDuringDeleteSlot(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		fx := newPGFixture(t, db)
		fx.assign(t)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := fx.mgr.DeleteSlot(ctx, fx.classID, core.Monday, 1)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := fx.teachers.SetAvailability(ctx, fx.tchr.ID, teacher.UpdateAvailability{
				Availability: teacher.Availability{core.Monday: {2}},
			})
			assert.NoError(t, err)
		}()
		wg.Wait()

		// whatever the order, the declared period 2 survives
		tchr, err := fx.teachers.GetByID(ctx, fx.tchr.ID)
		assert.NoError(t, err)
		assert.Contains(t, tchr.Availability[core.Monday], 2)
	}
}
