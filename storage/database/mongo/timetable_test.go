package mongorepos

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/teacher"
	"github.com/trezcool/shule/core/timetable"
)

// openTestDB connects to the mongodb server of the TEST env config.
func openTestDB(t *testing.T) *mongo.Database {
	if os.Getenv("SHULE_MONGO_TESTS") == "" {
		t.Skip("set SHULE_MONGO_TESTS=1 to run against mongodb")
	}
	ctx := context.Background()
	client, db, err := Open(ctx, core.NewConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err = EnsureIndexes(ctx, db); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = client.Disconnect(ctx) })
	return db
}

func TestTimetableRepository_ClearSlot(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	cal := core.Calendar{Weekdays: []core.Weekday{core.Monday}, PeriodsPerDay: 2}
	repo := NewTimetableRepository(db)

	classID := uuid.NewString()
	assert.NoError(t, repo.CreateTimetable(ctx, timetable.New(classID, cal)))
	t.Cleanup(func() { _ = repo.DeleteTimetable(ctx, classID) })

	assert.NoError(t, repo.AssignSlot(ctx, timetable.Entry{
		ClassID:   classID,
		Day:       core.Monday,
		Period:    1,
		TeacherID: uuid.NewString(),
		Subject:   "Maths",
	}))

	tests := []struct {
		name    string
		period  int
		wantErr error
	}{
		{"assigned", 1, nil},
		{"already cleared", 1, timetable.ErrSlotNotAssigned},
		{"never assigned", 2, timetable.ErrSlotNotAssigned},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := repo.ClearSlot(ctx, classID, core.Monday, tc.period)
			assert.Equal(t, tc.wantErr, errors.Cause(err))
		})
	}
}

func TestTeacherRepository_GetTeacherForUpdate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewTeacherRepository(db)

	now := time.Now().UTC().Truncate(time.Millisecond)
	tchr, err := repo.CreateTeacher(ctx, teacher.Teacher{
		ID:           uuid.NewString(),
		Name:         "Jane Doe",
		Availability: teacher.Availability{core.Monday: {1}},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = repo.DeleteTeacher(ctx, tchr.ID) })

	for rev := 1; rev <= 2; rev++ {
		got, err := repo.GetTeacherForUpdate(ctx, tchr.ID)
		assert.NoError(t, err)
		assert.Equal(t, tchr, got)

		var raw bson.M
		assert.NoError(t, db.Collection(teacherCollection).FindOne(ctx, bson.M{"_id": tchr.ID}).Decode(&raw))
		assert.EqualValues(t, rev, raw["revision"])
	}

	_, err = repo.GetTeacherForUpdate(ctx, uuid.NewString())
	assert.Equal(t, teacher.ErrNotFound, errors.Cause(err))
}
