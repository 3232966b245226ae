package inmemdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/timetable"
)

func TestTimetableRepository_ClearSlot(t *testing.T) {
	ctx := context.Background()
	repo := NewTimetableRepository(Open())
	cal := core.Calendar{Weekdays: []core.Weekday{core.Monday}, PeriodsPerDay: 2}

	assert.NoError(t, repo.CreateTimetable(ctx, timetable.New("c1", cal)))
	assert.NoError(t, repo.AssignSlot(ctx, timetable.Entry{ClassID: "c1", Day: core.Monday, Period: 1, TeacherID: "t1", Subject: "Maths"}))

	tests := []struct {
		name    string
		classID string
		period  int
		wantErr error
	}{
		{"assigned", "c1", 1, nil},
		{"already cleared", "c1", 1, timetable.ErrSlotNotAssigned},
		{"never assigned", "c1", 2, timetable.ErrSlotNotAssigned},
		{"unknown class", "c2", 1, timetable.ErrSlotNotAssigned},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantErr, repo.ClearSlot(ctx, tc.classID, core.Monday, tc.period))
		})
	}

	n, err := repo.CountBookings(ctx, "t1")
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}
