package inmemdb

import (
	"context"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/timetable"
)

type timetableRepository struct {
	db *DB
}

var _ timetable.Repository = (*timetableRepository)(nil)

func NewTimetableRepository(db *DB) timetable.Repository {
	return &timetableRepository{db: db}
}

func (repo *timetableRepository) CreateTimetable(ctx context.Context, tt timetable.Timetable) error {
	defer repo.db.lock(ctx)()

	for _, e := range tt.Entries() {
		repo.db.slot[slotKey{e.ClassID, e.Day, e.Period}] = e
	}
	return nil
}

func (repo *timetableRepository) GetByClassID(ctx context.Context, classID string) (timetable.Timetable, error) {
	defer repo.db.lock(ctx)()

	if _, ok := repo.db.class[classID]; !ok {
		return timetable.Timetable{}, timetable.ErrNotFound
	}
	var entries []timetable.Entry
	for k, e := range repo.db.slot {
		if k.classID == classID {
			entries = append(entries, e)
		}
	}
	return timetable.Assemble(classID, entries), nil
}

func (repo *timetableRepository) findBooking(teacherID string, day core.Weekday, period int) *timetable.Entry {
	for _, e := range repo.db.slot {
		if e.TeacherID == teacherID && e.Day == day && e.Period == period {
			booking := e
			return &booking
		}
	}
	return nil
}

func (repo *timetableRepository) FindConflict(ctx context.Context, teacherID string, day core.Weekday, period int) (*timetable.Entry, error) {
	defer repo.db.lock(ctx)()
	return repo.findBooking(teacherID, day, period), nil
}

func (repo *timetableRepository) AssignSlot(ctx context.Context, e timetable.Entry) error {
	defer repo.db.lock(ctx)()

	if _, ok := repo.db.class[e.ClassID]; !ok {
		return timetable.ErrNotFound
	}
	key := slotKey{e.ClassID, e.Day, e.Period}
	// same guard as the (teacher, day, period) unique index of the SQL store
	if booking := repo.findBooking(e.TeacherID, e.Day, e.Period); booking != nil && booking.ClassID != e.ClassID {
		return &timetable.ConflictError{Booking: *booking}
	}
	repo.db.slot[key] = e
	return nil
}

func (repo *timetableRepository) ClearSlot(ctx context.Context, classID string, day core.Weekday, period int) error {
	defer repo.db.lock(ctx)()

	key := slotKey{classID, day, period}
	e, ok := repo.db.slot[key]
	if !ok || e.TeacherID == "" {
		return timetable.ErrSlotNotAssigned
	}
	e.TeacherID, e.Subject = "", ""
	repo.db.slot[key] = e
	return nil
}

func (repo *timetableRepository) DeleteTimetable(ctx context.Context, classID string) error {
	defer repo.db.lock(ctx)()

	for k := range repo.db.slot {
		if k.classID == classID {
			delete(repo.db.slot, k)
		}
	}
	return nil
}

func (repo *timetableRepository) QueryBookings(ctx context.Context, teacherID string) ([]timetable.Entry, error) {
	defer repo.db.lock(ctx)()

	entries := make([]timetable.Entry, 0)
	for _, e := range repo.db.slot {
		if e.TeacherID == teacherID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (repo *timetableRepository) CountBookings(ctx context.Context, teacherID string) (int, error) {
	entries, err := repo.QueryBookings(ctx, teacherID)
	return len(entries), err
}
