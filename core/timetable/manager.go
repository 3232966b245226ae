package timetable

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/teacher"
)

var (
	// errors
	ErrNotFound           = errors.New("timetable not found")
	ErrInvalidSlot        = core.ErrInvalidSlot
	ErrSlotNotAssigned    = errors.New("no teacher assigned to this slot")
	ErrTeacherUnavailable = errors.New("teacher unavailable")
	ErrTeacherAssigned    = errors.New("teacher already assigned")
)

type Repository interface {
	CreateTimetable(ctx context.Context, tt Timetable) error
	GetByClassID(ctx context.Context, classID string) (Timetable, error)
	// FindConflict returns the entry booking `teacherID` at (day, period) in any class, nil when there is none.
	FindConflict(ctx context.Context, teacherID string, day core.Weekday, period int) (*Entry, error)
	// AssignSlot writes teacher & subject into the entry's slot in a single conditional write.
	// It returns a *ConflictError when the teacher is already booked at the same time in another slot.
	AssignSlot(ctx context.Context, e Entry) error
	// ClearSlot removes teacher & subject from a slot in a single conditional write.
	// It returns ErrSlotNotAssigned when the slot holds no teacher.
	ClearSlot(ctx context.Context, classID string, day core.Weekday, period int) error
	DeleteTimetable(ctx context.Context, classID string) error
	QueryBookings(ctx context.Context, teacherID string) ([]Entry, error)
	CountBookings(ctx context.Context, teacherID string) (int, error)
}

// Manager gates every change to class timetables through teacher availability and conflict checks.
type Manager struct {
	tx       core.Transactor
	repo     Repository
	teachers teacher.Repository
	cache    Cache
	cal      core.Calendar
	logger   core.Logger
}

func NewManager(
	tx core.Transactor,
	repo Repository,
	teachers teacher.Repository,
	cache Cache,
	cal core.Calendar,
	logger core.Logger,
) *Manager {
	vala.BeginValidation().Validate(
		vala.IsNotNil(tx, "tx"),
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(teachers, "teachers"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	if cache == nil {
		cache = NopCache()
	}
	return &Manager{tx: tx, repo: repo, teachers: teachers, cache: cache, cal: cal, logger: logger}
}

func (m *Manager) Calendar() core.Calendar {
	return m.cal
}

// CreateTimetable stores the empty timetable of a new class.
func (m *Manager) CreateTimetable(ctx context.Context, classID string) (Timetable, error) {
	tt := New(classID, m.cal)
	if err := m.repo.CreateTimetable(ctx, tt); err != nil {
		return Timetable{}, err
	}
	return tt, nil
}

// DeleteTimetable removes the timetable of a class being deleted.
func (m *Manager) DeleteTimetable(ctx context.Context, classID string) error {
	return m.repo.DeleteTimetable(ctx, classID)
}

// Forget drops the cached timetable of a class.
func (m *Manager) Forget(ctx context.Context, classID string) {
	if err := m.cache.Delete(ctx, classID); err != nil {
		m.logger.Warn("timetable cache delete failed", errors.Wrap(err, classID))
	}
}

func (m *Manager) GetTimetable(ctx context.Context, classID string) (Timetable, error) {
	tt, ok, err := m.cache.Get(ctx, classID)
	if err != nil {
		m.logger.Warn("timetable cache get failed", errors.Wrap(err, classID))
	}
	if ok {
		return tt, nil
	}

	// the version must be read before the store
	version, verErr := m.cache.Version(ctx, classID)
	if verErr != nil {
		m.logger.Warn("timetable cache version failed", errors.Wrap(verErr, classID))
	}

	if tt, err = m.repo.GetByClassID(ctx, classID); err != nil {
		return Timetable{}, err
	}
	if verErr == nil {
		if err := m.cache.Set(ctx, tt, version); err != nil {
			m.logger.Warn("timetable cache set failed", errors.Wrap(err, classID))
		}
	}
	return tt, nil
}

// AssignTeacher puts a teacher in a class slot.
// It fails with ErrTeacherUnavailable when the teacher does not teach at that time, and with
// a *ConflictError when the teacher is already booked at the same day & period in any class.
func (m *Manager) AssignTeacher(ctx context.Context, classID string, as AssignSlot) (Timetable, error) {
	return m.assign(ctx, classID, as, true)
}

// UpdateSlot is AssignTeacher, except that a booking of the teacher in the same class is not a conflict.
func (m *Manager) UpdateSlot(ctx context.Context, classID string, as AssignSlot) (Timetable, error) {
	return m.assign(ctx, classID, as, false)
}

func (m *Manager) assign(ctx context.Context, classID string, as AssignSlot, strict bool) (Timetable, error) {
	if err := m.cal.CheckSlot(as.Day, as.Period); err != nil {
		return Timetable{}, err
	}

	err := m.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := m.repo.GetByClassID(ctx, classID); err != nil {
			return err
		}
		tchr, err := m.teachers.GetTeacherForUpdate(ctx, as.TeacherID)
		if err != nil {
			return err
		}
		if !tchr.IsAvailable(as.Day, as.Period) {
			return ErrTeacherUnavailable
		}

		booking, err := m.repo.FindConflict(ctx, tchr.ID, as.Day, as.Period)
		if err != nil {
			return errors.Wrap(err, "finding conflict")
		}
		if booking != nil && (strict || booking.ClassID != classID) {
			return &ConflictError{Booking: *booking}
		}

		return m.repo.AssignSlot(ctx, Entry{
			ClassID:   classID,
			Day:       as.Day,
			Period:    as.Period,
			TeacherID: tchr.ID,
			Subject:   as.Subject,
		})
	})
	if err != nil {
		return Timetable{}, err
	}

	m.Forget(ctx, classID)
	return m.GetTimetable(ctx, classID)
}

// DeleteSlot clears a class slot and gives the period back to the teacher's availability.
// It fails with ErrSlotNotAssigned when no teacher holds the slot.
func (m *Manager) DeleteSlot(ctx context.Context, classID string, day core.Weekday, period int) (Timetable, error) {
	if err := m.cal.CheckSlot(day, period); err != nil {
		return Timetable{}, err
	}

	err := m.tx.WithinTx(ctx, func(ctx context.Context) error {
		tt, err := m.repo.GetByClassID(ctx, classID)
		if err != nil {
			return err
		}
		slot, ok := tt.Slot(day, period)
		if !ok || !slot.IsAssigned() {
			return ErrSlotNotAssigned
		}

		tchr, err := m.teachers.GetTeacherForUpdate(ctx, slot.TeacherID)
		switch {
		case err == nil:
			if tchr.Availability == nil {
				tchr.Availability = make(teacher.Availability)
			}
			if tchr.Availability.Add(day, period) {
				tchr.UpdatedAt = time.Now().UTC()
				if _, err := m.teachers.UpdateTeacher(ctx, tchr); err != nil {
					return errors.Wrap(err, "restoring availability")
				}
			}
		case errors.Cause(err) != teacher.ErrNotFound:
			return err
		}

		return m.repo.ClearSlot(ctx, classID, day, period)
	})
	if err != nil {
		return Timetable{}, err
	}

	m.Forget(ctx, classID)
	return m.GetTimetable(ctx, classID)
}

// TeacherSchedule lists the slots a teacher is booked in, in school week order.
func (m *Manager) TeacherSchedule(ctx context.Context, teacherID string) ([]Entry, error) {
	if _, err := m.teachers.GetTeacher(ctx, teacherID); err != nil {
		return nil, err
	}
	entries, err := m.repo.QueryBookings(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	SortEntries(entries, m.cal)
	return entries, nil
}

// FreePeriods is the teacher's availability minus the periods already booked.
func (m *Manager) FreePeriods(ctx context.Context, teacherID string) (teacher.Availability, error) {
	tchr, err := m.teachers.GetTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	entries, err := m.repo.QueryBookings(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	booked := make(teacher.Availability)
	for _, e := range entries {
		booked.Add(e.Day, e.Period)
	}
	free := make(teacher.Availability)
	for _, day := range m.cal.Weekdays {
		periods := make([]int, 0)
		for _, p := range tchr.Availability[day] {
			if !booked.Has(day, p) {
				periods = append(periods, p)
			}
		}
		free[day] = periods
	}
	return free, nil
}
