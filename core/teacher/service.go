package teacher

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrNotFound    = errors.New("teacher not found")
	ErrEmailExists = errors.New("a teacher with this email already exists")
	ErrHasBookings = errors.New("teacher is still assigned to timetable slots")
)

type (
	Repository interface {
		// CheckEmailUniqueness returns ErrEmailExists when another teacher than `excludeID` uses `email`.
		CheckEmailUniqueness(ctx context.Context, email, excludeID string) error
		CreateTeacher(ctx context.Context, tchr Teacher) (Teacher, error)
		GetTeacher(ctx context.Context, id string) (Teacher, error)
		// GetTeacherForUpdate is GetTeacher that also locks the teacher until the transaction ends.
		GetTeacherForUpdate(ctx context.Context, id string) (Teacher, error)
		// QueryTeachers does a case-insensitive match of QueryFilter.Search on Teacher.Name or Teacher.Email.
		QueryTeachers(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Teacher, error)
		UpdateTeacher(ctx context.Context, tchr Teacher) (Teacher, error)
		DeleteTeacher(ctx context.Context, id string) error
	}

	// BookingCounter counts the timetable slots a teacher is assigned to.
	BookingCounter interface {
		CountBookings(ctx context.Context, teacherID string) (int, error)
	}

	Service struct {
		tx       core.Transactor
		repo     Repository
		bookings BookingCounter
		cal      core.Calendar
	}
)

func NewService(tx core.Transactor, repo Repository, bookings BookingCounter, cal core.Calendar) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(tx, "tx"),
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(bookings, "bookings"),
	).CheckAndPanic()

	return &Service{tx: tx, repo: repo, bookings: bookings, cal: cal}
}

func (svc *Service) checkUniqueness(ctx context.Context, email, excludeID string) error {
	if email == "" {
		return nil
	}
	if err := svc.repo.CheckEmailUniqueness(ctx, email, excludeID); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) cleanAvailability(av Availability) (Availability, error) {
	clean, err := av.Clean(svc.cal)
	if err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: "availability", Error: err.Error()})
	}
	return clean, nil
}

func (svc *Service) Create(ctx context.Context, nt NewTeacher) (Teacher, error) {
	now := time.Now().UTC()
	av := nt.Availability
	if av == nil {
		av = make(Availability)
	}
	return svc.repo.CreateTeacher(ctx, Teacher{
		ID:           uuid.NewString(),
		Name:         nt.Name,
		Email:        nt.Email,
		Availability: av,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Teacher, error) {
	return svc.repo.GetTeacher(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Teacher, error) {
	filter.Clean()
	return svc.repo.QueryTeachers(ctx, filter, ordering...)
}

// SetAvailability replaces the teacher's declared teaching hours.
// Slots the teacher is already assigned to are left untouched.
func (svc *Service) SetAvailability(ctx context.Context, id string, ua UpdateAvailability) (Teacher, error) {
	var tchr Teacher
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if tchr, err = svc.repo.GetTeacherForUpdate(ctx, id); err != nil {
			return err
		}
		tchr.Availability = ua.Availability
		tchr.UpdatedAt = time.Now().UTC()
		tchr, err = svc.repo.UpdateTeacher(ctx, tchr)
		return err
	})
	if err != nil {
		return Teacher{}, err
	}
	return tchr, nil
}

// Delete removes a teacher who is not assigned to any slot.
func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetTeacherForUpdate(ctx, id); err != nil {
			return err
		}
		n, err := svc.bookings.CountBookings(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrHasBookings
		}
		return svc.repo.DeleteTeacher(ctx, id)
	})
}
