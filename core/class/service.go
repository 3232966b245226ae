package class

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/timetable"
)

var (
	// errors
	ErrNotFound   = errors.New("class not found")
	ErrNameExists = errors.New("a class with this name already exists")
)

type (
	Repository interface {
		// CheckNameUniqueness returns ErrNameExists when a class named `name` (case-insensitive) exists.
		CheckNameUniqueness(ctx context.Context, name string) error
		CreateClass(ctx context.Context, cls Class) (Class, error)
		GetClass(ctx context.Context, id string) (Class, error)
		QueryClasses(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Class, error)
		DeleteClass(ctx context.Context, id string) error
	}

	Service struct {
		tx         core.Transactor
		repo       Repository
		timetables *timetable.Manager
	}
)

func NewService(tx core.Transactor, repo Repository, timetables *timetable.Manager) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(tx, "tx"),
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(timetables, "timetables"),
	).CheckAndPanic()

	return &Service{tx: tx, repo: repo, timetables: timetables}
}

func (svc *Service) checkUniqueness(ctx context.Context, name string) error {
	if err := svc.repo.CheckNameUniqueness(ctx, name); err != nil {
		if err == ErrNameExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Create registers the class together with its empty timetable.
func (svc *Service) Create(ctx context.Context, nc NewClass) (Class, error) {
	var cls Class
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		cls, err = svc.repo.CreateClass(ctx, Class{
			ID:        uuid.NewString(),
			Name:      nc.Name,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		_, err = svc.timetables.CreateTimetable(ctx, cls.ID)
		return err
	})
	if err != nil {
		return Class{}, err
	}
	return cls, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClass(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Class, error) {
	filter.Clean()
	return svc.repo.QueryClasses(ctx, filter, ordering...)
}

// Delete removes the class and its timetable, releasing every teacher booked in it.
func (svc *Service) Delete(ctx context.Context, id string) error {
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetClass(ctx, id); err != nil {
			return err
		}
		if err := svc.timetables.DeleteTimetable(ctx, id); err != nil {
			return err
		}
		return svc.repo.DeleteClass(ctx, id)
	})
	if err != nil {
		return err
	}
	svc.timetables.Forget(ctx, id)
	return nil
}
