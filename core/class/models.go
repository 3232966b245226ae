package class

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

type Class struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewClass contains information needed to create a new Class.
type NewClass struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
}

func (nc *NewClass) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nc.Name = core.CleanString(nc.Name)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, nc.Name)
}

type QueryFilter struct {
	Search string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
