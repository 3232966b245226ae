package teacher

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

// Availability lists, per school day, the periods a teacher is able to teach.
type Availability map[core.Weekday][]int

// Has reports whether `period` of `day` is part of the availability.
func (av Availability) Has(day core.Weekday, period int) bool {
	for _, p := range av[day] {
		if p == period {
			return true
		}
	}
	return false
}

// Add inserts `period` into `day`, keeping the periods sorted.
// It returns false when the period was already there.
func (av Availability) Add(day core.Weekday, period int) bool {
	if av.Has(day, period) {
		return false
	}
	periods := append(av[day], period)
	sort.Ints(periods)
	av[day] = periods
	return true
}

// Copy returns a deep copy of the availability.
func (av Availability) Copy() Availability {
	cp := make(Availability, len(av))
	for day, periods := range av {
		cp[day] = append([]int(nil), periods...)
	}
	return cp
}

// Clean validates days and periods against the calendar, canonicalizes day names,
// drops duplicates & empty days and sorts the periods.
func (av Availability) Clean(cal core.Calendar) (Availability, error) {
	clean := make(Availability, len(av))
	for name, periods := range av {
		day, err := cal.ParseSchoolDay(string(name))
		if err != nil {
			return nil, err
		}
		for _, p := range periods {
			if err := cal.CheckPeriod(p); err != nil {
				return nil, errors.Wrapf(err, "%s", day)
			}
			clean.Add(day, p)
		}
	}
	return clean, nil
}

// ParseAvailability parses the "Monday:1,2,3;Tuesday:4" notation.
func ParseAvailability(s string, cal core.Calendar) (Availability, error) {
	av := make(Availability)
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid availability %q, want <day>:<period>,<period>", part)
		}
		day := core.Weekday(strings.TrimSpace(kv[0]))
		for _, p := range strings.Split(kv[1], ",") {
			period, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return nil, fmt.Errorf("invalid period %q for %s", p, day)
			}
			av[day] = append(av[day], period)
		}
	}
	return av.Clean(cal)
}

type Teacher struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email,omitempty"`
	Availability Availability `json:"availability"`
	CreatedAt    time.Time    `json:"created_at"` // UTC
	UpdatedAt    time.Time    `json:"updated_at"` // UTC
}

// IsAvailable reports whether the teacher declared `period` of `day` as teaching hours.
func (t Teacher) IsAvailable(day core.Weekday, period int) bool {
	return t.Availability.Has(day, period)
}

// NewTeacher contains information needed to create a new Teacher.
type NewTeacher struct {
	Name         string       `json:"name" validate:"required,notblank"`
	Email        string       `json:"email" validate:"omitempty,email"`
	Availability Availability `json:"availability"`
}

func (nt *NewTeacher) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Email = core.CleanString(nt.Email, true /* lower */)

	if err := validate.Struct(nt); err != nil {
		return err
	}
	av, err := svc.cleanAvailability(nt.Availability)
	if err != nil {
		return err
	}
	nt.Availability = av
	return svc.checkUniqueness(ctx, nt.Email, "")
}

// UpdateAvailability replaces a teacher's declared teaching hours.
type UpdateAvailability struct {
	Availability Availability `json:"availability" validate:"required"`
}

func (ua *UpdateAvailability) Validate(validate *validator.Validate, svc *Service) error {
	if err := validate.Struct(ua); err != nil {
		return err
	}
	av, err := svc.cleanAvailability(ua.Availability)
	if err != nil {
		return err
	}
	ua.Availability = av
	return nil
}

type QueryFilter struct {
	Search string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
