package teacher_test

import (
	"context"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/teacher"
	"github.com/trezcool/shule/core/timetable"
	testutil "github.com/trezcool/shule/tests"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	core.InitValidators(validate, translator)
	return validate
}

func TestNewTeacher_Validate(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	svc := teacher.NewService(store.DB, store.Teachers, store.Timetables, testutil.Calendar())
	validate := newValidator()
	testutil.CreateTeacher(t, store.Teachers, "Jane Doe", "jane@shule.test", nil)

	nt := teacher.NewTeacher{
		Name:         "  John Doe ",
		Email:        " John@Shule.test",
		Availability: teacher.Availability{"tuesday": {2, 1}},
	}
	if assert.NoError(t, nt.Validate(ctx, validate, svc)) {
		assert.Equal(t, "John Doe", nt.Name)
		assert.Equal(t, "john@shule.test", nt.Email)
		assert.Equal(t, teacher.Availability{core.Tuesday: {1, 2}}, nt.Availability)
	}

	nt = teacher.NewTeacher{Name: "   ", Email: "nope"}
	err := nt.Validate(ctx, validate, svc)
	if assert.IsType(t, validator.ValidationErrors{}, err) {
		assert.Len(t, err.(validator.ValidationErrors), 2)
	}

	nt = teacher.NewTeacher{Name: "Jane", Email: "JANE@shule.test"}
	err = nt.Validate(ctx, validate, svc)
	if assert.IsType(t, &core.ValidationError{}, err) {
		assert.Equal(t, teacher.ErrEmailExists, err.(*core.ValidationError).Err)
		assert.Contains(t, err.(*core.ValidationError).FieldMap(), "email")
	}

	nt = teacher.NewTeacher{Name: "Jane", Availability: teacher.Availability{"Saturday": {1}}}
	err = nt.Validate(ctx, validate, svc)
	if assert.IsType(t, &core.ValidationError{}, err) {
		assert.Contains(t, err.(*core.ValidationError).FieldMap(), "availability")
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	svc := teacher.NewService(store.DB, store.Teachers, store.Timetables, testutil.Calendar())

	tchr, err := svc.Create(ctx, teacher.NewTeacher{Name: "John Doe"})
	if assert.NoError(t, err) {
		assert.NotEmpty(t, tchr.ID)
		assert.NotNil(t, tchr.Availability)
		assert.False(t, tchr.CreatedAt.IsZero())
	}

	got, err := svc.GetByID(ctx, tchr.ID)
	assert.NoError(t, err)
	assert.Equal(t, tchr, got)

	_, err = svc.GetByID(ctx, "unknown")
	assert.Equal(t, teacher.ErrNotFound, errors.Cause(err))
}

func TestService_Query(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	svc := teacher.NewService(store.DB, store.Teachers, store.Timetables, testutil.Calendar())

	testutil.CreateTeacher(t, store.Teachers, "Bob Mutombo", "bob@shule.test", nil)
	testutil.CreateTeacher(t, store.Teachers, "Alice Kabila", "alice@shule.test", nil)
	testutil.CreateTeacher(t, store.Teachers, "Carol Ilunga", "carol@school.test", nil)

	names := func(teachers []teacher.Teacher) []string {
		var nn []string
		for _, tchr := range teachers {
			nn = append(nn, tchr.Name)
		}
		return nn
	}

	all, err := svc.Query(ctx, teacher.QueryFilter{})
	assert.NoError(t, err)
	assert.Equal(t, []string{"Alice Kabila", "Bob Mutombo", "Carol Ilunga"}, names(all))

	desc, err := svc.Query(ctx, teacher.QueryFilter{}, core.DBOrdering{Field: "name"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"Carol Ilunga", "Bob Mutombo", "Alice Kabila"}, names(desc))

	found, err := svc.Query(ctx, teacher.QueryFilter{Search: " SHULE "})
	assert.NoError(t, err)
	assert.Equal(t, []string{"Alice Kabila", "Bob Mutombo"}, names(found))
}

func TestService_SetAvailability(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	svc := teacher.NewService(store.DB, store.Teachers, store.Timetables, testutil.Calendar())
	tchr := testutil.CreateTeacher(t, store.Teachers, "Jane Doe", "", teacher.Availability{core.Monday: {1}})

	ua := teacher.UpdateAvailability{Availability: teacher.Availability{"wednesday": {4, 2}}}
	assert.NoError(t, ua.Validate(newValidator(), svc))

	updated, err := svc.SetAvailability(ctx, tchr.ID, ua)
	if assert.NoError(t, err) {
		assert.Equal(t, teacher.Availability{core.Wednesday: {2, 4}}, updated.Availability)
		assert.True(t, !updated.UpdatedAt.Before(tchr.UpdatedAt))
	}

	_, err = svc.SetAvailability(ctx, "unknown", ua)
	assert.Equal(t, teacher.ErrNotFound, errors.Cause(err))
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	cal := testutil.Calendar()
	svc := teacher.NewService(store.DB, store.Teachers, store.Timetables, cal)
	mgr := timetable.NewManager(store.DB, store.Timetables, store.Teachers, nil, cal, testutil.NopLogger())

	cls := testutil.CreateClass(t, store, cal, "Form 1A")
	tchr := testutil.CreateTeacher(t, store.Teachers, "Jane Doe", "", teacher.Availability{core.Monday: {1}})

	_, err := mgr.AssignTeacher(ctx, cls.ID, timetable.AssignSlot{TeacherID: tchr.ID, Day: core.Monday, Period: 1, Subject: "Maths"})
	assert.NoError(t, err)

	err = svc.Delete(ctx, tchr.ID)
	assert.Equal(t, teacher.ErrHasBookings, errors.Cause(err))

	_, err = mgr.DeleteSlot(ctx, cls.ID, core.Monday, 1)
	assert.NoError(t, err)

	assert.NoError(t, svc.Delete(ctx, tchr.ID))
	_, err = svc.GetByID(ctx, tchr.ID)
	assert.Equal(t, teacher.ErrNotFound, errors.Cause(err))

	err = svc.Delete(ctx, tchr.ID)
	assert.Equal(t, teacher.ErrNotFound, errors.Cause(err))
}

type lockRecorder struct {
	teacher.Repository
	locked []string
}

func (r *lockRecorder) GetTeacherForUpdate(ctx context.Context, id string) (teacher.Teacher, error) {
	r.locked = append(r.locked, id)
	return r.Repository.GetTeacherForUpdate(ctx, id)
}

func TestService_LocksTeacherOnWrites(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	repo := &lockRecorder{Repository: store.Teachers}
	svc := teacher.NewService(store.DB, repo, store.Timetables, testutil.Calendar())
	tchr := testutil.CreateTeacher(t, store.Teachers, "Jane Doe", "", nil)

	tests := []struct {
		name string
		run  func() error
	}{
		{"set availability", func() error {
			_, err := svc.SetAvailability(ctx, tchr.ID, teacher.UpdateAvailability{Availability: teacher.Availability{core.Monday: {1}}})
			return err
		}},
		{"delete", func() error { return svc.Delete(ctx, tchr.ID) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo.locked = nil
			assert.NoError(t, tc.run())
			assert.Equal(t, []string{tchr.ID}, repo.locked)
		})
	}
}
