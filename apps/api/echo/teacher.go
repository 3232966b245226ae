package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/teacher"
	"github.com/trezcool/shule/core/timetable"
)

type teacherApi struct {
	svc        *teacher.Service
	timetables *timetable.Manager
	validate   *validator.Validate
}

func registerTeacherAPI(g *echo.Group, svc *teacher.Service, timetables *timetable.Manager, validate *validator.Validate) {
	api := teacherApi{
		svc:        svc,
		timetables: timetables,
		validate:   validate,
	}

	tg := g.Group("/teachers")
	tg.POST("", api.create)
	tg.GET("", api.query)

	// detail endpoints
	dg := tg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy)
	dg.PUT("/availability", api.setAvailability)
	dg.GET("/schedule", api.schedule)
	dg.GET("/free-periods", api.freePeriods)
}

// Handlers

func (api *teacherApi) create(ctx echo.Context) error {
	var data teacher.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	tchr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, tchr)
}

func (api *teacherApi) query(ctx echo.Context) error {
	var filter teacher.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	var ord Ordering
	ord.Bind(ctx)

	teachers, err := api.svc.Query(ctx.Request().Context(), filter, ord.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *teacherApi) retrieve(ctx echo.Context) error {
	tchr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting teacher")
	}
	return ctx.JSON(http.StatusOK, tchr)
}

func (api *teacherApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *teacherApi) setAvailability(ctx echo.Context) error {
	var data teacher.UpdateAvailability
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAvailability")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	tchr, err := api.svc.SetAvailability(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "setting availability")
	}
	return ctx.JSON(http.StatusOK, tchr)
}

func (api *teacherApi) schedule(ctx echo.Context) error {
	entries, err := api.timetables.TeacherSchedule(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting teacher schedule")
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *teacherApi) freePeriods(ctx echo.Context) error {
	free, err := api.timetables.FreePeriods(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting free periods")
	}
	return ctx.JSON(http.StatusOK, free)
}
