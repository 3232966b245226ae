package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/timetable"
)

type timetableApi struct {
	mgr      *timetable.Manager
	validate *validator.Validate
	metrics  *metrics
}

func registerTimetableAPI(g *echo.Group, mgr *timetable.Manager, validate *validator.Validate, mtrcs *metrics) {
	api := timetableApi{
		mgr:      mgr,
		validate: validate,
		metrics:  mtrcs,
	}

	tg := g.Group("/timetables/:classId")
	tg.GET("", api.retrieve)
	tg.PUT("/assign", api.assign)
	tg.PUT("/update", api.update)
	tg.DELETE("/slot", api.deleteSlot)
}

type assignFunc func(ctx context.Context, classID string, as timetable.AssignSlot) (timetable.Timetable, error)

// Handlers

func (api *timetableApi) retrieve(ctx echo.Context) error {
	tt, err := api.mgr.GetTimetable(ctx.Request().Context(), ctx.Param("classId"))
	if err != nil {
		return errors.Wrap(err, "getting timetable")
	}
	return ctx.JSON(http.StatusOK, tt)
}

func (api *timetableApi) assign(ctx echo.Context) error {
	return api.write(ctx, api.mgr.AssignTeacher)
}

func (api *timetableApi) update(ctx echo.Context) error {
	return api.write(ctx, api.mgr.UpdateSlot)
}

func (api *timetableApi) write(ctx echo.Context, fn assignFunc) error {
	var data timetable.AssignSlot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignSlot")
	}
	if err := data.Validate(api.validate, api.mgr.Calendar()); err != nil {
		return err
	}

	tt, err := fn(ctx.Request().Context(), ctx.Param("classId"), data)
	api.metrics.observeAssignment(err)
	if err != nil {
		return errors.Wrap(err, "assigning teacher")
	}
	return ctx.JSON(http.StatusOK, tt)
}

func (api *timetableApi) deleteSlot(ctx echo.Context) error {
	var data timetable.SlotRef
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SlotRef")
	}
	day, err := data.Validate(api.validate, api.mgr.Calendar())
	if err != nil {
		return err
	}

	tt, err := api.mgr.DeleteSlot(ctx.Request().Context(), ctx.Param("classId"), day, data.Period)
	if err != nil {
		return errors.Wrap(err, "deleting slot")
	}
	return ctx.JSON(http.StatusOK, tt)
}
