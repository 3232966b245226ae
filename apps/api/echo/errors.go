package echoapi

import (
	stderrors "errors"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/class"
	"github.com/trezcool/shule/core/teacher"
	"github.com/trezcool/shule/core/timetable"
)

// status codes of the domain errors
var domainErrors = []struct {
	err  error
	code int
}{
	{timetable.ErrNotFound, http.StatusNotFound},
	{timetable.ErrSlotNotAssigned, http.StatusNotFound},
	{timetable.ErrTeacherUnavailable, http.StatusBadRequest},
	{teacher.ErrNotFound, http.StatusNotFound},
	{teacher.ErrHasBookings, http.StatusConflict},
	{teacher.ErrEmailExists, http.StatusConflict},
	{class.ErrNotFound, http.StatusNotFound},
	{class.ErrNameExists, http.StatusConflict},
}

func domainErrorCode(err error) (int, bool) {
	for _, de := range domainErrors {
		if stderrors.Is(err, de.err) {
			return de.code, true
		}
	}
	return 0, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			message = core.ValidationError{Fields: core.TranslateErrors(origErr, translator)}.FieldMap()
		case *core.ValidationError:
			if origErr.Fields != nil {
				message = origErr.FieldMap()
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *timetable.ConflictError:
			code = http.StatusConflict
			message = echo.Map{"error": timetable.ErrTeacherAssigned.Error(), "conflict": origErr.Booking}
		default:
			if c, ok := domainErrorCode(origErr); ok {
				code = c
				message = origErr.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			logger.Error(msg, errors.Wrap(err, msg), ctx.Request())

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
