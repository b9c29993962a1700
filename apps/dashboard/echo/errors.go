package echoui

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tododesk/apps/dashboard/screens"
	"github.com/trezcool/tododesk/core"
)

var (
	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpNotFound = echo.NewHTTPError(http.StatusNotFound, "not found")
)

type errorPage struct {
	Code    int
	Message string
	Fields  map[string]string
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// A 401 from the remote API re-checks the session, which drops it if the token is no longer accepted.
func newAppHTTPErrorHandler(app *screens.App, logger core.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var (
			code   int
			msg    string
			fields map[string]string
		)

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if m, ok := origErr.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(code)
			}
		case *core.ValidationError:
			code = http.StatusBadRequest
			msg = origErr.Error()
			fields = origErr.FieldMap()
		case *core.RequestError:
			if origErr.Status == http.StatusUnauthorized {
				app.Session.CheckSession(ctx.Request().Context())
				if !app.Session.State().IsAuthenticated && !isAPI(ctx) {
					_ = ctx.Redirect(http.StatusSeeOther, "/login")
					return
				}
				code = http.StatusUnauthorized
			} else {
				code = http.StatusBadGateway
			}
			msg = core.ErrorMessage(origErr, "remote API unavailable")
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg = http.StatusText(code)

			args := []interface{}{errors.Wrap(err, msg)}
			if usr := app.Session.State().User; usr != nil {
				args = append(args, *usr)
			}
			logger.Error(msg, args...)
		}

		if ctx.Echo().Debug {
			msg = err.Error()
		}

		// Send response
		if ctx.Response().Committed {
			return
		}
		switch {
		case ctx.Request().Method == http.MethodHead: // Issue #608
			err = ctx.NoContent(code)
		case isAPI(ctx):
			if fields != nil {
				err = ctx.JSON(code, fields)
			} else {
				err = ctx.JSON(code, echo.Map{"error": msg})
			}
		default:
			err = ctx.Render(code, "error", page{
				Title: http.StatusText(code),
				Data:  errorPage{Code: code, Message: msg, Fields: fields},
			})
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}

func isAPI(ctx echo.Context) bool {
	return strings.HasPrefix(ctx.Request().URL.Path, "/api/")
}
