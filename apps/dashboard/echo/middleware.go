package echoui

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/tododesk/core/session"
)

const contextStateKey = "session"

var nowFunc = time.Now // mockable

// checkSession asks the remote API about a session that was never checked, or whose token has expired.
func checkSession(ctx echo.Context, store *session.Store) session.State {
	st := store.State()
	if st.Phase == session.PhaseUninitialized || st.Expired(nowFunc()) {
		store.CheckSession(ctx.Request().Context())
		st = store.State()
	}
	ctx.Set(contextStateKey, st)
	return st
}

// sessionMiddleware lets only authenticated users through. Others are sent to the login page.
func sessionMiddleware(store *session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if st := checkSession(ctx, store); !st.IsAuthenticated {
				if isAPI(ctx) {
					return errUnauthorized
				}
				return ctx.Redirect(http.StatusSeeOther, "/login")
			}
			return next(ctx)
		}
	}
}

// guestMiddleware sends authenticated users to the dashboard.
func guestMiddleware(store *session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if st := checkSession(ctx, store); st.IsAuthenticated {
				return ctx.Redirect(http.StatusSeeOther, "/dashboard")
			}
			return next(ctx)
		}
	}
}
