package echoui

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tododesk/apps/dashboard/screens"
	"github.com/trezcool/tododesk/core"
	"github.com/trezcool/tododesk/core/user"
)

type authUI struct {
	app *screens.App
}

type authForm struct {
	Username string
	Email    string
	Errors   map[string]string
}

func registerAuthUI(e *echo.Echo, app *screens.App) {
	ui := authUI{app: app}

	guest := e.Group("", guestMiddleware(app.Session))
	guest.GET("/login", ui.loginPage)
	guest.POST("/login", ui.login)

	// the remote API only lets admins register users, so the page is open to both guests and users
	e.GET("/register", ui.registerPage, ui.withSession)
	e.POST("/register", ui.register, ui.withSession)

	e.POST("/logout", ui.logout)
}

func (ui authUI) withSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		checkSession(ctx, ui.app.Session)
		return next(ctx)
	}
}

func (ui authUI) loginPage(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, "login", page{Title: "Login", Data: authForm{}})
}

func (ui authUI) login(ctx echo.Context) error {
	var creds user.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	if err := ui.app.Session.Login(ctx.Request().Context(), creds.Username, creds.Password); err != nil {
		form := authForm{Username: creds.Username, Errors: core.TranslateErrors(err)}
		return ctx.Render(http.StatusUnauthorized, "login", page{Title: "Login", Data: form})
	}
	return ctx.Redirect(http.StatusSeeOther, "/dashboard")
}

func (ui authUI) registerPage(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, "register", page{Title: "Register", Data: authForm{}})
}

func (ui authUI) register(ctx echo.Context) error {
	var reg user.Registration
	if err := ctx.Bind(&reg); err != nil {
		return errors.Wrap(err, "binding to Registration")
	}
	if err := ui.app.Session.Register(ctx.Request().Context(), reg); err != nil {
		form := authForm{Username: reg.Username, Email: reg.Email, Errors: core.TranslateErrors(err)}
		return ctx.Render(http.StatusBadRequest, "register", page{Title: "Register", Data: form})
	}
	return ctx.Redirect(http.StatusSeeOther, "/dashboard")
}

func (ui authUI) logout(ctx echo.Context) error {
	ui.app.Session.Logout(ctx.Request().Context())
	return ctx.Redirect(http.StatusSeeOther, "/login")
}
