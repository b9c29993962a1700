package echoui

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/tododesk/apps/dashboard/screens"
	"github.com/trezcool/tododesk/core"
	"github.com/trezcool/tododesk/core/dashboard"
)

type dashboardUI struct {
	screen *screens.Dashboard
}

type dashboardPage struct {
	dashboard.Overview
	Loaded bool
}

func registerDashboardUI(g *echo.Group, screen *screens.Dashboard) {
	ui := dashboardUI{screen: screen}
	g.GET("/dashboard", ui.page)
	g.GET("/api/overview", ui.overview)
}

func (ui dashboardUI) page(ctx echo.Context) error {
	if err := settle(ui.screen.Load(ctx.Request().Context())); err != nil {
		return err
	}
	ov, loaded := ui.screen.Overview()
	return ctx.Render(http.StatusOK, "dashboard", page{Title: "Dashboard", Data: dashboardPage{Overview: ov, Loaded: loaded}})
}

// overview serves the dashboard view-model as JSON. A failed load answers with the remote error.
func (ui dashboardUI) overview(ctx echo.Context) error {
	if err := ui.screen.Load(ctx.Request().Context()); err != nil {
		return err
	}
	ov, _ := ui.screen.Overview()
	return ctx.JSON(http.StatusOK, ov)
}

// settle drops errors the screens already reported to the user.
// Only a rejected session is passed on, so the error handler can send the user back to the login page.
func settle(err error) error {
	if err != nil && core.IsUnauthorized(err) {
		return err
	}
	return nil
}
