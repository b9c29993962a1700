package echoui

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/tododesk/apps/dashboard/screens"
)

type auditUI struct {
	screen *screens.Audit
}

func registerAuditUI(g *echo.Group, screen *screens.Audit) {
	ui := auditUI{screen: screen}
	g.GET("/audit", ui.list)
	g.GET("/audit/:table/:id", ui.history)
}

func (ui auditUI) list(ctx echo.Context) error {
	offset, err := strconv.Atoi(ctx.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	if err = settle(ui.screen.Load(ctx.Request().Context(), offset)); err != nil {
		return err
	}
	return ctx.Render(http.StatusOK, "audit", page{Title: "Audit Logs", Data: ui.screen.View()})
}

func (ui auditUI) history(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = settle(ui.screen.History(ctx.Request().Context(), ctx.Param("table"), id)); err != nil {
		return err
	}
	return ctx.Render(http.StatusOK, "history", page{Title: "Record History", Data: ui.screen.View()})
}
