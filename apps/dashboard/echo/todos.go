package echoui

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tododesk/apps/dashboard/screens"
	"github.com/trezcool/tododesk/core/dashboard"
	"github.com/trezcool/tododesk/core/todo"
)

type todosUI struct {
	screen *screens.Todos
}

type todosPage struct {
	screens.TodosView
	TodoRows []dashboard.TodoRow
}

var filterParams = []string{"student_id", "status", "priority"}

func registerTodosUI(g *echo.Group, screen *screens.Todos) {
	ui := todosUI{screen: screen}

	tg := g.Group("/todos")
	tg.GET("", ui.list)
	tg.GET("/new", ui.createPage)
	tg.POST("", ui.create)
	tg.POST("/clear", ui.clearFilters)

	dg := tg.Group("/:id")
	dg.GET("/edit", ui.editPage)
	dg.POST("/edit", ui.update)
	dg.POST("/status", ui.changeStatus)
	dg.POST("/delete", ui.destroy)
}

func (ui todosUI) ensureLoaded(ctx echo.Context) error {
	if ui.screen.View().Loaded && ctx.QueryParam("reload") == "" {
		return nil
	}
	return settle(ui.screen.Load(ctx.Request().Context()))
}

func (ui todosUI) render(ctx echo.Context, code int) error {
	v := ui.screen.View()
	return ctx.Render(code, "todos", page{Title: "Todos", Data: todosPage{TodosView: v, TodoRows: v.Rows(nowFunc())}})
}

// list applies the filters found in the query, if any. An empty filter value means "all".
func (ui todosUI) list(ctx echo.Context) error {
	ui.screen.CloseModal()

	params := ctx.QueryParams()
	var filtered bool
	for _, p := range filterParams {
		if _, ok := params[p]; ok {
			filtered = true
		}
	}
	if !filtered {
		if err := ui.ensureLoaded(ctx); err != nil {
			return err
		}
		return ui.render(ctx, http.StatusOK)
	}

	var f todo.Filter
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, &f); err != nil {
		return errors.Wrap(err, "binding to todo.Filter")
	}
	if err := settle(ui.screen.SetFilters(ctx.Request().Context(), f)); err != nil {
		return err
	}
	return ui.render(ctx, http.StatusOK)
}

func (ui todosUI) clearFilters(ctx echo.Context) error {
	if err := settle(ui.screen.ClearFilters(ctx.Request().Context())); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusSeeOther, "/todos")
}

func (ui todosUI) createPage(ctx echo.Context) error {
	if err := ui.ensureLoaded(ctx); err != nil {
		return err
	}
	ui.screen.OpenCreate()
	return ui.render(ctx, http.StatusOK)
}

func (ui todosUI) create(ctx echo.Context) error {
	ui.screen.OpenCreate()
	return ui.submit(ctx)
}

func (ui todosUI) editPage(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = ui.ensureLoaded(ctx); err != nil {
		return err
	}
	if err = ui.screen.OpenEdit(id); err != nil {
		return notFound(err)
	}
	return ui.render(ctx, http.StatusOK)
}

func (ui todosUI) update(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = ui.ensureLoaded(ctx); err != nil {
		return err
	}
	if err = ui.screen.OpenEdit(id); err != nil {
		return notFound(err)
	}
	return ui.submit(ctx)
}

func (ui todosUI) submit(ctx echo.Context) error {
	var form todo.Form
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to todo.Form")
	}
	if err := ui.screen.Submit(ctx.Request().Context(), form); err != nil {
		if err = settle(err); err != nil {
			return err
		}
		return ui.render(ctx, http.StatusUnprocessableEntity)
	}
	return ctx.Redirect(http.StatusSeeOther, "/todos")
}

func (ui todosUI) changeStatus(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	status := todo.Status(ctx.FormValue("status"))
	if err = settle(ui.screen.ChangeStatus(ctx.Request().Context(), id, status)); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusSeeOther, "/todos")
}

func (ui todosUI) destroy(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = settle(ui.screen.Delete(ctx.Request().Context(), id)); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusSeeOther, "/todos")
}
