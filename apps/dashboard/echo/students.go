package echoui

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tododesk/apps/dashboard/screens"
	"github.com/trezcool/tododesk/core/student"
)

type studentsUI struct {
	screen *screens.Students
}

func registerStudentsUI(g *echo.Group, screen *screens.Students) {
	ui := studentsUI{screen: screen}

	sg := g.Group("/students")
	sg.GET("", ui.list)
	sg.GET("/new", ui.createPage)
	sg.POST("", ui.create)

	dg := sg.Group("/:id")
	dg.GET("/edit", ui.editPage)
	dg.POST("/edit", ui.update)
	dg.POST("/delete", ui.destroy)
	dg.GET("/todos", ui.todos)
}

// ensureLoaded loads the list on first visit, or again when asked with ?reload=1.
func (ui studentsUI) ensureLoaded(ctx echo.Context) error {
	if ui.screen.View().Loaded && ctx.QueryParam("reload") == "" {
		return nil
	}
	return settle(ui.screen.Load(ctx.Request().Context()))
}

func (ui studentsUI) render(ctx echo.Context, code int) error {
	return ctx.Render(code, "students", page{Title: "Students", Data: ui.screen.View()})
}

func (ui studentsUI) list(ctx echo.Context) error {
	ui.screen.CloseModal()
	if err := ui.ensureLoaded(ctx); err != nil {
		return err
	}
	return ui.render(ctx, http.StatusOK)
}

func (ui studentsUI) createPage(ctx echo.Context) error {
	if err := ui.ensureLoaded(ctx); err != nil {
		return err
	}
	ui.screen.OpenCreate()
	return ui.render(ctx, http.StatusOK)
}

func (ui studentsUI) create(ctx echo.Context) error {
	ui.screen.OpenCreate()
	return ui.submit(ctx)
}

func (ui studentsUI) editPage(ctx echo.Context) error {
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

func (ui studentsUI) update(ctx echo.Context) error {
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

func (ui studentsUI) submit(ctx echo.Context) error {
	var form student.Form
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to student.Form")
	}
	if err := ui.screen.Submit(ctx.Request().Context(), form); err != nil {
		if err = settle(err); err != nil {
			return err
		}
		return ui.render(ctx, http.StatusUnprocessableEntity)
	}
	return ctx.Redirect(http.StatusSeeOther, "/students")
}

func (ui studentsUI) destroy(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = settle(ui.screen.Delete(ctx.Request().Context(), id)); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusSeeOther, "/students")
}

func (ui studentsUI) todos(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = ui.ensureLoaded(ctx); err != nil {
		return err
	}
	if err = settle(ui.screen.ViewTodos(ctx.Request().Context(), id)); err != nil {
		return err
	}
	return ui.render(ctx, http.StatusOK)
}

func pathID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id < 1 {
		return 0, errHttpNotFound
	}
	return id, nil
}

func notFound(err error) error {
	if errors.Cause(err) == screens.ErrNotFound {
		return errHttpNotFound
	}
	return err
}
