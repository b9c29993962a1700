package screens

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/tododesk/core"
	"github.com/trezcool/tododesk/core/dashboard"
	"github.com/trezcool/tododesk/core/student"
	"github.com/trezcool/tododesk/core/todo"
)

type TodosView struct {
	Loaded     bool
	Todos      []todo.Todo
	Students   []student.Student
	Stats      dashboard.Counts
	Filters    todo.Filter
	ModalOpen  bool
	Editing    *todo.Todo
	Form       todo.Form
	FormErrors map[string]string
}

// Rows resolves the student name of every todo.
func (v TodosView) Rows(now time.Time) []dashboard.TodoRow {
	return dashboard.NewTodoRows(v.Todos, v.Students, now)
}

// Todos is the todos page controller.
type Todos struct {
	todos    TodosAPI
	students StudentsAPI
	notifier core.Notifier
	logger   core.Logger

	mu   sync.Mutex
	view TodosView
}

func NewTodos(todos TodosAPI, students StudentsAPI, notifier core.Notifier, logger core.Logger) *Todos {
	t := &Todos{todos: todos, students: students, notifier: notifier, logger: logger}
	t.view.Form = todo.NewForm()
	return t
}

func (t *Todos) View() TodosView {
	t.mu.Lock()
	defer t.mu.Unlock()
	v := t.view
	v.Todos = append([]todo.Todo(nil), v.Todos...)
	v.Students = append([]student.Student(nil), v.Students...)
	return v
}

// Load fetches the filtered todos and the students in parallel, then the stats.
// On failure both lists are emptied.
func (t *Todos) Load(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.load(ctx)
	t.loadStats(ctx)
	return err
}

func (t *Todos) load(ctx context.Context) error {
	var (
		todos    []todo.Todo
		students []student.Student
	)
	g, gctx := errgroup.WithContext(ctx)
	filters := t.view.Filters
	g.Go(func() (err error) {
		todos, err = t.todos.ListTodos(gctx, filters)
		return err
	})
	g.Go(func() (err error) {
		students, err = t.students.ListStudents(gctx)
		return err
	})

	err := g.Wait()
	t.view.Loaded = true
	if err != nil {
		t.view.Todos = []todo.Todo{}
		t.view.Students = []student.Student{}
		t.notifier.Error("Failed to load todos")
		return errors.Wrap(err, "loading todos")
	}
	t.view.Todos = todos
	t.view.Students = students
	return nil
}

// loadStats refreshes the stats. Failures are only logged and keep the previous stats.
func (t *Todos) loadStats(ctx context.Context) {
	stats, err := t.todos.TodoStats(ctx)
	if err != nil {
		t.logger.Warn("Failed to load stats", errors.Wrap(err, "loading todo stats"))
		return
	}
	t.view.Stats = dashboard.DefaultStats(stats)
}

// SetFilters replaces the filters and reloads.
func (t *Todos) SetFilters(ctx context.Context, f todo.Filter) error {
	t.mu.Lock()
	t.view.Filters = f
	t.mu.Unlock()
	return t.Load(ctx)
}

// ClearFilters resets every filter to "all" and reloads.
func (t *Todos) ClearFilters(ctx context.Context) error {
	t.mu.Lock()
	t.view.Filters.Clear()
	t.mu.Unlock()
	return t.Load(ctx)
}

func (t *Todos) OpenCreate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.view.ModalOpen = true
	t.view.Editing = nil
	t.view.Form = todo.NewForm()
	t.view.FormErrors = nil
}

// OpenEdit prefills the form with a loaded todo.
func (t *Todos) OpenEdit(id int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	td, ok := core.Find(t.view.Todos, id)
	if !ok {
		return errors.Wrapf(ErrNotFound, "todo %d", id)
	}
	t.view.ModalOpen = true
	t.view.Editing = &td
	t.view.Form = todo.FormFrom(td)
	t.view.FormErrors = nil
	return nil
}

func (t *Todos) CloseModal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.view.ModalOpen = false
	t.view.Editing = nil
	t.view.Form = todo.NewForm()
	t.view.FormErrors = nil
}

// Submit creates or updates a todo from form, depending on whether one is being edited.
// A created todo is put first, an updated one replaced in place. Stats are refreshed afterwards.
func (t *Todos) Submit(ctx context.Context, form todo.Form) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.view.Form = form

	if t.view.Editing != nil {
		ut, err := form.UpdateTodo()
		if err != nil {
			return t.invalid(err)
		}
		updated, err := t.todos.UpdateTodo(ctx, t.view.Editing.ID, ut)
		if err != nil {
			t.notifier.Error(core.ErrorMessage(err, "Operation failed"))
			return errors.Wrap(err, "updating todo")
		}
		t.view.Todos = core.Replace(t.view.Todos, updated)
		t.notifier.Success("Todo updated")
	} else {
		nt, err := form.NewTodo()
		if err != nil {
			return t.invalid(err)
		}
		created, err := t.todos.CreateTodo(ctx, nt)
		if err != nil {
			t.notifier.Error(core.ErrorMessage(err, "Operation failed"))
			return errors.Wrap(err, "creating todo")
		}
		t.view.Todos = core.Prepend(t.view.Todos, created)
		t.notifier.Success("Todo created")
	}

	t.view.ModalOpen = false
	t.view.Editing = nil
	t.view.Form = todo.NewForm()
	t.view.FormErrors = nil
	t.loadStats(ctx)
	return nil
}

func (t *Todos) invalid(err error) error {
	t.view.FormErrors = core.TranslateErrors(err)
	t.notifier.Error("Please fix the highlighted fields")
	return err
}

func (t *Todos) Delete(ctx context.Context, id int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.todos.DeleteTodo(ctx, id); err != nil {
		t.notifier.Error("Failed to delete")
		return errors.Wrap(err, "deleting todo")
	}
	t.view.Todos = core.Remove(t.view.Todos, id)
	t.notifier.Success("Todo deleted")
	t.loadStats(ctx)
	return nil
}

// ChangeStatus sends a single update carrying only the new status.
func (t *Todos) ChangeStatus(ctx context.Context, id int, status todo.Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	change, err := todo.StatusChange(status)
	if err != nil {
		t.notifier.Error("Failed to update status")
		return err
	}
	updated, err := t.todos.UpdateTodo(ctx, id, change)
	if err != nil {
		t.notifier.Error("Failed to update status")
		return errors.Wrap(err, "changing todo status")
	}
	t.view.Todos = core.Replace(t.view.Todos, updated)
	t.notifier.Success(fmt.Sprintf("Status updated to %s", status))
	t.loadStats(ctx)
	return nil
}

func (t *Todos) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.view = TodosView{Form: todo.NewForm()}
}
