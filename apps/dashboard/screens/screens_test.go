package screens

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tododesk/core/audit"
	"github.com/trezcool/tododesk/core/dashboard"
	"github.com/trezcool/tododesk/core/session"
	"github.com/trezcool/tododesk/core/student"
	"github.com/trezcool/tododesk/core/todo"
	apisvc "github.com/trezcool/tododesk/services/api"
	logsvc "github.com/trezcool/tododesk/services/logger"
	notifysvc "github.com/trezcool/tododesk/services/notify"
	dummystore "github.com/trezcool/tododesk/storage/session/dummy"
	"github.com/trezcool/tododesk/tests"
)

type fixture struct {
	backend  *testutil.Backend
	notifier *notifysvc.Recorder
	app      *App
	john     student.Student
	jane     student.Student
}

func setup(t *testing.T) *fixture {
	backend := testutil.NewBackend(t)
	logger := logsvc.NewDiscardLogger()
	client, err := apisvc.NewClient(backend.Config(), logger)
	require.NoError(t, err)
	notifier := notifysvc.NewRecorder()
	store := session.NewStore(client, client, dummystore.Open(), "auth-storage", notifier, logger)
	app := NewApp(client, store, Options{RecentLimit: 5, AuditPageSize: 50}, notifier, logger)
	t.Cleanup(app.Close)

	require.NoError(t, store.Login(context.Background(), "admin", "admin123"))
	notifier.Drain()

	f := &fixture{backend: backend, notifier: notifier, app: app}
	f.john = backend.AddStudent("John Doe", "john@example.com", "123")
	f.jane = backend.AddStudent("Jane Roe", "jane@example.com", "")
	backend.ResetCalls()
	return f
}

func (f *fixture) lastNotice(t *testing.T) notifysvc.Notice {
	notices := f.notifier.Drain()
	require.NotEmpty(t, notices)
	return notices[len(notices)-1]
}

func TestStudents(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	screen := f.app.Students

	require.NoError(t, screen.Load(ctx))
	assert.Len(t, screen.View().Students, 2)

	t.Run("create appends", func(t *testing.T) {
		screen.OpenCreate()
		require.NoError(t, screen.Submit(ctx, student.Form{Name: "Ann", Email: "ann@test.cd"}))
		v := screen.View()
		require.Len(t, v.Students, 3)
		assert.Equal(t, "Ann", v.Students[2].Name)
		assert.False(t, v.ModalOpen)
		assert.Equal(t, notifysvc.Notice{Level: notifysvc.LevelSuccess, Message: "Student created"}, f.lastNotice(t))
	})

	t.Run("invalid form never reaches the API", func(t *testing.T) {
		f.backend.ResetCalls()
		screen.OpenCreate()
		err := screen.Submit(ctx, student.Form{Name: "No Email"})
		assert.Error(t, err)
		v := screen.View()
		assert.True(t, v.ModalOpen)
		assert.Contains(t, v.FormErrors, "student_email")
		assert.Empty(t, f.backend.Calls(http.MethodPost, "/api/students"))
		f.notifier.Drain()
	})

	t.Run("update replaces in place", func(t *testing.T) {
		require.NoError(t, screen.OpenEdit(f.john.ID))
		v := screen.View()
		assert.Equal(t, student.Form{Name: "John Doe", Email: "john@example.com", Phone: "123"}, v.Form)

		form := v.Form
		form.Name = "Johnny"
		require.NoError(t, screen.Submit(ctx, form))
		v = screen.View()
		require.Len(t, v.Students, 3)
		assert.Equal(t, "Johnny", v.Students[0].Name)
		assert.Nil(t, v.Editing)

		calls := f.backend.Calls(http.MethodPut, "/api/students/"+itoa(f.john.ID))
		require.Len(t, calls, 1)
		assert.Equal(t, map[string]interface{}{
			"student_name": "Johnny", "student_email": "john@example.com", "student_phone": "123",
		}, calls[0].Body)
		f.notifier.Drain()
	})

	t.Run("failed update leaves the list untouched", func(t *testing.T) {
		f.backend.FailWithError(http.MethodPut, "/api/students/"+itoa(f.jane.ID), http.StatusBadRequest, "Email taken")
		before := screen.View().Students

		require.NoError(t, screen.OpenEdit(f.jane.ID))
		err := screen.Submit(ctx, student.Form{Name: "Jane", Email: "john@example.com"})
		assert.Error(t, err)
		assert.Equal(t, before, screen.View().Students)
		assert.True(t, screen.View().ModalOpen)
		assert.Equal(t, notifysvc.Notice{Level: notifysvc.LevelError, Message: "Email taken"}, f.lastNotice(t))
		screen.CloseModal()
	})

	t.Run("view todos", func(t *testing.T) {
		f.backend.AddTodo(f.john.ID, "Read", todo.StatusPending, todo.PriorityLow)
		f.backend.AddTodo(f.jane.ID, "Write", todo.StatusPending, todo.PriorityLow)
		f.backend.ResetCalls()

		require.NoError(t, screen.ViewTodos(ctx, f.john.ID))
		v := screen.View()
		require.NotNil(t, v.Selected)
		assert.Equal(t, f.john.ID, v.Selected.ID)
		require.Len(t, v.SelectedTodos, 1)
		assert.Equal(t, "Read", v.SelectedTodos[0].Title)
		assert.Equal(t, 1, v.Selected.TodoCount.Int)

		calls := f.backend.Calls(http.MethodGet, "/api/todos")
		require.Len(t, calls, 1)
		assert.Equal(t, itoa(f.john.ID), calls[0].Query.Get("student_id"))
	})

	t.Run("delete removes by id", func(t *testing.T) {
		require.NoError(t, screen.Delete(ctx, f.john.ID))
		for _, s := range screen.View().Students {
			assert.NotEqual(t, f.john.ID, s.ID)
		}
		assert.Len(t, screen.View().Students, 2)
	})

	t.Run("failed load empties the list", func(t *testing.T) {
		f.backend.Fail(http.MethodGet, "/api/students", http.StatusInternalServerError, "boom")
		defer f.backend.Heal(http.MethodGet, "/api/students")
		f.notifier.Drain()

		assert.Error(t, screen.Load(ctx))
		assert.Empty(t, screen.View().Students)
		assert.Equal(t, notifysvc.Notice{Level: notifysvc.LevelError, Message: "Failed to load students"}, f.lastNotice(t))
	})
}

func TestTodos(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	screen := f.app.Todos
	read := f.backend.AddTodo(f.john.ID, "Read", todo.StatusOverdue, todo.PriorityHigh)
	f.backend.AddTodo(f.jane.ID, "Write", todo.StatusCompleted, todo.PriorityLow)

	require.NoError(t, screen.Load(ctx))
	v := screen.View()
	assert.Len(t, v.Todos, 2)
	assert.Len(t, v.Students, 2)
	assert.Equal(t, dashboard.Counts{Total: 2, Completed: 1, Overdue: 1, HighPriority: 1}, v.Stats)

	t.Run("filters", func(t *testing.T) {
		f.backend.ResetCalls()
		require.NoError(t, screen.SetFilters(ctx, todo.Filter{Status: "completed"}))
		v := screen.View()
		require.Len(t, v.Todos, 1)
		assert.Equal(t, "Write", v.Todos[0].Title)

		calls := f.backend.Calls(http.MethodGet, "/api/todos")
		require.Len(t, calls, 1)
		assert.Equal(t, "completed", calls[0].Query.Get("status"))
		assert.NotContains(t, calls[0].Query, "student_id")

		require.NoError(t, screen.ClearFilters(ctx))
		require.NoError(t, screen.ClearFilters(ctx))
		assert.Equal(t, todo.Filter{}, screen.View().Filters)
		assert.Len(t, screen.View().Todos, 2)
	})

	t.Run("edit coerces overdue", func(t *testing.T) {
		require.NoError(t, screen.OpenEdit(read.ID))
		assert.Equal(t, todo.StatusPending, screen.View().Form.Status)
		screen.CloseModal()
		assert.Equal(t, todo.NewForm(), screen.View().Form)
	})

	t.Run("create prepends and refreshes stats", func(t *testing.T) {
		f.backend.ResetCalls()
		screen.OpenCreate()
		form := screen.View().Form
		form.StudentID = itoa(f.jane.ID)
		form.Title = "Essay"
		require.NoError(t, screen.Submit(ctx, form))

		v := screen.View()
		require.Len(t, v.Todos, 3)
		assert.Equal(t, "Essay", v.Todos[0].Title)
		assert.Equal(t, 3, v.Stats.Total)
		assert.Len(t, f.backend.Calls(http.MethodGet, "/api/todos/stats"), 1)

		calls := f.backend.Calls(http.MethodPost, "/api/todos")
		require.Len(t, calls, 1)
		assert.Equal(t, map[string]interface{}{
			"student_id": float64(f.jane.ID), "title": "Essay", "priority": "medium", "status": "pending",
		}, calls[0].Body)
	})

	t.Run("status change sends only the status", func(t *testing.T) {
		f.backend.ResetCalls()
		f.notifier.Drain()
		require.NoError(t, screen.ChangeStatus(ctx, read.ID, todo.StatusCompleted))

		calls := f.backend.Calls(http.MethodPut, "/api/todos/"+itoa(read.ID))
		require.Len(t, calls, 1)
		assert.Equal(t, map[string]interface{}{"status": "completed"}, calls[0].Body)

		got, ok := findTodo(screen.View().Todos, read.ID)
		require.True(t, ok)
		assert.Equal(t, todo.StatusCompleted, got.Status)
		assert.Equal(t, notifysvc.Notice{Level: notifysvc.LevelSuccess, Message: "Status updated to completed"}, f.lastNotice(t))
		assert.Len(t, f.backend.Calls(http.MethodGet, "/api/todos/stats"), 1)
	})

	t.Run("failed delete keeps the list", func(t *testing.T) {
		f.backend.Fail(http.MethodDelete, "/api/todos/"+itoa(read.ID), http.StatusInternalServerError, "boom")
		before := screen.View().Todos
		assert.Error(t, screen.Delete(ctx, read.ID))
		assert.Equal(t, before, screen.View().Todos)
		assert.Equal(t, notifysvc.Notice{Level: notifysvc.LevelError, Message: "Failed to delete"}, f.lastNotice(t))

		f.backend.Heal(http.MethodDelete, "/api/todos/"+itoa(read.ID))
		require.NoError(t, screen.Delete(ctx, read.ID))
		_, ok := findTodo(screen.View().Todos, read.ID)
		assert.False(t, ok)
	})

	t.Run("stats failure keeps previous stats silently", func(t *testing.T) {
		f.backend.Fail(http.MethodGet, "/api/todos/stats", http.StatusInternalServerError, "boom")
		defer f.backend.Heal(http.MethodGet, "/api/todos/stats")
		before := screen.View().Stats
		f.notifier.Drain()

		require.NoError(t, screen.Load(ctx))
		assert.Equal(t, before, screen.View().Stats)
		assert.Empty(t, f.notifier.Drain())
	})

	t.Run("rows resolve student names", func(t *testing.T) {
		rows := screen.View().Rows(time.Now())
		require.NotEmpty(t, rows)
		for _, r := range rows {
			assert.NotEqual(t, dashboard.UnknownStudent, r.StudentName)
		}
	})
}

func TestStudentThenTodo(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	f.app.Students.OpenCreate()
	require.NoError(t, f.app.Students.Submit(ctx, student.Form{Name: "Ana", Email: "a@x.com"}))
	students := f.app.Students.View().Students
	require.NotEmpty(t, students)
	ana := students[len(students)-1]
	require.Equal(t, "Ana", ana.Name)

	f.app.Todos.OpenCreate()
	require.NoError(t, f.app.Todos.Submit(ctx, todo.Form{StudentID: strconv.Itoa(ana.ID), Title: "Read chapter 1"}))
	created := f.app.Todos.View().Todos
	require.NotEmpty(t, created)
	id := created[0].ID

	require.NoError(t, f.app.Todos.SetFilters(ctx, todo.Filter{}))
	for _, c := range f.backend.Calls(http.MethodGet, "/api/todos") {
		assert.Empty(t, c.Query, "unfiltered lists send no query")
	}

	var matches []todo.Todo
	for _, td := range f.app.Todos.View().Todos {
		if td.ID == id {
			matches = append(matches, td)
		}
	}
	require.Len(t, matches, 1)
	assert.Equal(t, todo.StatusPending, matches[0].Status)
	assert.Equal(t, ana.ID, matches[0].StudentID)
	assert.Equal(t, "Ana", dashboard.StudentName(matches[0], f.app.Todos.View().Students))
}

func TestAudit(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	screen := f.app.Audit
	for i := 0; i < 3; i++ {
		f.backend.AddLog("todos", audit.ActionUpdate, 1, map[string]interface{}{"n": i}, map[string]interface{}{"n": i + 1})
	}

	require.NoError(t, screen.Load(ctx, 0))
	v := screen.View()
	assert.Len(t, v.Logs, 3)
	assert.Equal(t, 3, v.Total)
	assert.False(t, v.HasMore())

	calls := f.backend.Calls(http.MethodGet, "/api/audit")
	require.Len(t, calls, 1)
	assert.Equal(t, "50", calls[0].Query.Get("limit"))

	require.NoError(t, screen.History(ctx, "todos", 1))
	assert.Len(t, screen.View().History, 3)

	f.backend.Fail(http.MethodGet, "/api/audit", http.StatusInternalServerError, "boom")
	assert.Error(t, screen.Load(ctx, 0))
	assert.Empty(t, screen.View().Logs)
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.backend.AddTodo(f.john.ID, "Read", todo.StatusPending, todo.PriorityHigh)
	f.backend.AddTodo(f.jane.ID, "Write", todo.StatusCompleted, todo.PriorityLow)
	f.backend.AddTodo(999, "Orphan", todo.StatusPending, todo.PriorityLow)

	_, loaded := f.app.Dashboard.Overview()
	assert.False(t, loaded)

	require.NoError(t, f.app.Dashboard.Load(ctx))
	ov, loaded := f.app.Dashboard.Overview()
	assert.True(t, loaded)
	assert.Equal(t, 3, ov.Stats.Total)
	assert.Equal(t, 2, ov.StudentCount)
	require.Len(t, ov.Distribution, 2)
	assert.Equal(t, todo.StatusPending, ov.Distribution[0].Status)
	assert.Equal(t, 2, ov.Distribution[0].Count)
	assert.Equal(t, "Orphan", ov.RecentTodos[0].Title)
	assert.Equal(t, dashboard.UnknownStudent, ov.RecentTodos[0].StudentName)
	assert.False(t, ov.Weekly.Available)

	for _, path := range []string{"/api/todos/stats", "/api/todos", "/api/students", "/api/audit"} {
		assert.Len(t, f.backend.Calls(http.MethodGet, path), 1, path)
	}
	assert.Equal(t, "5", f.backend.Calls(http.MethodGet, "/api/audit")[0].Query.Get("limit"))

	t.Run("any failure empties the overview", func(t *testing.T) {
		f.backend.Fail(http.MethodGet, "/api/students", http.StatusInternalServerError, "boom")
		defer f.backend.Heal(http.MethodGet, "/api/students")
		f.notifier.Drain()

		assert.Error(t, f.app.Dashboard.Load(ctx))
		after, loaded := f.app.Dashboard.Overview()
		assert.False(t, loaded)
		assert.Zero(t, after.Stats.Total)
		assert.Zero(t, after.StudentCount)
		assert.Empty(t, after.Distribution)
		assert.Empty(t, after.RecentTodos)
		assert.Equal(t, notifysvc.Notice{Level: notifysvc.LevelError, Message: "boom"}, f.lastNotice(t))
	})
}

func TestApp_ResetOnLogout(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	require.NoError(t, f.app.Students.Load(ctx))
	require.NotEmpty(t, f.app.Students.View().Students)

	f.app.Session.Logout(ctx)
	assert.Empty(t, f.app.Students.View().Students)
	assert.False(t, f.app.Students.View().Loaded)
}

func findTodo(todos []todo.Todo, id int) (todo.Todo, bool) {
	for _, t := range todos {
		if t.ID == id {
			return t, true
		}
	}
	return todo.Todo{}, false
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
