package screens

import (
	"github.com/trezcool/tododesk/core"
	"github.com/trezcool/tododesk/core/session"
)

// Options configures the screens.
type Options struct {
	RecentLimit   int
	AuditPageSize int
}

// App bundles the page controllers of one session.
type App struct {
	Session   *session.Store
	Dashboard *Dashboard
	Students  *Students
	Todos     *Todos
	Audit     *Audit

	unsubscribe func()
}

// NewApp builds the page controllers. Their data is dropped whenever the session stops being authenticated.
func NewApp(api API, store *session.Store, opts Options, notifier core.Notifier, logger core.Logger) *App {
	app := &App{
		Session:   store,
		Dashboard: NewDashboard(api, opts.RecentLimit, notifier, logger),
		Students:  NewStudents(api, api, notifier),
		Todos:     NewTodos(api, api, notifier, logger),
		Audit:     NewAudit(api, opts.AuditPageSize, notifier, logger),
	}
	app.unsubscribe = store.Subscribe(func(st session.State) {
		if !st.IsAuthenticated && !st.IsLoading {
			app.Reset()
		}
	})
	return app
}

func (app *App) Reset() {
	app.Dashboard.Reset()
	app.Students.Reset()
	app.Todos.Reset()
	app.Audit.Reset()
}

// Close stops following the session.
func (app *App) Close() {
	app.unsubscribe()
}
