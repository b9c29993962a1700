package screens

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/tododesk/core"
	"github.com/trezcool/tododesk/core/audit"
	"github.com/trezcool/tododesk/core/dashboard"
	"github.com/trezcool/tododesk/core/student"
	"github.com/trezcool/tododesk/core/todo"
)

var nowFunc = time.Now // mockable

// Dashboard is the dashboard page controller.
type Dashboard struct {
	api      API
	recent   int
	notifier core.Notifier
	logger   core.Logger

	mu       sync.Mutex
	loaded   bool
	overview dashboard.Overview
}

func NewDashboard(api API, recent int, notifier core.Notifier, logger core.Logger) *Dashboard {
	d := &Dashboard{api: api, recent: recent, notifier: notifier, logger: logger}
	d.overview = dashboard.NewOverview(nil, nil, nil, nil, recent, nowFunc())
	return d
}

func (d *Dashboard) Overview() (dashboard.Overview, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.overview, d.loaded
}

// Load fetches stats, todos, students and recent activity in parallel.
// Any failure leaves an empty, unloaded overview.
func (d *Dashboard) Load(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var (
		stats    *todo.Stats
		todos    []todo.Todo
		students []student.Student
		page     audit.Page
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = d.api.TodoStats(gctx)
		return err
	})
	g.Go(func() (err error) {
		todos, err = d.api.ListTodos(gctx, todo.Filter{})
		return err
	})
	g.Go(func() (err error) {
		students, err = d.api.ListStudents(gctx)
		return err
	})
	g.Go(func() (err error) {
		page, err = d.api.ListAuditLogs(gctx, audit.Query{Limit: d.recent})
		return err
	})

	if err := g.Wait(); err != nil {
		d.notifier.Error(core.ErrorMessage(err, "Failed to load dashboard"))
		d.logger.Error("Failed to load dashboard", errors.Wrap(err, "loading dashboard"))
		d.loaded = false
		d.overview = dashboard.NewOverview(nil, nil, nil, nil, d.recent, nowFunc())
		return errors.Wrap(err, "loading dashboard")
	}
	d.loaded = true
	d.overview = dashboard.NewOverview(stats, todos, students, page.Items, d.recent, nowFunc())
	return nil
}

func (d *Dashboard) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loaded = false
	d.overview = dashboard.NewOverview(nil, nil, nil, nil, d.recent, nowFunc())
}
