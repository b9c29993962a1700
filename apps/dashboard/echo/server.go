package echoui

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/tododesk/apps/dashboard/screens"
	"github.com/trezcool/tododesk/core"
	notifysvc "github.com/trezcool/tododesk/services/notify"
)

type (
	ServerDeps struct {
		Conf    *core.Config
		Logger  core.Logger
		App     *screens.App
		Notices *notifysvc.Recorder // drained into every rendered page
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ http.Handler = (*Server)(nil)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.Renderer = newRenderer(conf, s.deps.Notices)
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.App, s.deps.Logger)
	s.app.Debug = conf.Debug

	s.app.GET("/", func(ctx echo.Context) error { return ctx.Redirect(http.StatusSeeOther, "/dashboard") })

	registerAuthUI(s.app, s.deps.App)

	authed := s.app.Group("", sessionMiddleware(s.deps.App.Session))
	registerDashboardUI(authed, s.deps.App.Dashboard)
	registerStudentsUI(authed, s.deps.App.Students)
	registerTodosUI(authed, s.deps.App.Todos)
	registerAuditUI(authed, s.deps.App.Audit)
}

func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}
