package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	echoui "github.com/trezcool/tododesk/apps/dashboard/echo"
	"github.com/trezcool/tododesk/apps/dashboard/screens"
	notifysvc "github.com/trezcool/tododesk/services/notify"
)

// startServer serves the web dashboard until an interrupt, then shuts it down gracefully.
func (cli *commandLine) startServer(app *screens.App, notices *notifysvc.Recorder) error {
	defer app.Close()

	cli.logger.Info(fmt.Sprintf("Application initializing : version %q", cli.conf.Build))
	defer cli.logger.Info("Application stopped")

	server := echoui.NewServer(echoui.ServerDeps{
		Conf:    cli.conf,
		Logger:  cli.logger,
		App:     app,
		Notices: notices,
	})

	go func() {
		server.Start()
	}()
	cli.logger.Info(fmt.Sprintf("Dashboard available on http://%s (API: %s)", cli.conf.Server.Address, cli.conf.API.BaseURL))

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		return errors.Wrap(err, "server error")

	case sig := <-server.ShutdownSignal():
		cli.logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), cli.conf.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			cli.logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				return errors.Wrap(err, "could not force stop server")
			}
		}
	}
	return nil
}
