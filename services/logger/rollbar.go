package logsvc

import (
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/rollbar/rollbar-go"
	rollbarerrors "github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/tododesk/core"
	"github.com/trezcool/tododesk/core/user"
)

// RollbarLogger prints to a std logger and reports to Rollbar when enabled.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewRollbarLogger configures the Rollbar client for this dashboard.
// Every item carries the remote API it talks to, so reports from several installs can be told apart.
func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(rollbarerrors.StackTracer)
	rollbar.SetCustom(map[string]interface{}{
		"app":            conf.AppName,
		"api_base_url":   conf.API.BaseURL,
		"server_address": conf.Server.Address,
	})
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// NewDiscardLogger returns a disabled RollbarLogger that prints nothing.
func NewDiscardLogger() *RollbarLogger {
	return NewWriterLogger(io.Discard)
}

// NewWriterLogger returns a disabled RollbarLogger printing to w.
func NewWriterLogger(w io.Writer) *RollbarLogger {
	rollbar.SetEnabled(false)
	return &RollbarLogger{std: log.New(w, "", 0)}
}

// prepare turns args into Rollbar arguments.
// Accepted: error, map[string]interface{}, user.User or *user.User (the session user).
// A remote API failure adds its status to the extras.
func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var usr *user.User
	extras := map[string]interface{}{}
	newArgs := make([]interface{}, 0, len(args)+2)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			if usr == nil {
				usr = &a
			}
		case *user.User:
			if usr == nil && a != nil {
				usr = a
			}
		case map[string]interface{}:
			for k, v := range a {
				extras[k] = v
			}
		case error:
			if status, ok := remoteStatus(a); ok {
				extras["remote_status"] = status
			}
			newArgs = append(newArgs, a)
		default:
			newArgs = append(newArgs, a)
		}
	}
	if usr != nil {
		rollbar.SetPerson(strconv.Itoa(usr.ID), usr.Username, usr.Email)
	} else {
		rollbar.ClearPerson()
	}
	if len(extras) > 0 {
		newArgs = append(newArgs, extras)
	}
	return newArgs
}

// remoteStatus returns the HTTP status of a failed remote API call found in err's chain.
func remoteStatus(err error) (int, bool) {
	for err != nil {
		if reqErr, ok := err.(*core.RequestError); ok {
			return reqErr.Status, true
		}
		switch e := err.(type) {
		case interface{ Cause() error }:
			err = e.Cause()
		case interface{ Unwrap() error }:
			err = e.Unwrap()
		default:
			return 0, false
		}
	}
	return 0, false
}

func (l RollbarLogger) print(level, msg string, args []interface{}) {
	l.std.Printf("[%s] %s", level, msg)
	for _, arg := range args {
		if usr, ok := arg.(user.User); ok {
			arg = usr.Username
		} else if usr, ok := arg.(*user.User); ok && usr != nil {
			arg = usr.Username
		}
		l.std.Printf("  %s", strings.TrimRight(fmt.Sprintf("%+v", arg), "\n"))
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(l.prepare(msg, args)...)
	l.print("DEBUG", msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.prepare(msg, args)...)
	l.print("INFO", msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.print("WARN", msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.print("ERROR", msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.prepare(msg, args)...)
	l.print("FATAL", msg, args)
	l.std.Fatal(msg)
}
