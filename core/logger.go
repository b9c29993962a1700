package core

// Logger is any service that can log messages at different levels.
// Extra args may be errors, maps of extra data or the current user.User.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Notifier shows short-lived feedback to the user after an action.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}
