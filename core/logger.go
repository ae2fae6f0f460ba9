package core

// Logger is any service that can log messages.
// args may carry an error, extra data, and the session user.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Principal identifies the person a log entry is about.
type Principal struct {
	ID       int
	Username string
	Email    string
}
