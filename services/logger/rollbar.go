package logsvc

import (
	"log"
	"strconv"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/studytrack/studytrack/core"
)

// RollbarOptions configures the process-wide Rollbar notifier.
type RollbarOptions struct {
	Token       string
	Environment string
	Host        string
	CodeVersion string
	Enabled     bool
}

// RollbarLogger prints every entry to std and reports it to Rollbar when enabled.
// A core.Principal among the args becomes the Rollbar person of the item.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, opts RollbarOptions) *RollbarLogger {
	rollbar.SetToken(opts.Token)
	rollbar.SetEnvironment(opts.Environment)
	rollbar.SetServerHost(opts.Host)
	rollbar.SetCodeVersion(opts.CodeVersion)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(opts.Enabled)
	return &RollbarLogger{std: std}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// splitPrincipal pulls the first principal out of args; later ones are dropped.
func splitPrincipal(args []interface{}) (*core.Principal, []interface{}) {
	var who *core.Principal
	rest := make([]interface{}, 0, len(args))
	for _, arg := range args {
		usr, ok := arg.(core.Principal)
		switch {
		case !ok:
			rest = append(rest, arg)
		case who == nil:
			who = &usr
		}
	}
	return who, rest
}

func (l *RollbarLogger) log(level, msg string, args []interface{}) {
	who, rest := splitPrincipal(args)
	if who != nil {
		rollbar.SetPerson(strconv.Itoa(who.ID), who.Username, who.Email)
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, append([]interface{}{msg}, rest...)...)

	l.std.Printf("[%s] %s\n", strings.ToUpper(level), msg)
	for _, arg := range rest {
		l.std.Printf("%+v\n", arg)
	}
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) { l.log(rollbar.DEBUG, msg, args) }
func (l *RollbarLogger) Info(msg string, args ...interface{})  { l.log(rollbar.INFO, msg, args) }
func (l *RollbarLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.WARN, msg, args) }
func (l *RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, msg, args) }

// Fatal reports msg, waits for pending Rollbar items and exits.
func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
