package shared

import (
	"log"

	"github.com/studytrack/studytrack/core"
	logsvc "github.com/studytrack/studytrack/services/logger"
)

// NewLogger writes to std and reports to Rollbar in deployed environments.
func NewLogger(std *log.Logger, conf *core.Config) *logsvc.RollbarLogger {
	return logsvc.NewRollbarLogger(std, rollbarOptions(conf))
}

func rollbarOptions(conf *core.Config) logsvc.RollbarOptions {
	return logsvc.RollbarOptions{
		Token:       conf.RollbarToken,
		Environment: conf.Env,
		Host:        conf.Server.Host,
		CodeVersion: conf.Build,
		Enabled:     conf.RollbarToken != "" && !conf.Debug && !conf.TestMode,
	}
}
