package logsvc

import (
	"fmt"
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/sheleads/intake/core"
)

type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// format renders the printf-style message; any trailing error arg is also
// handed to rollbar for stack extraction.
func (l RollbarLogger) format(msg string, args []interface{}) (string, []interface{}) {
	payload := []interface{}{fmt.Sprintf(msg, args...)}
	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			payload = append(payload, err)
		}
	}
	return payload[0].(string), payload
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	out, payload := l.format(msg, args)
	rollbar.Debug(payload...)
	l.std.Println(out)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	out, payload := l.format(msg, args)
	rollbar.Info(payload...)
	l.std.Println(out)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	out, payload := l.format(msg, args)
	rollbar.Warning(payload...)
	l.std.Println(out)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	out, payload := l.format(msg, args)
	rollbar.Error(payload...)
	l.std.Println(out)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	out, payload := l.format(msg, args)
	rollbar.Critical(payload...)
	l.std.Fatal(out)
}
