// Package dawlog provides the engine's single structured-logging surface,
// wrapping charmbracelet/log the way the example corpus's CLI tools do so
// every component logs through one call shape instead of the stdlib logger.
package dawlog

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	root     *log.Logger
	initOnce sync.Once
)

func base() *log.Logger {
	initOnce.Do(func() {
		root = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Level:           log.InfoLevel,
		})
	})
	return root
}

// SetLevel adjusts the root logger's minimum level. Components that derive
// a sub-logger with With keep sharing this level unless overridden.
func SetLevel(level log.Level) {
	base().SetLevel(level)
}

// With returns a component-scoped sub-logger, e.g. dawlog.With("component", "scheduler").
func With(keyvals ...interface{}) *log.Logger {
	return base().With(keyvals...)
}

// Debugf logs at debug level on the root logger.
func Debugf(msg string, keyvals ...interface{}) { base().Debug(msg, keyvals...) }

// Infof logs at info level on the root logger.
func Infof(msg string, keyvals ...interface{}) { base().Info(msg, keyvals...) }

// Warnf logs at warn level on the root logger.
func Warnf(msg string, keyvals ...interface{}) { base().Warn(msg, keyvals...) }

// Errorf logs at error level on the root logger.
func Errorf(msg string, keyvals ...interface{}) { base().Error(msg, keyvals...) }
