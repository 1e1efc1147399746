package logger

import corelogger "github.com/mkv-git/openttd/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.NopLogger

// New returns a Logger for the given component. The output format follows the
// APP_ENV variable unless Configure set one explicitly.
func New(component string) Logger {
	return NewZerologLogger(component)
}
