package errors

import (
	"fmt"

	"cellar/internal/infrastructure/logging"
)

// LoggerBridge adapts the logging.Logger interface to RetryLogger
type LoggerBridge struct {
	logger logging.Logger
}

// NewLoggerBridge creates a new bridge from logging.Logger to RetryLogger
func NewLoggerBridge(logger logging.Logger) RetryLogger {
	return &LoggerBridge{logger: logger}
}

// Printf implements RetryLogger by formatting the message and logging it at WARN
func (b *LoggerBridge) Printf(format string, v ...interface{}) {
	if b.logger != nil {
		b.logger.Warn(fmt.Sprintf(format, v...), "source", "retry")
	}
}
