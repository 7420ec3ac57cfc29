package errors

import (
	"fmt"

	"sidedock/internal/infrastructure/logging"
)

// LoggerBridge adapts logging.Logger to RetryLogger
type LoggerBridge struct {
	logger logging.Logger
}

// NewLoggerBridge wraps logger so retry progress lands in the structured log
func NewLoggerBridge(logger logging.Logger) RetryLogger {
	return &LoggerBridge{logger: logger}
}

// Printf formats the message and logs it at warn level, tagged as a retry
func (b *LoggerBridge) Printf(format string, v ...interface{}) {
	if b.logger == nil {
		return
	}
	b.logger.Warn(fmt.Sprintf(format, v...), "component", "retry")
}
