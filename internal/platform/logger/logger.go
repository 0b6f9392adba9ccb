// Package logger provides structured logging for the benchmark.
// Every run, frame and opt-in extra should be traceable through this.
package logger

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Logger provides structured logging with context.
// Output goes to stderr by default so stdout stays reserved for the report.
type Logger struct {
	base *log.Logger
}

// NewLogger creates a new logger instance writing to stderr at info level.
func NewLogger() *Logger {
	return New(os.Stderr, "info")
}

// New creates a logger writing to w. Unknown levels fall back to info.
func New(w io.Writer, level string) *Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return &Logger{
		base: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			Prefix:          "gamebench",
			Level:           lvl,
		}),
	}
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *Logger {
	return New(io.Discard, "error")
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{base: l.base.With(keyvals...)}
}

// Debug logs verbose diagnostics.
func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	l.base.Debug(msg, keyvals...)
}

// Info logs informational messages.
func (l *Logger) Info(msg string, keyvals ...interface{}) {
	l.base.Info(msg, keyvals...)
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	l.base.Warn(msg, keyvals...)
}

// Error logs error messages.
func (l *Logger) Error(msg string, keyvals ...interface{}) {
	l.base.Error(msg, keyvals...)
}

// Event logs a run-level event such as a finished frame.
func (l *Logger) Event(eventType string, actorID string, details string) {
	l.base.Info("event", "type", eventType, "actor", actorID, "details", details)
}
