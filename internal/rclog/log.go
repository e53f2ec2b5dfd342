// Package rclog provides the small structured-logging shim used to trace
// cycle-collector diagnostics. It wraps log/slog the same way pkg/log wraps
// it for the rest of the node; rc itself never depends on an output format,
// only on this thin seam, so tests can swap in a handler that records
// entries instead of writing to stderr.
package rclog

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with the handful of calls the collector needs.
type Logger struct {
	inner *slog.Logger
}

var defaultLogger *Logger

func init() {
	defaultLogger = New(slog.LevelWarn)
}

// New creates a Logger that writes JSON to stderr at the given level.
func New(level slog.Level) *Logger {
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{inner: slog.New(h)}
}

// NewWithHandler creates a Logger backed by the supplied slog.Handler. Tests
// use this to capture diagnostics instead of writing to stderr.
func NewWithHandler(h slog.Handler) *Logger {
	return &Logger{inner: slog.New(h)}
}

// SetDefault replaces the package-level default logger.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Default returns the current package-level default logger, used by
// CollectorConfig values that don't set one explicitly.
func Default() *Logger {
	return defaultLogger
}

// Warn logs at LevelWarn. The collector only ever logs at this level: a
// defensive-fallback or component-size-cap trip is always worth surfacing,
// never merely informational.
func (l *Logger) Warn(msg string, args ...any) {
	if l == nil {
		return
	}
	l.inner.Warn(msg, args...)
}
