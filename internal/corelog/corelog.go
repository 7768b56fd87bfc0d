// Package corelog wraps structured logging (log/slog) with the
// attributes every planner run wants attached to each line: algorithm
// name, a per-run correlation id, and (when relevant) the current
// tick. It is nil-safe so callers can pass a *Logger obtained once at
// startup through every layer without a nil check at each call site.
package corelog

import (
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// Logger wraps a *slog.Logger pre-bound with a run's identifying
// attributes.
type Logger struct {
	base  *slog.Logger
	runID string
}

// New builds a Logger writing JSON lines to w, bound to algorithm and a
// freshly generated run id.
func New(w io.Writer, algorithm string) *Logger {
	runID := uuid.NewString()
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	base := slog.New(h).With("algorithm", algorithm, "run_id", runID)
	return &Logger{base: base, runID: runID}
}

// Default builds a Logger writing to stderr.
func Default(algorithm string) *Logger {
	return New(os.Stderr, algorithm)
}

// NopLogger returns a Logger that discards every line, for use in tests.
func NopLogger() *Logger {
	return New(io.Discard, "nop")
}

// RunID returns the logger's correlation id.
func (l *Logger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

// Tick returns a logger with the current simulation tick attached,
// used inside a planner's main loop.
func (l *Logger) Tick(t int) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{base: l.base.With("tick", t), runID: l.runID}
}

func (l *Logger) Info(msg string, args ...any) {
	if l == nil {
		return
	}
	l.base.Info(msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	if l == nil {
		return
	}
	l.base.Warn(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	if l == nil {
		return
	}
	l.base.Error(msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	if l == nil {
		return
	}
	l.base.Debug(msg, args...)
}
