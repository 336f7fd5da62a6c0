// Package log provides the engine's structured logging, a thin wrapper
// over log/slog so that a session's LogOutput can be swapped at runtime
// without threading a *slog.Logger through every call site.
package log

import (
	"io"
	"log/slog"
)

// LazyLogger resolves the current default logger on every call, so a
// session created before the embedder calls SetOutput still picks up the
// new destination.
type LazyLogger struct {
	component string
}

// Logger returns a LazyLogger tagged with component.
func Logger(component string) *LazyLogger {
	return &LazyLogger{component: component}
}

func (l *LazyLogger) Debug(msg string, args ...any) {
	slog.Default().With("component", l.component).Debug(msg, args...)
}

func (l *LazyLogger) Info(msg string, args ...any) {
	slog.Default().With("component", l.component).Info(msg, args...)
}

func (l *LazyLogger) Warn(msg string, args ...any) {
	slog.Default().With("component", l.component).Warn(msg, args...)
}

func (l *LazyLogger) Error(msg string, args ...any) {
	slog.Default().With("component", l.component).Error(msg, args...)
}

// SetOutput redirects the package-wide default logger to w at the given
// level. A session never owns its own *slog.Logger; it always goes
// through slog.Default() via LazyLogger, so this affects every session
// already constructed.
func SetOutput(w io.Writer, level slog.Level) {
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
