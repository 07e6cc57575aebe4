// Package logger provides the structured logger shared by all packages.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger so call sites can add adapter-specific helpers.
type Logger struct {
	*slog.Logger
}

// New returns a JSON logger, or a debug-level text logger in development.
func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter is New with an explicit sink.
func NewWithWriter(env string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// Discard returns a logger that drops everything. Used by tests and as a nil fallback.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *Logger) *Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// WithRequestID returns a logger that tags every record with the request id.
func (l *Logger) WithRequestID(requestID string) *Logger {
	if requestID == "" {
		return l
	}
	return &Logger{Logger: l.Logger.With(slog.String("request_id", requestID))}
}

// With returns a logger with extra attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// HTTPRequest logs a served request.
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
	)
}
