package logger

import (
	"context"
	"log/slog"
)

type loggerCtxKey struct{}

// With stores a child logger carrying the given fields in the context. Request
// middleware uses it to stamp the trace ID once so every downstream log line
// inherits it.
func With(ctx context.Context, fields ...any) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, From(ctx).With(fields...))
}

// From returns the logger stored in the context, falling back to the shared one.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*slog.Logger); ok {
		return l
	}
	return LoggerWrapper()
}
