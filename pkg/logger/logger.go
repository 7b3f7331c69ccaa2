package logger

import (
	"log/slog"
	"os"
)

const serviceName = "compliance-engine"

var defaultLogger *slog.Logger

// Init configures the process-wide logger. Production emits JSON at info level
// for log aggregation; any other environment gets human-readable text at debug.
// Every line carries the service name so multi-service log streams stay sortable.
func Init(env string) {
	var handler slog.Handler

	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	defaultLogger = slog.New(handler).With(slog.String("service", serviceName))
	slog.SetDefault(defaultLogger)
}

// LoggerWrapper returns the shared logger, initializing a development one on
// first use so early callers never hit a nil logger.
func LoggerWrapper() *slog.Logger {
	if defaultLogger == nil {
		Init("development")
	}
	return defaultLogger
}
