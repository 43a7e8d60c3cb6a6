package log

import (
	"context"
	"log/slog"
	"net/http"

	"fintrack/internal/middleware/trace"
)

type contextKey string

const loggerKey contextKey = "logger"

// Middleware stores the logger in the request context so handlers deep in
// the call chain can log with the same component and attributes. Requests
// already tagged by trace carry their request ID on every line.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := logger
			if id := trace.GetRequestID(r.Context()); id != "" {
				reqLogger = logger.With("request_id", id)
			}
			ctx := context.WithValue(r.Context(), loggerKey, reqLogger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext returns the request-scoped logger, or a logger over the slog
// default when the request was not routed through Middleware.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerKey).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default(), component: ComponentApp}
}
