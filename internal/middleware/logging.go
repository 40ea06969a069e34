package middleware

import (
	"context"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/leftovers/server/internal/observability"
)

type contextKey string

// LoggerContextKey holds the request scoped logger
const LoggerContextKey contextKey = "logger"

// GetLoggerFromContext returns the request scoped logger, or the default one
func GetLoggerFromContext(ctx context.Context) *observability.Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*observability.Logger); ok {
		return logger
	}
	return observability.GetLogger()
}

// RequestLogger logs one line per request tagged with chi's request id.
// The tagged logger is stored in the request context for handlers.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		logger := observability.WithFields(map[string]interface{}{
			"request_id": chimw.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		})
		ctx := context.WithValue(r.Context(), LoggerContextKey, logger)

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		entry := logger.WithFields(map[string]interface{}{
			"status":      status,
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		switch {
		case status >= 500:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Debug("request served")
		}
	})
}

// MaxBodySize caps the request body at limit bytes
func MaxBodySize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
