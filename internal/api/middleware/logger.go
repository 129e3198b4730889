package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/pulseai/pulseai/internal/pkg/logger"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

const logFieldsKey ContextKey = "logFields"

type logFields struct {
	mu     sync.Mutex
	values map[string]interface{}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// AddLogField adds a field to the access log line of the current request.
// Handlers use it for user_id and bucket.
func AddLogField(r *http.Request, key string, value interface{}) {
	if lf, ok := r.Context().Value(logFieldsKey).(*logFields); ok {
		lf.mu.Lock()
		lf.values[key] = value
		lf.mu.Unlock()
	}
}

// Logger returns a middleware that writes one access log line per request
func Logger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}
			lf := &logFields{values: make(map[string]interface{})}

			next.ServeHTTP(wrapped, r.WithContext(context.WithValue(r.Context(), logFieldsKey, lf)))

			fields := map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      wrapped.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
				"bytes":       wrapped.written,
				"ip":          r.RemoteAddr,
				"request_id":  GetRequestID(r),
			}
			lf.mu.Lock()
			for k, v := range lf.values {
				fields[k] = v
			}
			lf.mu.Unlock()

			entry := log.WithFields(fields)
			switch {
			case wrapped.statusCode >= http.StatusInternalServerError:
				entry.Error("HTTP request")
			case wrapped.statusCode >= http.StatusBadRequest:
				entry.Warn("HTTP request")
			default:
				entry.Info("HTTP request")
			}
		})
	}
}
