package api

import (
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"food-order-backend/internal/telemetry"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id, logs its outcome and turns
// panics into a 500.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		rw := telemetry.NewResponseWriter(w)
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("Panic recovered", "request_id", id, "panic", rec, "stack", string(debug.Stack()))
				writeDetail(rw, http.StatusInternalServerError, "Internal server error")
			}
			slog.Info("Request processed",
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.StatusCode,
				"ip", clientIP(r),
				"duration", time.Since(start),
			)
		}()

		next.ServeHTTP(rw, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
