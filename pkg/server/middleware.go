package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/linkroute/pkg/observability"
)

// logRequests logs every request with its request id and reports it to the
// HTTP hooks. It runs after middleware.RequestID.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := middleware.GetReqID(ctx)
		w.Header().Set("X-Request-ID", requestID)

		hooks := observability.HTTP()
		hooks.OnRequest(ctx, r.Method, r.URL.Path)

		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start)

		status := wrapped.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(ctx, r.Method, r.URL.Path, status, duration)

		fields := []any{
			"id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", duration,
		}
		if status >= 500 {
			s.logger.Error("request failed", fields...)
		} else {
			s.logger.Debug("request", fields...)
		}
	})
}
