package metrics

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// Middleware records request count and latency labelled by chi route pattern.
func Middleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			code := strconv.Itoa(rw.statusCode)
			dur := time.Since(start)

			HTTPRequestDuration.WithLabelValues(r.Method, route, code).Observe(dur.Seconds())
			HTTPRequestTotal.WithLabelValues(r.Method, route, code).Inc()

			if log != nil {
				log.Debug("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"route", route,
					"status", rw.statusCode,
					"duration", dur.String(),
				)
			}
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
