// Package middleware provides request logging and error mapping for the
// HTTP API.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Logging emits one access-log line per request, correlated with the chi
// request ID. The line is written on the way out even when a downstream
// handler panics, so failed requests still show up in the log.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			rec := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.Info("http request",
					"request_id", chimiddleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", rec.Status(),
					"bytes", rec.BytesWritten(),
					"elapsed", time.Since(start),
					"remote", r.RemoteAddr,
				)
			}()

			next.ServeHTTP(rec, r)
		}
		return http.HandlerFunc(fn)
	}
}
