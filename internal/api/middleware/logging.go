// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"time"

	"github.com/reelvault/reelvault/internal/log"
)

// Logging emits one structured log line per completed request.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := &metricsWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lw, r)

		logger := log.WithComponentFromContext(r.Context(), "http")
		logger.Info().
			Str("event", "http.request").
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", lw.statusCode).
			Int("bytes", lw.bytesWritten).
			Dur("elapsed", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("request completed")
	})
}
