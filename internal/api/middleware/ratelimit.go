// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit limits each client IP to rpm requests per minute using a sliding
// window counter. rpm <= 0 disables the limiter.
func RateLimit(rpm int) func(http.Handler) http.Handler {
	if rpm <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		rpm,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limit_exceeded"}`))
		}),
	)
}
