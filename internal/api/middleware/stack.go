// SPDX-License-Identifier: MIT

// Package middleware provides the canonical HTTP ingress middleware stack.
package middleware

import (
	"github.com/go-chi/chi/v5"
)

// StackConfig configures the cross-cutting concerns applied to every route.
type StackConfig struct {
	AllowedOrigins []string

	EnableMetrics bool
	EnableLogging bool

	// Global rate limit, requests per minute per client IP. 0 disables.
	RateLimitRPM int
}

// NewRouter constructs a chi router with the canonical middleware stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack applies the canonical middleware stack to r.
func ApplyStack(r chi.Router, cfg StackConfig) {
	// Recoverer is the outermost safety net.
	r.Use(Recoverer)
	// RequestID early so everything downstream can correlate.
	r.Use(RequestID)
	r.Use(CORS(cfg.AllowedOrigins))
	r.Use(SecurityHeaders)
	if cfg.EnableMetrics {
		r.Use(Metrics())
	}
	if cfg.EnableLogging {
		r.Use(Logging)
	}
	if cfg.RateLimitRPM > 0 {
		r.Use(RateLimit(cfg.RateLimitRPM))
	}
}
