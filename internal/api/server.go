// SPDX-License-Identifier: MIT

// Package api exposes the file-management and merge operations over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reelvault/reelvault/internal/api/middleware"
	"github.com/reelvault/reelvault/internal/config"
	"github.com/reelvault/reelvault/internal/merge"
	"github.com/reelvault/reelvault/internal/store"
)

// MergeTrigger enqueues a merge run for date and waits for its result.
// Implemented by sched.Scheduler.
type MergeTrigger interface {
	TriggerManual(ctx context.Context, date time.Time) (merge.Result, error)
}

// Server holds the handler dependencies and builds the router.
type Server struct {
	cfg     config.Config
	files   *store.Store
	uploads *store.Store
	trigger MergeTrigger

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// New constructs a Server over the two managed trees and the merge trigger.
func New(cfg config.Config, files, uploads *store.Store, trigger MergeTrigger) *Server {
	return &Server{
		cfg:     cfg,
		files:   files,
		uploads: uploads,
		trigger: trigger,
		now:     time.Now,
	}
}

// Handler assembles the chi router with the canonical middleware stack.
func (s *Server) Handler() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		AllowedOrigins: s.cfg.AllowedOrigins,
		EnableMetrics:  true,
		EnableLogging:  true,
		RateLimitRPM:   s.cfg.RateLimitRPM,
	})

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	r.Route("/api/files", func(r chi.Router) {
		// The merge trigger spawns ffmpeg; it gets its own tighter limiter.
		r.With(middleware.RateLimit(s.cfg.MergeLimitRPM)).
			Get("/merge-today", s.handleMergeToday)
		r.Get("/yesterday", s.handleYesterday)

		r.Get("/", s.handleFilesList)
		r.Get("/browse", s.handleFilesBrowse)
		r.Get("/download", s.handleFilesDownload)
		r.Post("/delete", s.handleFilesDelete)
		r.Post("/delete-multiple", s.handleFilesDeleteMultiple)
		r.Post("/zip", s.handleFilesZip)
	})

	r.Route("/api/uploads", func(r chi.Router) {
		r.Get("/", s.handleUploadsList)
		r.Post("/", s.handleUploadsCreate)
		r.Get("/download", s.handleUploadsDownload)
		r.Post("/delete", s.handleUploadsDelete)
	})

	return r
}
