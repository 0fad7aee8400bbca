// SPDX-License-Identifier: MIT

// Package daemon owns the process lifecycle: the API and metrics listeners
// and an ordered graceful shutdown.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelvault/reelvault/internal/config"
	"github.com/reelvault/reelvault/internal/log"
)

// ErrManagerNotStarted is returned by Shutdown before Start was called.
var ErrManagerNotStarted = errors.New("daemon manager not started")

// ShutdownHook performs cleanup during graceful shutdown. Hooks run in
// reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

// Deps are the handlers the manager serves. MetricsHandler may be nil when
// the metrics listener is disabled.
type Deps struct {
	APIHandler     http.Handler
	MetricsHandler http.Handler
}

// Manager starts the HTTP listeners and coordinates shutdown.
type Manager struct {
	cfg  config.Config
	deps Deps

	apiServer     *http.Server
	metricsServer *http.Server

	shutdownHooks []namedHook

	started  bool
	stopping bool
	mu       sync.Mutex

	logger zerolog.Logger
}

type namedHook struct {
	name string
	hook ShutdownHook
}

// NewManager creates a manager for the given configuration.
func NewManager(cfg config.Config, deps Deps) (*Manager, error) {
	if deps.APIHandler == nil {
		return nil, fmt.Errorf("api handler is required")
	}
	return &Manager{
		cfg:    cfg,
		deps:   deps,
		logger: log.WithComponent("daemon"),
	}, nil
}

// RegisterShutdownHook registers a cleanup function, executed LIFO during
// shutdown.
func (m *Manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownHooks = append(m.shutdownHooks, namedHook{name: name, hook: hook})
}

// Start brings up the listeners and blocks until ctx is cancelled or a
// server fails, then performs a bounded graceful shutdown.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("manager already started")
	}
	m.started = true
	m.mu.Unlock()

	m.logger.Info().
		Str("event", "daemon.start").
		Str("listen", m.cfg.ListenAddr).
		Str("metrics", m.cfg.MetricsAddr).
		Msg("starting daemon")

	errChan := make(chan error, 2)

	if m.cfg.MetricsAddr != "" && m.deps.MetricsHandler != nil {
		m.startMetricsServer(errChan)
	}
	m.startAPIServer(errChan)

	select {
	case err := <-errChan:
		m.logger.Error().Err(err).Str("event", "daemon.server_failed").Msg("server error, shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if shutdownErr := m.Shutdown(shutdownCtx); shutdownErr != nil {
			return errors.Join(err, shutdownErr)
		}
		return err
	case <-ctx.Done():
		m.logger.Info().Str("event", "daemon.signal").Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		return m.Shutdown(shutdownCtx)
	}
}

func (m *Manager) startAPIServer(errChan chan<- error) {
	m.apiServer = &http.Server{
		Addr:              m.cfg.ListenAddr,
		Handler:           m.deps.APIHandler,
		ReadTimeout:       m.cfg.ReadTimeout,
		ReadHeaderTimeout: m.cfg.ReadTimeout / 2,
		WriteTimeout:      m.cfg.WriteTimeout,
	}

	go func() {
		m.logger.Info().Str("addr", m.cfg.ListenAddr).Msg("API server listening")
		if err := m.apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("api server: %w", err)
		}
	}()
}

func (m *Manager) startMetricsServer(errChan chan<- error) {
	m.metricsServer = &http.Server{
		Addr:              m.cfg.MetricsAddr,
		Handler:           m.deps.MetricsHandler,
		ReadHeaderTimeout: m.cfg.ReadTimeout / 2,
	}

	go func() {
		m.logger.Info().Str("addr", m.cfg.MetricsAddr).Msg("metrics server listening")
		if err := m.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("metrics server: %w", err)
		}
	}()
}

// Shutdown stops the listeners and runs the hooks. It is safe to call more
// than once; later calls are no-ops.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	m.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error

	if m.apiServer != nil {
		if err := m.apiServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("api server shutdown: %w", err))
		}
	}
	if m.metricsServer != nil {
		if err := m.metricsServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	for i := len(m.shutdownHooks) - 1; i >= 0; i-- {
		h := m.shutdownHooks[i]
		start := time.Now()
		if err := h.hook(shutdownCtx); err != nil {
			m.logger.Error().
				Err(err).
				Str("hook", h.name).
				Dur("elapsed", time.Since(start)).
				Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", h.name, err))
			continue
		}
		m.logger.Debug().
			Str("hook", h.name).
			Dur("elapsed", time.Since(start)).
			Msg("shutdown hook completed")
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	m.logger.Info().Str("event", "daemon.stopped").Msg("daemon stopped cleanly")
	return nil
}
