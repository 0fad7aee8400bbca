// SPDX-License-Identifier: MIT

package sched

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelvault/reelvault/internal/log"
	"github.com/reelvault/reelvault/internal/merge"
	"github.com/reelvault/reelvault/internal/metrics"
)

// Orchestrator runs one merge for a target date.
type Orchestrator interface {
	Run(ctx context.Context, req merge.Request) merge.Result
}

// Scheduler owns the daily merge trigger and the bounded worker pool shared
// by scheduled and manual runs. It is constructed at process startup and
// torn down at shutdown; a failed run never stops the next scheduled one.
type Scheduler struct {
	orch     Orchestrator
	schedule Schedule
	sem      chan struct{}

	now      func() time.Time
	newTimer func(time.Duration) *time.Timer

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Scheduler dispatching onto a pool of the given size.
func New(orch Orchestrator, schedule Schedule, workers int) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		orch:     orch,
		schedule: schedule,
		sem:      make(chan struct{}, workers),
		now:      time.Now,
		newTimer: time.NewTimer,
	}
}

// Start launches the daily trigger loop. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop cancels the trigger loop and waits for in-flight work to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// TriggerManual runs a merge for date on the worker pool and returns its
// result. It blocks the calling goroutine only; other requests keep being
// served while a slot is awaited and while the transcoder runs.
func (s *Scheduler) TriggerManual(ctx context.Context, date time.Time) (merge.Result, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return merge.Result{}, ctx.Err()
	}

	metrics.AddWorkerQueueDepth(1)
	done := make(chan merge.Result, 1)
	// Detach the run from the caller's cancellation: a disconnecting client
	// must not kill an in-flight transcode (the per-invocation ffmpeg
	// timeout remains the only bound).
	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer func() {
			<-s.sem
			metrics.AddWorkerQueueDepth(-1)
		}()
		done <- s.orch.Run(runCtx, merge.Request{TargetDate: date})
	}()

	select {
	case res := <-done:
		return res, nil
	case <-ctx.Done():
		// The worker keeps running to completion; only the caller gives up.
		return merge.Result{}, ctx.Err()
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()
	logger := log.WithComponent("scheduler")

	for {
		now := s.now()
		next, err := s.schedule.Next(now)
		if err != nil {
			logger.Error().
				Err(err).
				Str("event", "schedule.exhausted").
				Str("spec", s.schedule.String()).
				Msg("no next fire time, stopping scheduler loop")
			return
		}
		logger.Info().
			Str("event", "schedule.armed").
			Str("spec", s.schedule.String()).
			Time("next_fire", next).
			Msg("daily merge trigger armed")

		timer := s.newTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		s.runScheduled(ctx, logger)
	}
}

func (s *Scheduler) runScheduled(ctx context.Context, logger zerolog.Logger) {
	date := s.now()
	res, err := s.TriggerManual(ctx, date)
	if err != nil {
		// Shutdown raced the fire; nothing to report.
		metrics.IncScheduledRun("cancelled")
		return
	}
	if res.Status == merge.StatusSuccess {
		metrics.IncScheduledRun("success")
		logger.Info().
			Str("event", "schedule.run_success").
			Str("date", date.Format("2006-01-02")).
			Str("method", string(res.Method)).
			Int64("output_bytes", res.OutputSizeBytes).
			Msg("scheduled merge completed")
		return
	}
	metrics.IncScheduledRun("failure")
	logger.Warn().
		Str("event", "schedule.run_failed").
		Str("date", date.Format("2006-01-02")).
		Str("message", res.Message).
		Msg("scheduled merge failed")
}
