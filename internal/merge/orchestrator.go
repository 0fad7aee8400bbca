// SPDX-License-Identifier: MIT

package merge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/reelvault/reelvault/internal/log"
	"github.com/reelvault/reelvault/internal/metrics"
)

// Options configures a Merger.
type Options struct {
	VideoExts []string // allow-list, compared case-insensitively without dots
	Fast      Strategy
	Fallback  Strategy
}

// Merger orchestrates one merge run: discover candidates, try the fast
// stream-copy, fall back to re-encoding. It never panics out; every run
// terminates in a Result.
type Merger struct {
	catalog  Catalog
	exts     map[string]struct{}
	fast     Strategy
	fallback Strategy
	group    singleflight.Group
}

// New builds a Merger over the given catalog.
func New(catalog Catalog, opts Options) *Merger {
	exts := make(map[string]struct{}, len(opts.VideoExts))
	for _, e := range opts.VideoExts {
		exts[normalizeExt(e)] = struct{}{}
	}
	return &Merger{
		catalog:  catalog,
		exts:     exts,
		fast:     opts.Fast,
		fallback: opts.Fallback,
	}
}

func normalizeExt(e string) string {
	for len(e) > 0 && e[0] == '.' {
		e = e[1:]
	}
	b := []byte(e)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// Run executes one orchestration for the request's target date. Concurrent
// runs for the same date are collapsed onto a single execution and share its
// Result, so two triggers cannot race on the same output file.
func (m *Merger) Run(ctx context.Context, req Request) Result {
	key := req.TargetDate.Format(dateLayout)
	v, _, _ := m.group.Do(key, func() (any, error) {
		return m.run(ctx, req.TargetDate), nil
	})
	return v.(Result)
}

func (m *Merger) run(ctx context.Context, date time.Time) (res Result) {
	logger := log.WithComponentFromContext(ctx, "merge")
	day := date.Format(dateLayout)
	start := time.Now()

	// A run must always terminate in a Result, even if a strategy or the
	// filesystem misbehaves in an unforeseen way.
	defer func() {
		if rec := recover(); rec != nil {
			res = Result{
				Status:  StatusFailure,
				Message: fmt.Sprintf("merge run panicked: %v", rec),
				Err:     fmt.Errorf("panic: %v", rec),
			}
			logger.Error().
				Str("event", "merge.panic").
				Str("date", day).
				Interface("panic_value", rec).
				Msg("merge run recovered from panic")
		}
		outcome := "failure"
		if res.Status == StatusSuccess {
			outcome = "success"
		}
		metrics.RecordMergeRun(methodLabel(res.Method), outcome, time.Since(start).Seconds())
	}()

	candidates, err := m.discover(date)
	if err != nil {
		return Result{Status: StatusFailure, Message: err.Error(), Err: err}
	}
	if len(candidates) == 0 {
		err := fmt.Errorf("%w %s", ErrNoCandidates, day)
		return Result{Status: StatusFailure, Message: err.Error(), Err: err}
	}
	metrics.RecordMergeInputs(len(candidates))

	inputs := make([]string, len(candidates))
	for i, c := range candidates {
		inputs[i] = c.Path
	}
	outputPath := filepath.Join(m.catalog.Root(), day+".mp4")

	logger.Info().
		Str("event", "merge.start").
		Str("date", day).
		Int("inputs", len(inputs)).
		Str("output", outputPath).
		Msg("starting merge")

	method := MethodFastCopy
	fastErr := m.fast.Run(ctx, inputs, outputPath)
	if fastErr != nil {
		logger.Warn().
			Err(fastErr).
			Str("event", "merge.fastcopy_failed").
			Str("date", day).
			Msg("stream-copy merge failed, falling back to re-encode")

		method = MethodReencode
		if err := m.fallback.Run(ctx, inputs, outputPath); err != nil {
			return Result{
				Status:     StatusFailure,
				Method:     method,
				Message:    err.Error(),
				InputCount: len(inputs),
				Err:        err,
			}
		}
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		err = fmt.Errorf("stat merge output: %w", err)
		return Result{
			Status:     StatusFailure,
			Method:     method,
			Message:    err.Error(),
			InputCount: len(inputs),
			Err:        err,
		}
	}
	metrics.RecordMergeOutputBytes(info.Size())

	logger.Info().
		Str("event", "merge.success").
		Str("date", day).
		Str("method", string(method)).
		Int64("output_bytes", info.Size()).
		Dur("elapsed", time.Since(start)).
		Msg("merge completed")

	return Result{
		Status:          StatusSuccess,
		Method:          method,
		OutputPath:      outputPath,
		OutputSizeBytes: info.Size(),
		Message:         fmt.Sprintf("merged %d videos for %s", len(inputs), day),
		InputCount:      len(inputs),
	}
}

func methodLabel(m Method) string {
	if m == MethodNone {
		return "none"
	}
	return string(m)
}
