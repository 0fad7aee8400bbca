// SPDX-License-Identifier: MIT

package merge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelvault/reelvault/internal/store"
)

// fakeStrategy records invocations and delegates behavior to onRun.
type fakeStrategy struct {
	name  string
	mu    sync.Mutex
	calls [][]string
	onRun func(inputs []string, output string) error
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Run(_ context.Context, inputs []string, output string) error {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), inputs...))
	f.mu.Unlock()
	if f.onRun != nil {
		return f.onRun(inputs, output)
	}
	return nil
}

func (f *fakeStrategy) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func writeOutput(content string) func([]string, string) error {
	return func(_ []string, output string) error {
		return os.WriteFile(output, []byte(content), 0o644)
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func newTestMerger(t *testing.T, fast, fallback Strategy) (*Merger, *store.Store) {
	t.Helper()
	cat, err := store.New("source", t.TempDir())
	require.NoError(t, err)
	m := New(cat, Options{
		VideoExts: []string{"mp4", "avi", "mov", "mkv", "flv", "wmv", "webm"},
		Fast:      fast,
		Fallback:  fallback,
	})
	return m, cat
}

func addVideo(t *testing.T, cat *store.Store, rel string) {
	t.Helper()
	abs := filepath.Join(cat.Root(), filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte("stub video"), 0o644))
}

func TestRun_NoCandidates_NoTranscoderInvoked(t *testing.T) {
	fast := &fakeStrategy{name: "fastcopy"}
	fallback := &fakeStrategy{name: "reencode"}
	m, cat := newTestMerger(t, fast, fallback)
	addVideo(t, cat, "other_2024-05-02.mp4")
	addVideo(t, cat, "not_a_video_2024-05-01.txt")

	res := m.Run(context.Background(), Request{TargetDate: mustDate(t, "2024-05-01")})

	assert.Equal(t, StatusFailure, res.Status)
	assert.ErrorIs(t, res.Err, ErrNoCandidates)
	assert.Zero(t, fast.callCount())
	assert.Zero(t, fallback.callCount())
}

func TestRun_SourceRootMissing(t *testing.T) {
	fast := &fakeStrategy{name: "fastcopy"}
	m, cat := newTestMerger(t, fast, &fakeStrategy{name: "reencode"})
	require.NoError(t, os.RemoveAll(cat.Root()))

	res := m.Run(context.Background(), Request{TargetDate: mustDate(t, "2024-05-01")})

	assert.Equal(t, StatusFailure, res.Status)
	assert.ErrorIs(t, res.Err, ErrSourceNotFound)
	assert.Zero(t, fast.callCount())
}

func TestRun_FastCopySuccess(t *testing.T) {
	fast := &fakeStrategy{name: "fastcopy", onRun: writeOutput("merged fast")}
	fallback := &fakeStrategy{name: "reencode"}
	m, cat := newTestMerger(t, fast, fallback)
	addVideo(t, cat, "a_2024-05-01.mp4")
	addVideo(t, cat, "b_2024-05-01.mp4")
	addVideo(t, cat, "c_2024-05-02.mp4")

	res := m.Run(context.Background(), Request{TargetDate: mustDate(t, "2024-05-01")})

	require.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, MethodFastCopy, res.Method)
	assert.Equal(t, 2, res.InputCount)
	assert.Equal(t, filepath.Join(cat.Root(), "2024-05-01.mp4"), res.OutputPath)
	assert.Equal(t, int64(len("merged fast")), res.OutputSizeBytes)
	assert.Zero(t, fallback.callCount())

	// Inputs were the matching files only, in filename order.
	require.Len(t, fast.calls, 1)
	require.Len(t, fast.calls[0], 2)
	assert.Equal(t, "a_2024-05-01.mp4", filepath.Base(fast.calls[0][0]))
	assert.Equal(t, "b_2024-05-01.mp4", filepath.Base(fast.calls[0][1]))

	// The unrelated file is untouched.
	data, err := os.ReadFile(filepath.Join(cat.Root(), "c_2024-05-02.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "stub video", string(data))
}

func TestRun_FallsBackToReencode(t *testing.T) {
	fast := &fakeStrategy{name: "fastcopy", onRun: func([]string, string) error {
		return errors.New("codec parameters mismatch")
	}}
	fallback := &fakeStrategy{name: "reencode", onRun: writeOutput("merged reencoded")}
	m, cat := newTestMerger(t, fast, fallback)
	addVideo(t, cat, "a_2024-05-01.mp4")

	res := m.Run(context.Background(), Request{TargetDate: mustDate(t, "2024-05-01")})

	require.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, MethodReencode, res.Method)
	assert.Equal(t, 1, fast.callCount())
	assert.Equal(t, 1, fallback.callCount())
}

func TestRun_BothStrategiesFail(t *testing.T) {
	fast := &fakeStrategy{name: "fastcopy", onRun: func([]string, string) error {
		return errors.New("fast failed")
	}}
	fallback := &fakeStrategy{name: "reencode", onRun: func([]string, string) error {
		return errors.New("reencode failed")
	}}
	m, cat := newTestMerger(t, fast, fallback)
	addVideo(t, cat, "a_2024-05-01.mp4")

	res := m.Run(context.Background(), Request{TargetDate: mustDate(t, "2024-05-01")})

	assert.Equal(t, StatusFailure, res.Status)
	assert.Equal(t, MethodReencode, res.Method)
	// The surfaced message is the fallback's, per the fallthrough contract.
	assert.Contains(t, res.Message, "reencode failed")
}

func TestRun_OrderingIndependentOfEnumeration(t *testing.T) {
	fast := &fakeStrategy{name: "fastcopy", onRun: writeOutput("out")}
	m, cat := newTestMerger(t, fast, &fakeStrategy{name: "reencode"})
	// Path order (b_... < sub/a_...) differs from filename order (a_... < b_...).
	addVideo(t, cat, "b_2024-05-01.mp4")
	addVideo(t, cat, "sub/a_2024-05-01.mp4")

	res := m.Run(context.Background(), Request{TargetDate: mustDate(t, "2024-05-01")})

	require.Equal(t, StatusSuccess, res.Status)
	require.Len(t, fast.calls, 1)
	assert.Equal(t, "a_2024-05-01.mp4", filepath.Base(fast.calls[0][0]))
	assert.Equal(t, "b_2024-05-01.mp4", filepath.Base(fast.calls[0][1]))
}

func TestRun_OverwritesPriorArtifactAndExcludesIt(t *testing.T) {
	fast := &fakeStrategy{name: "fastcopy", onRun: writeOutput("fresh artifact")}
	m, cat := newTestMerger(t, fast, &fakeStrategy{name: "reencode"})
	addVideo(t, cat, "a_2024-05-01.mp4")
	// Artifact from an earlier run for the same date.
	require.NoError(t, os.WriteFile(filepath.Join(cat.Root(), "2024-05-01.mp4"), []byte("stale"), 0o644))

	res := m.Run(context.Background(), Request{TargetDate: mustDate(t, "2024-05-01")})

	require.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 1, res.InputCount, "prior artifact must not be a merge input")
	assert.Equal(t, int64(len("fresh artifact")), res.OutputSizeBytes)
}

func TestRun_RecoversFromStrategyPanic(t *testing.T) {
	fast := &fakeStrategy{name: "fastcopy", onRun: func([]string, string) error {
		panic("boom")
	}}
	m, cat := newTestMerger(t, fast, &fakeStrategy{name: "reencode"})
	addVideo(t, cat, "a_2024-05-01.mp4")

	res := m.Run(context.Background(), Request{TargetDate: mustDate(t, "2024-05-01")})

	assert.Equal(t, StatusFailure, res.Status)
	assert.Contains(t, res.Message, "panicked")
}

func TestRun_ConcurrentSameDateCollapses(t *testing.T) {
	var running atomic.Int32
	release := make(chan struct{})
	fast := &fakeStrategy{name: "fastcopy", onRun: func(_ []string, output string) error {
		running.Add(1)
		<-release
		return os.WriteFile(output, []byte("out"), 0o644)
	}}
	m, cat := newTestMerger(t, fast, &fakeStrategy{name: "reencode"})
	addVideo(t, cat, "a_2024-05-01.mp4")

	req := Request{TargetDate: mustDate(t, "2024-05-01")}
	results := make(chan Result, 2)
	for i := 0; i < 2; i++ {
		go func() {
			results <- m.Run(context.Background(), req)
		}()
	}

	// Give both goroutines time to reach the singleflight barrier, then let
	// the single execution finish.
	time.Sleep(50 * time.Millisecond)
	close(release)

	r1, r2 := <-results, <-results
	assert.Equal(t, StatusSuccess, r1.Status)
	assert.Equal(t, r1.OutputPath, r2.OutputPath)
	assert.Equal(t, 1, fast.callCount(), "same-date runs must share one execution")
	assert.Equal(t, int32(1), running.Load())
}
