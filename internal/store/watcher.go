// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/reelvault/reelvault/internal/log"
	"github.com/reelvault/reelvault/internal/metrics"
)

// Watcher keeps the per-root file gauge current as recordings arrive or are
// removed. It watches the root directory only; a full recount on every event
// keeps the gauge honest without tracking subdirectories individually.
type Watcher struct {
	store   *Store
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher starts watching the store's root and performs an initial count.
func NewWatcher(s *Store) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(s.Root()); err != nil {
		_ = fw.Close()
		return nil, err
	}
	w := &Watcher{store: s, watcher: fw, done: make(chan struct{})}
	w.recount()
	return w, nil
}

// Run processes events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	logger := log.WithComponent("store-watcher")
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.recount()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn().
				Err(err).
				Str("event", "watch.error").
				Str("root", w.store.Root()).
				Msg("file watcher error")
		}
	}
}

// Close stops the underlying watcher and waits for Run to return.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) recount() {
	entries, err := w.store.Walk()
	if err != nil {
		logger := log.WithComponent("store-watcher")
		logger.Warn().
			Err(err).
			Str("root", w.store.Root()).
			Msg("recount failed")
		return
	}
	metrics.RecordStoreFiles(w.store.Name(), len(entries))
}
