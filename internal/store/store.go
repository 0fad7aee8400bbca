// SPDX-License-Identifier: MIT

// Package store implements the managed directory trees behind the file API:
// path-guarded listing, deletion, zip export and atomic uploads.
package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/renameio/v2"

	"github.com/reelvault/reelvault/internal/fsutil"
)

// ErrNotFound marks a path that does not exist under the managed root.
var ErrNotFound = errors.New("not found")

// Entry describes one file or directory under a managed root.
type Entry struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"` // relative to the root, forward slashes
	Size    int64     `json:"size"`
	IsDir   bool      `json:"is_dir"`
	ModTime time.Time `json:"modified"`
}

// Store provides guarded access to one directory tree.
type Store struct {
	root string
	name string // label for logs and metrics
}

// New creates a Store rooted at dir. The directory is created if missing.
func New(name, dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create root %s: %w", abs, err)
	}
	return &Store{root: abs, name: name}, nil
}

// Root returns the absolute root directory.
func (s *Store) Root() string { return s.root }

// Name returns the store's label.
func (s *Store) Name() string { return s.name }

// Resolve confines rel to the root and returns the absolute path.
func (s *Store) Resolve(rel string) (string, error) {
	return fsutil.ConfineRelPath(s.root, rel)
}

// Stat resolves rel and stats it.
func (s *Store) Stat(rel string) (os.FileInfo, error) {
	abs, err := s.Resolve(rel)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", rel, ErrNotFound)
		}
		return nil, err
	}
	return info, nil
}

// List returns the direct children of rel (or the root when rel is empty),
// directories first, each group sorted by name.
func (s *Store) List(rel string) ([]Entry, error) {
	dir := s.root
	if rel != "" && rel != "." {
		abs, err := s.Resolve(rel)
		if err != nil {
			return nil, err
		}
		dir = abs
	}

	dirents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", rel, ErrNotFound)
		}
		return nil, err
	}

	entries := make([]Entry, 0, len(dirents))
	for _, de := range dirents {
		info, err := de.Info()
		if err != nil {
			continue
		}
		childRel := de.Name()
		if rel != "" && rel != "." {
			childRel = filepath.ToSlash(filepath.Join(rel, de.Name()))
		}
		e := Entry{
			Name:    de.Name(),
			Path:    childRel,
			IsDir:   de.IsDir(),
			ModTime: info.ModTime(),
		}
		if !de.IsDir() {
			e.Size = info.Size()
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// Walk returns every regular file under the root, recursively, sorted by
// relative path.
func (s *Store) Walk() ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // entry vanished mid-walk, skip it
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{
			Name:    d.Name(),
			Path:    filepath.ToSlash(rel),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", s.root, ErrNotFound)
		}
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// Delete removes the file or directory tree at rel.
func (s *Store) Delete(rel string) error {
	abs, err := s.Resolve(rel)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", rel, ErrNotFound)
		}
		return err
	}
	if info.IsDir() {
		return os.RemoveAll(abs)
	}
	return os.Remove(abs)
}

// DeleteError records a single failure within DeleteMany.
type DeleteError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// DeleteMany removes each listed path, collecting per-path failures instead of
// stopping at the first one.
func (s *Store) DeleteMany(rels []string) (deleted int, failures []DeleteError) {
	for _, rel := range rels {
		if err := s.Delete(rel); err != nil {
			failures = append(failures, DeleteError{Path: rel, Reason: err.Error()})
			continue
		}
		deleted++
	}
	return deleted, failures
}

// Save atomically writes the contents of r to rel. Existing files are
// replaced; partially written files never become visible.
func (s *Store) Save(rel string, r io.Reader) (int64, error) {
	abs, err := s.Resolve(rel)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return 0, fmt.Errorf("create parent dir: %w", err)
	}
	pending, err := renameio.NewPendingFile(abs, renameio.WithPermissions(0o644))
	if err != nil {
		return 0, fmt.Errorf("stage upload: %w", err)
	}
	defer pending.Cleanup() //nolint:errcheck // no-op after CloseAtomicallyReplace

	n, err := io.Copy(pending, r)
	if err != nil {
		return 0, fmt.Errorf("write upload: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return 0, fmt.Errorf("finalize upload: %w", err)
	}
	return n, nil
}
