// SPDX-License-Identifier: MIT

package merge

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/reelvault/reelvault/internal/store"
)

// Catalog is the file-store capability the pipeline consumes.
type Catalog interface {
	Root() string
	Walk() ([]store.Entry, error)
}

// discover returns the candidate files for date, sorted ascending by
// filename. A missing source root is ErrSourceNotFound; zero matches is an
// empty slice, not an error.
func (m *Merger) discover(date time.Time) ([]Candidate, error) {
	root := m.catalog.Root()
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", root, ErrSourceNotFound)
		}
		return nil, fmt.Errorf("stat source root: %w", err)
	}

	entries, err := m.catalog.Walk()
	if err != nil {
		return nil, fmt.Errorf("enumerate source root: %w", err)
	}

	// The merged artifact itself carries the date in its name; skip it so a
	// re-run never feeds the previous output back into the concat.
	artifact := date.Format(dateLayout) + ".mp4"

	candidates := make([]Candidate, 0, len(entries))
	for _, e := range entries {
		if e.Name == artifact {
			continue
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(e.Name)), ".")
		if _, ok := m.exts[ext]; !ok {
			continue
		}
		d, ok := ExtractDate(e.Name)
		if !ok || !MatchesDate(e.Name, date) {
			continue
		}
		candidates = append(candidates, Candidate{
			Path: filepath.Join(root, filepath.FromSlash(e.Path)),
			Name: e.Name,
			Date: d,
		})
	}

	// Filenames carry sortable timestamp suffixes, so bytewise filename
	// order approximates chronological order and is independent of the
	// enumeration order.
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Name < candidates[j].Name })
	return candidates, nil
}
