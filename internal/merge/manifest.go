// SPDX-License-Identifier: MIT

package merge

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// writeConcatManifest writes the ordered input list in the concat demuxer's
// format to a temp file. The returned cleanup removes the file and must run
// on every exit path; a manifest is never reused across attempts.
func writeConcatManifest(inputs []string) (string, func(), error) {
	f, err := os.CreateTemp("", "reelvault_concat_*.txt")
	if err != nil {
		return "", func() {}, fmt.Errorf("create concat manifest: %w", err)
	}
	cleanup := func() {
		_ = os.Remove(f.Name())
	}

	w := bufio.NewWriter(f)
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			_ = f.Close()
			cleanup()
			return "", func() {}, err
		}
		// Single quotes inside the path must be escaped for the demuxer.
		safe := strings.ReplaceAll(abs, "'", `'\''`)
		if _, err := fmt.Fprintf(w, "file '%s'\n", safe); err != nil {
			_ = f.Close()
			cleanup()
			return "", func() {}, err
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		cleanup()
		return "", func() {}, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", func() {}, err
	}
	return f.Name(), cleanup, nil
}
