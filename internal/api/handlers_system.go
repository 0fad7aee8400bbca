// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"os"
)

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz reports ready once both managed roots are reachable.
func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	for _, root := range []string{s.files.Root(), s.uploads.Root()} {
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"root":   root,
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
