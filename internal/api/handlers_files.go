// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/reelvault/reelvault/internal/log"
	"github.com/reelvault/reelvault/internal/store"
)

func (s *Server) handleFilesList(w http.ResponseWriter, r *http.Request) {
	s.listTree(w, s.files, "")
}

func (s *Server) handleFilesBrowse(w http.ResponseWriter, r *http.Request) {
	s.listTree(w, s.files, r.URL.Query().Get("path"))
}

// listTree writes the direct children of rel in the given store.
func (s *Server) listTree(w http.ResponseWriter, st *store.Store, rel string) {
	entries, err := st.List(rel)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeNotFound(w, "directory not found")
		default:
			writeBadRequest(w, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"root":    st.Name(),
		"path":    rel,
		"count":   len(entries),
		"entries": entries,
	})
}

func (s *Server) handleFilesDownload(w http.ResponseWriter, r *http.Request) {
	s.downloadFrom(w, r, s.files)
}

// downloadFrom streams one regular file out of st.
func (s *Server) downloadFrom(w http.ResponseWriter, r *http.Request, st *store.Store) {
	rel := r.URL.Query().Get("path")
	if rel == "" {
		writeBadRequest(w, "path is required")
		return
	}
	info, err := st.Stat(rel)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeNotFound(w, "file not found")
			return
		}
		writeBadRequest(w, err.Error())
		return
	}
	if info.IsDir() {
		writeBadRequest(w, "path is a directory")
		return
	}

	abs, err := st.Resolve(rel)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	f, err := os.Open(abs)
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}
	defer f.Close()

	setDownloadHeaders(w, info.Name(), info.Size(), info.ModTime())
	_, _ = io.Copy(w, f)
}

type deleteRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleFilesDelete(w http.ResponseWriter, r *http.Request) {
	s.deleteFrom(w, r, s.files)
}

func (s *Server) deleteFrom(w http.ResponseWriter, r *http.Request, st *store.Store) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeBadRequest(w, "body must be {\"path\": \"...\"}")
		return
	}

	if _, err := st.Stat(req.Path); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeNotFound(w, "file not found")
			return
		}
		writeBadRequest(w, err.Error())
		return
	}
	if err := st.Delete(req.Path); err != nil {
		writeInternalError(w, err.Error())
		return
	}

	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Info().
		Str("event", "files.delete").
		Str("root", st.Name()).
		Str("path", req.Path).
		Msg("deleted")
	writeJSON(w, http.StatusOK, map[string]string{"deleted": req.Path})
}

type deleteMultipleRequest struct {
	Paths []string `json:"paths"`
}

func (s *Server) handleFilesDeleteMultiple(w http.ResponseWriter, r *http.Request) {
	var req deleteMultipleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Paths) == 0 {
		writeBadRequest(w, "body must be {\"paths\": [...]}")
		return
	}

	deleted, failures := s.files.DeleteMany(req.Paths)

	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Info().
		Str("event", "files.delete_multiple").
		Int("deleted", deleted).
		Int("failed", len(failures)).
		Msg("bulk delete completed")

	code := http.StatusOK
	if deleted == 0 && len(failures) > 0 {
		code = http.StatusBadRequest
	}
	writeJSON(w, code, map[string]any{
		"deleted":  deleted,
		"failures": failures,
	})
}

type zipRequest struct {
	Paths []string `json:"paths"`
}

func (s *Server) handleFilesZip(w http.ResponseWriter, r *http.Request) {
	var req zipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Paths) == 0 {
		writeBadRequest(w, "body must be {\"paths\": [...]}")
		return
	}

	name := "reelvault_" + s.now().Format("20060102_150405") + ".zip"
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")

	added, err := s.files.Zip(w, req.Paths)
	logger := log.WithComponentFromContext(r.Context(), "api")
	if err != nil {
		// Headers are already on the wire; all we can do is log.
		logger.Error().
			Str("event", "files.zip.failed").
			Err(err).
			Msg("zip stream aborted")
		return
	}
	logger.Info().
		Str("event", "files.zip").
		Int("requested", len(req.Paths)).
		Int("added", added).
		Msg("zip archive streamed")
}
