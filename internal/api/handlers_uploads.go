// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/reelvault/reelvault/internal/log"
)

// maxUploadBytes caps a single multipart upload at 4 GiB.
const maxUploadBytes = 4 << 30

func (s *Server) handleUploadsList(w http.ResponseWriter, r *http.Request) {
	s.listTree(w, s.uploads, r.URL.Query().Get("path"))
}

func (s *Server) handleUploadsCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeBadRequest(w, "multipart form expected")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "form field \"file\" is required")
		return
	}
	defer file.Close()

	// Windows-style separators survive filepath.Base on other platforms
	// and would only be rejected deep inside the store; refuse them here.
	if strings.Contains(header.Filename, "\\") {
		writeBadRequest(w, "invalid file name")
		return
	}
	// Browsers may send a full client path; keep only the base name.
	name := filepath.Base(header.Filename)
	if name == "." || name == "/" || name == "" {
		writeBadRequest(w, "invalid file name")
		return
	}

	written, err := s.uploads.Save(name, file)
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}

	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Info().
		Str("event", "uploads.create").
		Str("name", name).
		Int64("bytes", written).
		Msg("upload stored")
	writeJSON(w, http.StatusCreated, map[string]any{
		"name": name,
		"size": written,
	})
}

func (s *Server) handleUploadsDownload(w http.ResponseWriter, r *http.Request) {
	s.downloadFrom(w, r, s.uploads)
}

func (s *Server) handleUploadsDelete(w http.ResponseWriter, r *http.Request) {
	s.deleteFrom(w, r, s.uploads)
}
