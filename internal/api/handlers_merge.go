// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/reelvault/reelvault/internal/log"
	"github.com/reelvault/reelvault/internal/merge"
)

const dateLayout = "2006-01-02"

// referenceDate resolves the optional date_now query parameter, defaulting
// to the current day. The bool is false when the parameter is malformed.
func (s *Server) referenceDate(r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date_now")
	if raw == "" {
		return s.now(), true
	}
	d, err := time.ParseInLocation(dateLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// handleMergeToday triggers a merge for the reference date and waits for
// the result. Concurrent triggers for the same date share one run.
func (s *Server) handleMergeToday(w http.ResponseWriter, r *http.Request) {
	date, ok := s.referenceDate(r)
	if !ok {
		writeBadRequest(w, "date_now must be YYYY-MM-DD")
		return
	}

	res, err := s.trigger.TriggerManual(r.Context(), date)
	if err != nil {
		// The caller went away or the pool never freed up in time.
		writeInternalError(w, err.Error())
		return
	}

	logger := log.WithComponentFromContext(r.Context(), "api")
	switch {
	case res.Status == merge.StatusSuccess:
		logger.Info().
			Str("event", "merge.trigger.success").
			Str("date", date.Format(dateLayout)).
			Str("method", string(res.Method)).
			Msg("manual merge completed")
		writeJSON(w, http.StatusOK, res)
	case errors.Is(res.Err, merge.ErrNoCandidates), errors.Is(res.Err, merge.ErrSourceNotFound):
		writeJSON(w, http.StatusNotFound, res)
	default:
		logger.Error().
			Str("event", "merge.trigger.failed").
			Str("date", date.Format(dateLayout)).
			Str("message", res.Message).
			Msg("manual merge failed")
		writeJSON(w, http.StatusInternalServerError, res)
	}
}

// yesterdayItem is one file whose embedded date is the day before the
// reference date.
type yesterdayItem struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Date     string    `json:"date"`
	Size     int64     `json:"size"`
	SizeKB   float64   `json:"size_kb"`
	SizeMB   float64   `json:"size_mb"`
	Modified time.Time `json:"modified"`
}

func (s *Server) handleYesterday(w http.ResponseWriter, r *http.Request) {
	date, ok := s.referenceDate(r)
	if !ok {
		writeBadRequest(w, "date_now must be YYYY-MM-DD")
		return
	}
	target := date.AddDate(0, 0, -1)

	entries, err := s.files.Walk()
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}

	items := make([]yesterdayItem, 0)
	for _, e := range entries {
		if e.IsDir || !merge.MatchesDate(e.Name, target) {
			continue
		}
		items = append(items, yesterdayItem{
			Name:     e.Name,
			Path:     e.Path,
			Date:     target.Format(dateLayout),
			Size:     e.Size,
			SizeKB:   round2(float64(e.Size) / 1024),
			SizeMB:   round2(float64(e.Size) / (1024 * 1024)),
			Modified: e.ModTime,
		})
	}

	writeJSON(w, http.StatusOK, items)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
