// SPDX-License-Identifier: MIT

// Package merge implements the daily video-merge pipeline: candidate
// discovery by date-embedded filename, a stream-copy merge with a re-encode
// fallback, and the orchestration between them.
package merge

import (
	"errors"
	"time"
)

// Sentinel errors surfaced by orchestration. The API layer maps them to
// HTTP status codes.
var (
	ErrSourceNotFound = errors.New("source root does not exist")
	ErrNoCandidates   = errors.New("no matching video files for date")
)

// Method identifies which strategy produced (or attempted) the artifact.
type Method string

const (
	MethodNone     Method = ""
	MethodFastCopy Method = "fastcopy"
	MethodReencode Method = "reencode"
)

// Status is the terminal state of one orchestration run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Request names the inputs of one orchestration run.
type Request struct {
	TargetDate time.Time
}

// Result is produced exactly once per orchestration run and returned to the
// caller or logged; it is never persisted.
type Result struct {
	Status          Status `json:"status"`
	Method          Method `json:"method,omitempty"`
	OutputPath      string `json:"output_path,omitempty"`
	OutputSizeBytes int64  `json:"output_size_bytes,omitempty"`
	Message         string `json:"message"`
	InputCount      int    `json:"input_count"`

	// Err carries the failure cause for programmatic dispatch; the JSON
	// body only exposes Message.
	Err error `json:"-"`
}

// Candidate is one discovered input file. Lifetime is a single run.
type Candidate struct {
	Path string // absolute
	Name string
	Date time.Time
}
