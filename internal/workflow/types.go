package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"takeoutfix/internal/fileutil"
	"takeoutfix/internal/history"
	"takeoutfix/internal/services/exiftool"
	"takeoutfix/internal/takeout"
)

var (
	// ErrLocked is returned when another run holds the state directory lock.
	ErrLocked = errors.New("another takeoutfix run holds the state lock")
	// ErrBatchBlocked marks a batch rejected before any media was touched.
	ErrBatchBlocked = errors.New("batch blocked")
	// ErrHalted is returned when the halt policy stopped the mutation phase.
	ErrHalted = errors.New("batch halted after failure")
)

// Patcher writes a capture timestamp into one media file.
type Patcher interface {
	Patch(ctx context.Context, mediaPath, timestamp string) (exiftool.Result, error)
}

// Options tune a single run.
type Options struct {
	// DryRun resolves and reports without mutating or copying anything.
	DryRun bool
	// HaltOnError stops the mutation phase after the first failed entry.
	HaltOnError bool
	// CopyTo, when set, copies every media file into this flat directory
	// after the mutation phase.
	CopyTo string
	// OnBatch is called once with the number of entries about to be processed.
	OnBatch func(total int)
	// OnResult is called after every entry, in batch order.
	OnResult func(Result)
}

// Result is the outcome for one sidecar (patch mode) or one file (mtime mode).
type Result struct {
	Sidecar string `json:"sidecar,omitempty"`
	Media   string `json:"media,omitempty"`
	Pattern string `json:"pattern,omitempty"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`
}

// Summary describes a finished run.
type Summary struct {
	RunID      string                `json:"run_id"`
	Mode       history.Mode          `json:"mode"`
	Roots      []string              `json:"roots"`
	DryRun     bool                  `json:"dry_run"`
	Status     history.RunStatus     `json:"status"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	Totals     history.Totals        `json:"totals"`
	Patterns   map[string]int        `json:"patterns,omitempty"`
	Unresolved []string              `json:"unresolved,omitempty"`
	Unreadable []string              `json:"unreadable,omitempty"`
	Copy       *fileutil.CopySummary `json:"copy,omitempty"`
	Results    []Result              `json:"results"`
	ReportPath string                `json:"-"`
}

// Failures returns the results whose status is failed or invalid.
func (s *Summary) Failures() []Result {
	if s == nil {
		return nil
	}
	var out []Result
	for _, result := range s.Results {
		if isFailureStatus(result.Status) {
			out = append(out, result)
		}
	}
	return out
}

// UnreadableError lists sidecars whose JSON could not be decoded. A batch
// containing any of them is blocked like an unresolved one.
type UnreadableError struct {
	Skipped []takeout.Skipped
}

func (e *UnreadableError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d unreadable sidecar(s):", len(e.Skipped))
	for _, skipped := range e.Skipped {
		b.WriteString("\n")
		b.WriteString(skipped.Sidecar)
		if skipped.Err != nil {
			b.WriteString(": ")
			b.WriteString(skipped.Err.Error())
		}
	}
	return b.String()
}

func (e *UnreadableError) Unwrap() error {
	return ErrBatchBlocked
}
