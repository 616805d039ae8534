package services

import (
	"errors"
	"fmt"
	"strings"
)

// Markers classify failures for FailureStatus and for operator hints.
var (
	// ErrExternalTool covers exiftool exiting non-zero or reporting a file error.
	ErrExternalTool = errors.New("external tool error")

	// ErrValidation means the input itself is unusable, such as an unsupported media type.
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")

	// ErrTransient covers filesystem hiccups worth retrying on the next run.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Status values recorded for a single sidecar or file in a run.
const (
	StatusPatched      = "patched"
	StatusUnchanged    = "unchanged"
	StatusSkipped      = "skipped"
	StatusFailed       = "failed"
	StatusInvalid      = "invalid"
	StatusNotAttempted = "not_attempted"
	// StatusPlanned marks a resolved sidecar in a dry run.
	StatusPlanned = "planned"
)

// FailureStatus maps a per-file error to the status persisted in history.
// Validation, configuration and not-found failures point at the input, so
// they are reported as invalid rather than failed.
func FailureStatus(err error) string {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration), errors.Is(err, ErrNotFound):
		return StatusInvalid
	default:
		return StatusFailed
	}
}

// buildDetail joins the non-empty parts as "stage: operation: message".
func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{stage, operation, message} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return "takeoutfix failure"
	}
	return strings.Join(parts, ": ")
}
