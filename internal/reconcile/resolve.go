package reconcile

import (
	"errors"
	"os"
)

// ErrUnresolvedMedia marks a sidecar whose media file could not be found
// under any naming rule.
var ErrUnresolvedMedia = errors.New("media file not found for sidecar")

// Checker answers whether a path exists.
type Checker interface {
	Exists(path string) bool
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(path string) bool

// Exists implements Checker.
func (f CheckerFunc) Exists(path string) bool { return f(path) }

// OSChecker checks the local filesystem.
type OSChecker struct{}

// Exists reports whether path is a regular file. Directories and other
// special files never count as media.
func (OSChecker) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Outcome is the resolution of one sidecar. Media is empty when Pattern is
// PatternUnresolved.
type Outcome struct {
	Sidecar string
	Media   string
	Pattern Pattern
}

// Resolved reports whether a media file was found.
func (o Outcome) Resolved() bool {
	return o.Pattern != PatternUnresolved
}

// Resolver turns sidecar paths into outcomes using an injected Checker.
type Resolver struct {
	checker Checker
}

// NewResolver returns a Resolver. A nil checker falls back to OSChecker.
func NewResolver(checker Checker) *Resolver {
	if checker == nil {
		checker = OSChecker{}
	}
	return &Resolver{checker: checker}
}

// Resolve checks the swap-position candidate, then the trailing-zero
// candidate, and returns the first that exists. When both exist the
// swap-position candidate wins.
func (r *Resolver) Resolve(sidecarPath string) Outcome {
	for _, candidate := range Candidates(sidecarPath) {
		if r.checker.Exists(candidate.Path) {
			return Outcome{Sidecar: sidecarPath, Media: candidate.Path, Pattern: candidate.Pattern}
		}
	}
	return Outcome{Sidecar: sidecarPath, Pattern: PatternUnresolved}
}
