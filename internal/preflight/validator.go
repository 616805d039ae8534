package preflight

import (
	"context"
	"fmt"
	"strings"

	"takeoutfix/internal/reconcile"
)

// Report is the outcome of validating one batch of sidecars.
type Report struct {
	// Resolved lists every sidecar that found its media, in input order.
	Resolved []reconcile.Outcome
	// Unresolved lists sidecar paths with no media, verbatim and in input order.
	Unresolved []string

	bySidecar map[string]reconcile.Outcome
}

// Total is the number of sidecars evaluated.
func (r *Report) Total() int {
	return len(r.Resolved) + len(r.Unresolved)
}

// Cleared reports whether every sidecar resolved. Only a cleared batch may
// proceed to the mutation phase.
func (r *Report) Cleared() bool {
	return len(r.Unresolved) == 0
}

// Lookup returns the cached resolution for sidecar.
func (r *Report) Lookup(sidecar string) (reconcile.Outcome, bool) {
	outcome, ok := r.bySidecar[sidecar]
	return outcome, ok
}

// Counts tallies outcomes by naming rule, including PatternUnresolved.
func (r *Report) Counts() map[reconcile.Pattern]int {
	counts := make(map[reconcile.Pattern]int, 3)
	for _, outcome := range r.Resolved {
		counts[outcome.Pattern]++
	}
	if n := len(r.Unresolved); n > 0 {
		counts[reconcile.PatternUnresolved] = n
	}
	return counts
}

// Err returns nil for a cleared batch and an *UnresolvedError otherwise.
func (r *Report) Err() error {
	if r.Cleared() {
		return nil
	}
	paths := make([]string, len(r.Unresolved))
	copy(paths, r.Unresolved)
	return &UnresolvedError{Paths: paths}
}

// UnresolvedError enumerates every sidecar of a rejected batch.
type UnresolvedError struct {
	Paths []string
}

func (e *UnresolvedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d sidecar(s) without matching media:", len(e.Paths))
	for _, path := range e.Paths {
		b.WriteByte('\n')
		b.WriteString(path)
	}
	return b.String()
}

// Unwrap lets errors.Is match reconcile.ErrUnresolvedMedia.
func (e *UnresolvedError) Unwrap() error {
	return reconcile.ErrUnresolvedMedia
}

// Validate resolves every sidecar before any mutation happens. It never stops
// at the first unresolved sidecar; the returned error is non-nil only when ctx
// is cancelled between sidecars.
func Validate(ctx context.Context, resolver *reconcile.Resolver, sidecars []string) (*Report, error) {
	if resolver == nil {
		resolver = reconcile.NewResolver(nil)
	}
	report := &Report{bySidecar: make(map[string]reconcile.Outcome, len(sidecars))}
	for _, sidecar := range sidecars {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, seen := report.bySidecar[sidecar]; seen {
			continue
		}
		outcome := resolver.Resolve(sidecar)
		report.bySidecar[sidecar] = outcome
		if outcome.Resolved() {
			report.Resolved = append(report.Resolved, outcome)
		} else {
			report.Unresolved = append(report.Unresolved, sidecar)
		}
	}
	return report, nil
}
