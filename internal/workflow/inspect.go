package workflow

import (
	"context"
	"errors"
	"fmt"

	"takeoutfix/internal/preflight"
	"takeoutfix/internal/reconcile"
	"takeoutfix/internal/takeout"
)

// Inspection is a read-only view of a batch: what was found, what was
// admitted, and whether every admitted sidecar resolves to media.
type Inspection struct {
	Entries    []takeout.Entry
	Batch      takeout.Batch
	Report     *preflight.Report
	Unreadable []takeout.Skipped
}

// Inspect discovers sidecars under roots and validates the resulting batch.
// It takes no lock and never touches media. A nil resolver uses the
// filesystem.
func Inspect(ctx context.Context, roots []string, excluded []string, resolver *reconcile.Resolver) (*Inspection, error) {
	if err := checkRoots(roots); err != nil {
		return nil, err
	}
	entries, err := takeout.Discover(ctx, roots)
	if err != nil {
		return nil, err
	}
	batch, err := takeout.BuildBatch(ctx, takeout.Sidecars(entries), excluded)
	if err != nil {
		return nil, err
	}
	report, err := preflight.Validate(ctx, resolver, batch.Sidecars())
	if err != nil {
		return nil, err
	}
	inspection := &Inspection{Entries: entries, Batch: batch, Report: report}
	for _, skipped := range batch.Skipped {
		if skipped.Reason == takeout.SkipUnreadable {
			inspection.Unreadable = append(inspection.Unreadable, skipped)
		}
	}
	return inspection, nil
}

// Err gates the batch. It returns nil when every sidecar decoded and
// resolved; otherwise the error wraps ErrBatchBlocked and carries an
// *UnreadableError, a *preflight.UnresolvedError, or both.
func (i *Inspection) Err() error {
	var errs []error
	if len(i.Unreadable) > 0 {
		errs = append(errs, &UnreadableError{Skipped: i.Unreadable})
	}
	if reportErr := i.Report.Err(); reportErr != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrBatchBlocked, reportErr))
	}
	return errors.Join(errs...)
}

// UnreadablePaths lists the sidecars that failed to decode.
func (i *Inspection) UnreadablePaths() []string {
	out := make([]string, 0, len(i.Unreadable))
	for _, skipped := range i.Unreadable {
		out = append(out, skipped.Sidecar)
	}
	return out
}
