package workflow

import (
	"context"
	"errors"

	"takeoutfix/internal/fileutil"
	"takeoutfix/internal/history"
	"takeoutfix/internal/logging"
	"takeoutfix/internal/services"
	"takeoutfix/internal/takeout"
)

// Patch runs the sidecar workflow over roots: discover, build the batch,
// gate it on preflight, then write each sidecar's capture time into its
// media file. A blocked batch returns the summary together with an error
// wrapping ErrBatchBlocked; no media is touched in that case.
func (r *Runner) Patch(ctx context.Context, roots []string, opts Options) (*Summary, error) {
	if err := checkRoots(roots); err != nil {
		return nil, err
	}
	release, err := r.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	state, err := r.begin(ctx, history.ModePatch, roots, opts)
	if err != nil {
		return nil, err
	}

	inspection, err := Inspect(state.stage("preflight"), roots, r.cfg.Takeout.ExcludedSidecars, r.resolver)
	if err != nil {
		return state.summary, state.finish(statusForError(err), err)
	}
	batch, report := inspection.Batch, inspection.Report
	for pattern, count := range report.Counts() {
		state.summary.Patterns[pattern.String()] = count
	}
	state.summary.Unresolved = append([]string(nil), report.Unresolved...)
	state.summary.Unreadable = inspection.UnreadablePaths()
	state.logger.Info("sidecars discovered",
		logging.Int("files", len(inspection.Entries)),
		logging.Int("sidecars", len(batch.Items)+len(batch.Skipped)),
		logging.Int("resolved", len(report.Resolved)),
		logging.String(logging.FieldEventType, "discover_complete"),
	)
	if gateErr := inspection.Err(); gateErr != nil {
		logging.ErrorWithContext(state.logger, "batch blocked before mutation", "batch_blocked",
			logging.Int("unresolved", len(report.Unresolved)),
			logging.Int("unreadable", len(inspection.Unreadable)),
			logging.String(logging.FieldErrorHint, "locate the media for the listed sidecars or repair them, then rerun"),
			logging.Alert("preflight failed"),
			logging.String(logging.FieldImpact, "no media was modified"),
		)
		return state.summary, state.finish(history.RunBlocked, gateErr)
	}
	state.logger.Info("preflight cleared",
		logging.Int("resolved", len(report.Resolved)),
		logging.String(logging.FieldEventType, "preflight_cleared"),
	)

	for _, skipped := range batch.Skipped {
		state.record(Result{
			Sidecar: skipped.Sidecar,
			Status:  services.StatusSkipped,
			Message: string(skipped.Reason),
		}, false)
	}

	patchCtx := state.stage("patch")
	state.startBatch(len(batch.Items))
	for _, item := range batch.Items {
		outcome, _ := report.Lookup(item.Sidecar)
		result := Result{
			Sidecar: item.Sidecar,
			Media:   outcome.Media,
			Pattern: outcome.Pattern.String(),
		}
		if state.halted || patchCtx.Err() != nil {
			result.Status = services.StatusNotAttempted
			state.record(result, true)
			continue
		}
		itemCtx := services.WithSidecar(patchCtx, item.Sidecar)
		state.record(state.apply(itemCtx, outcome.Media, item.Timestamp, result), true)
	}

	if err := state.copyOutput(takeout.Paths(inspection.Entries)); err != nil {
		return state.summary, state.finish(statusForError(err), err)
	}

	status, runErr := state.terminalStatus()
	return state.summary, state.finish(status, runErr)
}

// copyOutput runs the optional flat copy once the mutation phase completed.
func (s *run) copyOutput(files []string) error {
	target := s.opts.CopyTo
	if target == "" {
		return nil
	}
	if s.opts.DryRun || s.halted || s.ctx.Err() != nil {
		s.logger.Info("output copy skipped",
			logging.String("output_dir", target),
			logging.Bool("dry_run", s.opts.DryRun),
			logging.Bool("halted", s.halted),
		)
		return nil
	}
	ctx := s.stage("copy")
	summary, err := fileutil.CopyToOutput(ctx, files, target, s.runner.cfg.Takeout.CopySkipExtensions, nil)
	s.summary.Copy = &summary
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "copy", "output", target, err)
	}
	s.logger.Info("output copy complete",
		logging.String("output_dir", target),
		logging.Int("copied", summary.Copied),
		logging.Int("renamed", summary.Renamed),
		logging.Int64("copied_bytes", summary.Bytes),
		logging.String(logging.FieldEventType, "copy_complete"),
	)
	return nil
}

func statusForError(err error) history.RunStatus {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return history.RunCancelled
	}
	return history.RunFailed
}
