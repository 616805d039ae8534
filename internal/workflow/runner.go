package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"takeoutfix/internal/config"
	"takeoutfix/internal/history"
	"takeoutfix/internal/logging"
	"takeoutfix/internal/preflight"
	"takeoutfix/internal/reconcile"
	"takeoutfix/internal/services"
	"takeoutfix/internal/services/exiftool"
)

// Runner executes batches against one configuration. Only one runner may
// mutate a given state directory at a time.
type Runner struct {
	cfg      *config.Config
	store    *history.Store
	patcher  Patcher
	resolver *reconcile.Resolver
	logger   *slog.Logger
	lock     *flock.Flock
	now      func() time.Time
}

// RunnerOption configures optional Runner behavior.
type RunnerOption func(*Runner)

// WithResolver overrides the existence resolver (used in tests).
func WithResolver(resolver *reconcile.Resolver) RunnerOption {
	return func(r *Runner) {
		r.resolver = resolver
	}
}

// WithClock overrides the time source used for run reports.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}

// NewRunner constructs a runner. store may be nil to run without a ledger.
func NewRunner(cfg *config.Config, store *history.Store, patcher Patcher, logger *slog.Logger, opts ...RunnerOption) (*Runner, error) {
	if cfg == nil || patcher == nil {
		return nil, errors.New("runner requires config and patcher")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	r := &Runner{
		cfg:      cfg,
		store:    store,
		patcher:  patcher,
		resolver: reconcile.NewResolver(nil),
		logger:   logging.NewComponentLogger(logger, "workflow"),
		lock:     flock.New(cfg.LockPath()),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Runner) acquire() (func(), error) {
	ok, err := r.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, r.cfg.LockPath())
	}
	return func() {
		if err := r.lock.Unlock(); err != nil {
			r.logger.Warn("failed to release state lock", logging.Error(err))
		}
	}, nil
}

func checkRoots(roots []string) error {
	if len(roots) == 0 {
		return services.Wrap(services.ErrValidation, "discover", "roots", "at least one source directory is required", nil)
	}
	for _, root := range roots {
		if check := preflight.CheckSourceDirectory(root); !check.Passed {
			return services.Wrap(services.ErrValidation, "discover", "roots", check.Detail, nil)
		}
	}
	return nil
}

// run holds per-invocation state shared by both modes.
type run struct {
	runner  *Runner
	ctx     context.Context
	opts    Options
	summary *Summary
	logger  *slog.Logger
	sampler *logging.ProgressSampler
	total   int
	done    int
	halted  bool
}

func (r *Runner) begin(ctx context.Context, mode history.Mode, roots []string, opts Options) (*run, error) {
	summary := &Summary{
		Mode:      mode,
		Roots:     append([]string(nil), roots...),
		DryRun:    opts.DryRun,
		Status:    history.RunRunning,
		StartedAt: r.now().UTC(),
		Patterns:  map[string]int{},
	}
	if r.store != nil {
		record, err := r.store.BeginRun(ctx, mode, roots, opts.DryRun)
		if err != nil {
			return nil, err
		}
		summary.RunID = record.ID
		summary.StartedAt = record.StartedAt
	} else {
		summary.RunID = uuid.NewString()
	}
	ctx = services.WithRunID(ctx, summary.RunID)
	state := &run{
		runner:  r,
		ctx:     ctx,
		opts:    opts,
		summary: summary,
		sampler: logging.NewProgressSampler(10),
	}
	state.logger = logging.WithContext(ctx, r.logger)
	state.logger.Info("run started",
		logging.String("mode", string(mode)),
		logging.Int("roots", len(roots)),
		logging.Bool("dry_run", opts.DryRun),
		logging.String(logging.FieldEventType, "run_started"),
	)
	return state, nil
}

func (s *run) stage(name string) context.Context {
	s.ctx = services.WithStage(s.ctx, name)
	s.logger = logging.WithContext(s.ctx, s.runner.logger)
	return s.ctx
}

func (s *run) startBatch(total int) {
	s.total = total
	s.done = 0
	s.sampler.Reset()
	if s.opts.OnBatch != nil {
		s.opts.OnBatch(total)
	}
}

// record appends a result, persists it and reports progress. Entries that
// are not part of the mutation batch (skipped sidecars) pass counted=false.
func (s *run) record(result Result, counted bool) {
	s.summary.Results = append(s.summary.Results, result)
	s.summary.Totals.Add(result.Status)
	if store := s.runner.store; store != nil {
		err := store.RecordResult(context.WithoutCancel(s.ctx), history.Result{
			RunID:   s.summary.RunID,
			Sidecar: result.Sidecar,
			Media:   result.Media,
			Pattern: result.Pattern,
			Status:  result.Status,
			Message: result.Message,
		})
		if err != nil {
			logging.WarnWithContext(s.logger, "history write failed", "history_write_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check state_dir permissions and disk space"),
				logging.String(logging.FieldImpact, "run ledger is incomplete for this run"),
			)
		}
	}
	s.logger.Debug("entry recorded",
		logging.Sidecar(result.Sidecar),
		logging.Media(result.Media),
		logging.Pattern(result.Pattern),
		logging.String("status", result.Status),
	)
	if !counted {
		return
	}
	s.done++
	if s.opts.OnResult != nil {
		s.opts.OnResult(result)
	}
	stage, _ := services.StageFromContext(s.ctx)
	if s.sampler.ShouldLog(s.done, s.total, stage) {
		s.logger.Info("batch progress",
			logging.Int("done", s.done),
			logging.Int("total", s.total),
			logging.String(logging.FieldEventType, "batch_progress"),
		)
	}
}

// finish closes the run in history, writes the run report and prunes old
// ledger rows. The returned error is runErr unchanged.
func (s *run) finish(status history.RunStatus, runErr error) error {
	r := s.runner
	s.summary.Status = status
	s.summary.FinishedAt = r.now().UTC()
	ctx := context.WithoutCancel(s.ctx)

	if r.store != nil {
		if err := r.store.FinishRun(ctx, s.summary.RunID, status, s.summary.Totals, runErr); err != nil {
			logging.WarnWithContext(s.logger, "history finish failed", "history_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "run remains marked running in the ledger"),
			)
		}
		if keep := r.cfg.History.KeepLastRuns; keep > 0 {
			if removed, err := r.store.Prune(ctx, keep); err != nil {
				s.logger.Warn("history prune failed", logging.Error(err))
			} else if removed > 0 {
				s.logger.Debug("history pruned", logging.Int64("removed", removed))
			}
		}
	}

	if path, err := writeRunReport(r.cfg.Paths.LogDir, s.summary); err != nil {
		logging.WarnWithContext(s.logger, "run report write failed", "run_report_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check log_dir permissions"),
			logging.String(logging.FieldImpact, "no JSON report for this run"),
		)
	} else {
		s.summary.ReportPath = path
	}

	attrs := []logging.Attr{
		logging.String("status", string(status)),
		logging.Int("total", s.summary.Totals.Total),
		logging.Int("patched", s.summary.Totals.Patched),
		logging.Int("unchanged", s.summary.Totals.Unchanged),
		logging.Int("skipped", s.summary.Totals.Skipped),
		logging.Int("failed", s.summary.Totals.Failed),
		logging.Duration("elapsed", s.summary.FinishedAt.Sub(s.summary.StartedAt)),
		logging.String(logging.FieldEventType, "run_finished"),
	}
	if runErr != nil {
		attrs = append(attrs, logging.Error(runErr))
	}
	s.logger.Info("run finished", logging.Args(attrs...)...)
	return runErr
}

// terminalStatus picks the run status after the mutation phase.
func (s *run) terminalStatus() (history.RunStatus, error) {
	switch {
	case s.ctx.Err() != nil:
		return history.RunCancelled, s.ctx.Err()
	case s.halted:
		first := s.summary.Failures()
		if len(first) > 0 {
			return history.RunHalted, fmt.Errorf("%w: %s", ErrHalted, first[0].Message)
		}
		return history.RunHalted, ErrHalted
	case s.summary.Totals.Failed > 0:
		return history.RunFailed, nil
	default:
		return history.RunCompleted, nil
	}
}

// apply runs the patcher for one entry and maps its outcome to a result.
func (s *run) apply(ctx context.Context, media, timestamp string, result Result) Result {
	if s.opts.DryRun {
		result.Status = services.StatusPlanned
		result.Message = timestamp
		return result
	}
	outcome, err := s.runner.patcher.Patch(ctx, media, timestamp)
	if err != nil {
		result.Status = services.FailureStatus(err)
		result.Message = err.Error()
		result.Err = err
		logging.ErrorWithContext(s.logger, "media patch failed", "patch_failed",
			logging.Media(media),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run with --log-level debug to see the exiftool output"),
		)
		if s.opts.HaltOnError {
			s.halted = true
		}
		return result
	}
	switch outcome {
	case exiftool.Patched:
		result.Status = services.StatusPatched
		result.Message = timestamp
	case exiftool.AlreadyDated:
		result.Status = services.StatusUnchanged
		result.Message = "capture date already present"
	default:
		result.Status = services.StatusSkipped
		result.Message = outcome.String()
	}
	return result
}

func isFailureStatus(status string) bool {
	return status == services.StatusFailed || status == services.StatusInvalid
}
