package workflow

import (
	"context"
	"path/filepath"
	"strings"

	"takeoutfix/internal/fileutil"
	"takeoutfix/internal/history"
	"takeoutfix/internal/logging"
	"takeoutfix/internal/services"
	"takeoutfix/internal/takeout"
)

// Mtime writes each file's own modification time into its date tags. It is
// meant for exports without sidecars, such as a phone camera roll copied off
// the device. Files with an extension in copy_skip_extensions are ignored.
func (r *Runner) Mtime(ctx context.Context, roots []string, opts Options) (*Summary, error) {
	if err := checkRoots(roots); err != nil {
		return nil, err
	}
	release, err := r.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	state, err := r.begin(ctx, history.ModeMtime, roots, opts)
	if err != nil {
		return nil, err
	}

	entries, err := takeout.Discover(state.stage("discover"), roots)
	if err != nil {
		return state.summary, state.finish(history.RunFailed, err)
	}
	files := mediaFiles(takeout.Paths(entries), r.cfg.Takeout.CopySkipExtensions)
	state.logger.Info("media discovered",
		logging.Int("files", len(entries)),
		logging.Int("media", len(files)),
		logging.String(logging.FieldEventType, "discover_complete"),
	)

	patchCtx := state.stage("patch")
	state.startBatch(len(files))
	for _, path := range files {
		result := Result{Media: path}
		if state.halted || patchCtx.Err() != nil {
			result.Status = services.StatusNotAttempted
			state.record(result, true)
			continue
		}
		times, err := fileutil.CaptureTimes(path)
		if err != nil {
			result.Status = services.FailureStatus(err)
			result.Message = err.Error()
			result.Err = err
			if opts.HaltOnError {
				state.halted = true
			}
			state.record(result, true)
			continue
		}
		timestamp := takeout.FormatTimestamp(times.Modify)
		state.record(state.apply(services.WithSidecar(patchCtx, path), path, timestamp, result), true)
	}

	if err := state.copyOutput(files); err != nil {
		return state.summary, state.finish(statusForError(err), err)
	}

	status, runErr := state.terminalStatus()
	return state.summary, state.finish(status, runErr)
}

func mediaFiles(paths []string, skip []string) []string {
	skipSet := make(map[string]struct{}, len(skip))
	for _, ext := range skip {
		skipSet[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		if _, skipped := skipSet[ext]; skipped {
			continue
		}
		out = append(out, path)
	}
	return out
}
