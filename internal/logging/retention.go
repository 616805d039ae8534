package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// RunReportPattern matches the per-run JSON reports written to the log directory.
const RunReportPattern = "run-*.json"

// PruneRunReports removes run reports in dir older than retentionDays and
// returns how many were deleted. A retentionDays value of 0 disables pruning.
func PruneRunReports(logger *slog.Logger, dir string, retentionDays int, now time.Time) int {
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	matches, err := filepath.Glob(filepath.Join(dir, RunReportPattern))
	if err != nil {
		return 0
	}
	cutoff := now.AddDate(0, 0, -retentionDays)
	removed := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "run report prune failed; file remains", "report_prune_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions and log_dir ownership"),
				String(FieldImpact, "old run report remains on disk"),
			)
			continue
		}
		removed++
		if logger != nil {
			logger.Debug("run report pruned", String("path", path), String(FieldEventType, "report_pruned"))
		}
	}
	return removed
}
