package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// writeRunReport stores the summary as run-<id>.json in dir. The file name
// matches logging.RunReportPattern so retention pruning picks it up.
func writeRunReport(dir string, summary *Summary) (string, error) {
	if dir == "" || summary == nil {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create log directory: %w", err)
	}
	payload, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode run report: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("run-%s.json", summary.RunID))
	if err := atomic.WriteFile(path, bytes.NewReader(append(payload, '\n'))); err != nil {
		return "", fmt.Errorf("write run report: %w", err)
	}
	return path, nil
}
