package history

import (
	"time"

	"takeoutfix/internal/services"
)

// Mode identifies the kind of batch a run executed.
type Mode string

const (
	ModePatch Mode = "patch"
	ModeMtime Mode = "mtime"
)

// RunStatus is the terminal (or in-flight) state of a run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	// RunBlocked marks a batch rejected by preflight. No media was touched.
	RunBlocked   RunStatus = "blocked"
	RunHalted    RunStatus = "halted"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// Totals aggregates per-entry outcomes of a run.
type Totals struct {
	Total        int `json:"total"`
	Patched      int `json:"patched"`
	Unchanged    int `json:"unchanged"`
	Skipped      int `json:"skipped"`
	Failed       int `json:"failed"`
	NotAttempted int `json:"not_attempted"`
	Planned      int `json:"planned"`
}

// Add counts one entry with the given status.
func (t *Totals) Add(status string) {
	t.Total++
	switch status {
	case services.StatusPatched:
		t.Patched++
	case services.StatusUnchanged:
		t.Unchanged++
	case services.StatusSkipped:
		t.Skipped++
	case services.StatusNotAttempted:
		t.NotAttempted++
	case services.StatusPlanned:
		t.Planned++
	default:
		t.Failed++
	}
}

// Run is a single ledger row.
type Run struct {
	ID           string     `json:"id"`
	Mode         Mode       `json:"mode"`
	Roots        []string   `json:"roots"`
	DryRun       bool       `json:"dry_run"`
	Status       RunStatus  `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Totals       Totals     `json:"totals"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// Duration reports the elapsed run time, or zero while the run is in flight.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Result is the recorded outcome for one sidecar or file.
type Result struct {
	RunID      string    `json:"run_id"`
	Sidecar    string    `json:"sidecar"`
	Media      string    `json:"media,omitempty"`
	Pattern    string    `json:"pattern,omitempty"`
	Status     string    `json:"status"`
	Message    string    `json:"message,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}
