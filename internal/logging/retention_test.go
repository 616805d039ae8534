package logging_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"takeoutfix/internal/logging"
)

func TestPruneRunReportsRemovesOnlyOldReports(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	write := func(name string, age time.Duration) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
		stamp := now.Add(-age)
		if err := os.Chtimes(path, stamp, stamp); err != nil {
			t.Fatal(err)
		}
		return path
	}
	old := write("run-old.json", 40*24*time.Hour)
	fresh := write("run-fresh.json", 2*24*time.Hour)
	other := write(logging.LogFileName, 90*24*time.Hour)

	if removed := logging.PruneRunReports(logging.NewNop(), dir, 30, now); removed != 1 {
		t.Fatalf("expected 1 report removed, got %d", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected old report removed, stat err=%v", err)
	}
	for _, keep := range []string{fresh, other} {
		if _, err := os.Stat(keep); err != nil {
			t.Fatalf("expected %s to remain: %v", keep, err)
		}
	}
}

func TestPruneRunReportsDisabled(t *testing.T) {
	if removed := logging.PruneRunReports(nil, t.TempDir(), 0, time.Now()); removed != 0 {
		t.Fatalf("expected no pruning, got %d", removed)
	}
}
