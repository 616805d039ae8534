package fileutil

import (
	"fmt"
	"os"
	"time"

	"github.com/djherbis/times"
)

// Times holds the timestamps takeoutfix preserves across rewrites and copies.
type Times struct {
	Access time.Time
	Modify time.Time
	// Birth is informational only; most filesystems cannot set it.
	Birth    time.Time
	HasBirth bool
}

// CaptureTimes reads the access, modification and (when available) birth
// times of path.
func CaptureTimes(path string) (Times, error) {
	stat, err := times.Stat(path)
	if err != nil {
		return Times{}, fmt.Errorf("capture times %s: %w", path, err)
	}
	captured := Times{Access: stat.AccessTime(), Modify: stat.ModTime()}
	if stat.HasBirthTime() {
		captured.Birth = stat.BirthTime()
		captured.HasBirth = true
	}
	return captured, nil
}

// Apply sets the captured access and modification times on path.
func (t Times) Apply(path string) error {
	if err := os.Chtimes(path, t.Access, t.Modify); err != nil {
		return fmt.Errorf("restore times %s: %w", path, err)
	}
	return nil
}
