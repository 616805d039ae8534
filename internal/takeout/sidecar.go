package takeout

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrNoCaptureTime marks a sidecar without a usable photoTakenTime, such as
// an album-level metadata.json.
var ErrNoCaptureTime = errors.New("sidecar has no photoTakenTime")

// TimestampLayout renders dates the way ExifTool accepts them, with
// milliseconds and an explicit offset.
const TimestampLayout = "2006:01:02 15:04:05.000-07:00"

// TimeField is a takeout timestamp object. Timestamp holds Unix seconds as
// a decimal string.
type TimeField struct {
	Timestamp string `json:"timestamp"`
	Formatted string `json:"formatted"`
}

// Sidecar is the subset of a takeout metadata file takeoutfix uses.
type Sidecar struct {
	Title          string     `json:"title"`
	PhotoTakenTime *TimeField `json:"photoTakenTime"`
	CreationTime   *TimeField `json:"creationTime"`
}

// ReadSidecar decodes the sidecar at path.
func ReadSidecar(path string) (Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Sidecar{}, err
	}
	var sidecar Sidecar
	if err := json.Unmarshal(data, &sidecar); err != nil {
		return Sidecar{}, fmt.Errorf("decode sidecar %s: %w", path, err)
	}
	return sidecar, nil
}

// TakenAt returns photoTakenTime as a UTC instant.
func (s Sidecar) TakenAt() (time.Time, error) {
	if s.PhotoTakenTime == nil || strings.TrimSpace(s.PhotoTakenTime.Timestamp) == "" {
		return time.Time{}, ErrNoCaptureTime
	}
	return parseUnix(s.PhotoTakenTime.Timestamp)
}

// CreatedAt returns creationTime (upload time) as a UTC instant.
func (s Sidecar) CreatedAt() (time.Time, error) {
	if s.CreationTime == nil || strings.TrimSpace(s.CreationTime.Timestamp) == "" {
		return time.Time{}, errors.New("sidecar has no creationTime")
	}
	return parseUnix(s.CreationTime.Timestamp)
}

func parseUnix(value string) (time.Time, error) {
	seconds, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return time.Unix(seconds, 0).UTC(), nil
}

// FormatTimestamp renders t in UTC using TimestampLayout,
// e.g. "2015:07:04 10:30:00.000+00:00".
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
