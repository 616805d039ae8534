package takeout

import (
	"context"
	"errors"
)

// SkipReason explains why a sidecar was left out of a batch.
type SkipReason string

const (
	SkipExcluded      SkipReason = "excluded"
	SkipNoCaptureTime SkipReason = "no_capture_time"
	SkipUnreadable    SkipReason = "unreadable"
)

// Item is one media sidecar with its formatted capture time.
type Item struct {
	Sidecar   string
	Timestamp string
}

// Skipped is a sidecar that was not admitted into the batch.
type Skipped struct {
	Sidecar string
	Reason  SkipReason
	Err     error
}

// Batch is the set of media sidecars for one run.
type Batch struct {
	Items   []Item
	Skipped []Skipped
}

// Sidecars returns the sidecar path of every item, in order.
func (b Batch) Sidecars() []string {
	out := make([]string, len(b.Items))
	for i, item := range b.Items {
		out[i] = item.Sidecar
	}
	return out
}

// BuildBatch filters sidecars into a batch. Excluded names and sidecars
// without a photoTakenTime are skipped; they describe albums or account
// data rather than a media file.
func BuildBatch(ctx context.Context, sidecars []string, excludePatterns []string) (Batch, error) {
	kept, excluded := Exclude(sidecars, excludePatterns)
	batch := Batch{Items: make([]Item, 0, len(kept))}
	for _, path := range excluded {
		batch.Skipped = append(batch.Skipped, Skipped{Sidecar: path, Reason: SkipExcluded})
	}
	for _, path := range kept {
		if err := ctx.Err(); err != nil {
			return Batch{}, err
		}
		sidecar, err := ReadSidecar(path)
		if err != nil {
			batch.Skipped = append(batch.Skipped, Skipped{Sidecar: path, Reason: SkipUnreadable, Err: err})
			continue
		}
		takenAt, err := sidecar.TakenAt()
		if err != nil {
			reason := SkipUnreadable
			if errors.Is(err, ErrNoCaptureTime) {
				reason = SkipNoCaptureTime
			}
			batch.Skipped = append(batch.Skipped, Skipped{Sidecar: path, Reason: reason, Err: err})
			continue
		}
		batch.Items = append(batch.Items, Item{Sidecar: path, Timestamp: FormatTimestamp(takenAt)})
	}
	return batch, nil
}
