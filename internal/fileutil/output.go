package fileutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// CopySummary totals a flat copy.
type CopySummary struct {
	Copied  int
	Renamed int
	Skipped int
	Bytes   int64
}

func (s CopySummary) String() string {
	return fmt.Sprintf("%d copied (%s), %d renamed on collision, %d skipped",
		s.Copied, humanize.Bytes(uint64(s.Bytes)), s.Renamed, s.Skipped)
}

// CopyToOutput copies every file into the flat directory outDir, keeping
// file times. Files whose extension (without dot, any case) is in skip are
// left out. Name collisions get a random suffix. onCopy, when non-nil, is
// called with the source and destination of each copied file.
func CopyToOutput(ctx context.Context, files []string, outDir string, skip []string, onCopy func(src, dst string)) (CopySummary, error) {
	var summary CopySummary
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return summary, fmt.Errorf("create output directory: %w", err)
	}

	skipSet := make(map[string]struct{}, len(skip))
	for _, ext := range skip {
		skipSet[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}

	for _, src := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(src), "."))
		if _, skipped := skipSet[ext]; skipped {
			summary.Skipped++
			continue
		}

		target := filepath.Join(outDir, filepath.Base(src))
		dst := UniquePath(target, pathExists)
		written, err := CopyPreservingTimes(src, dst)
		if err != nil {
			return summary, fmt.Errorf("copy %s: %w", src, err)
		}
		if dst != target {
			summary.Renamed++
		}
		summary.Copied++
		summary.Bytes += written
		if onCopy != nil {
			onCopy(src, dst)
		}
	}
	return summary, nil
}

func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
