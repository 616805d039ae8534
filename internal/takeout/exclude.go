package takeout

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Exclude splits paths into kept and excluded. A sidecar is excluded when its
// file name contains any of the patterns. Names and patterns are compared in
// Unicode NFC so decomposed names from macOS archives still match.
func Exclude(paths []string, patterns []string) (kept, excluded []string) {
	normalized := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if pattern = strings.TrimSpace(pattern); pattern != "" {
			normalized = append(normalized, norm.NFC.String(pattern))
		}
	}
	for _, path := range paths {
		name := norm.NFC.String(filepath.Base(path))
		if matchesAny(name, normalized) {
			excluded = append(excluded, path)
			continue
		}
		kept = append(kept, path)
	}
	return kept, excluded
}

func matchesAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(name, pattern) {
			return true
		}
	}
	return false
}
