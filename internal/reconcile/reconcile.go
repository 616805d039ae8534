package reconcile

import (
	"regexp"
	"strings"
)

// Pattern identifies which naming rule produced a media candidate.
type Pattern int

const (
	// PatternUnresolved marks a sidecar for which no candidate exists on disk.
	PatternUnresolved Pattern = iota
	// PatternSwapPosition is the counter/extension swap rule.
	PatternSwapPosition
	// PatternTrailingZero is the lossy "<stem>0.png" fallback rule.
	PatternTrailingZero
)

func (p Pattern) String() string {
	switch p {
	case PatternSwapPosition:
		return "swap_position"
	case PatternTrailingZero:
		return "trailing_zero"
	default:
		return "unresolved"
	}
}

const sidecarSuffix = ".json"

// swapPattern captures "<filename>.<extension>(<digits>).json". The filename
// group is non-greedy and the extension excludes dots, so the extension is the
// last dot-free segment before the counter.
var swapPattern = regexp.MustCompile(`^(?P<filename>.+?)\.(?P<extension>[^.]+)\((?P<number>\d+)\)(?P<suffix>\.(?i:json))$`)

// IsSidecarName reports whether name carries the case-insensitive .json suffix.
func IsSidecarName(name string) bool {
	return len(name) >= len(sidecarSuffix) && strings.EqualFold(name[len(name)-len(sidecarSuffix):], sidecarSuffix)
}

// SwapPosition moves the duplicate counter back in front of the extension.
// The .json suffix is kept; names of any other shape are returned unchanged.
func SwapPosition(name string) string {
	m := swapPattern.FindStringSubmatch(name)
	if m == nil {
		return name
	}
	return m[1] + "(" + m[3] + ")." + m[2] + m[4]
}

// StripSidecarSuffix removes one trailing .json (any case).
func StripSidecarSuffix(name string) string {
	if !IsSidecarName(name) {
		return name
	}
	return name[:len(name)-len(sidecarSuffix)]
}

// SwapCandidate is the media name predicted by the swap-position rule.
func SwapCandidate(name string) string {
	return StripSidecarSuffix(SwapPosition(name))
}

// TrailingZeroCandidate is the media name predicted by the trailing-zero rule:
// the sidecar's stem (leaf name up to its first dot) followed by "0.png". The
// target extension is always png regardless of what the sidecar claims.
func TrailingZeroCandidate(name string) string {
	stem := StripSidecarSuffix(name)
	if idx := strings.IndexByte(stem, '.'); idx > 0 {
		stem = stem[:idx]
	}
	return stem + "0.png"
}

// Candidate is one media path proposed for a sidecar.
type Candidate struct {
	Path    string
	Pattern Pattern
}

// Candidates returns the media paths for sidecarPath in lookup order. Both are
// anchored in the sidecar's own directory.
func Candidates(sidecarPath string) []Candidate {
	parts := Split(sidecarPath)
	return []Candidate{
		{Path: parts.Join(SwapCandidate(parts.Name)), Pattern: PatternSwapPosition},
		{Path: parts.Join(TrailingZeroCandidate(parts.Name)), Pattern: PatternTrailingZero},
	}
}
