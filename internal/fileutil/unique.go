package fileutil

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const suffixLength = 6

// suffixSource yields collision suffixes; tests replace it for determinism.
var suffixSource = func() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLength]
}

// UniquePath returns dst when exists reports it free. Otherwise it inserts
// "-<6 alphanumerics>" before the extension until a free name is found.
func UniquePath(dst string, exists func(string) bool) string {
	if !exists(dst) {
		return dst
	}
	ext := filepath.Ext(dst)
	base := strings.TrimSuffix(dst, ext)
	for {
		candidate := base + "-" + suffixSource() + ext
		if !exists(candidate) {
			return candidate
		}
	}
}
