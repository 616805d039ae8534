package reconcile

import (
	"path/filepath"
	"strings"
)

const separator = string(filepath.Separator)

// PathComponents is a path split into its parent directory and leaf name.
type PathComponents struct {
	Dir  string
	Name string
}

// Split decomposes path into parent directory and leaf file name. The
// directory is kept verbatim (no cleaning) so Join reproduces the caller's
// spelling of it; a bare file name yields an empty Dir.
func Split(path string) PathComponents {
	dir, name := filepath.Split(path)
	if dir != separator {
		dir = strings.TrimSuffix(dir, separator)
	}
	return PathComponents{Dir: dir, Name: name}
}

// Join anchors name in the same parent directory.
func (c PathComponents) Join(name string) string {
	switch {
	case c.Dir == "":
		return name
	case strings.HasSuffix(c.Dir, separator):
		return c.Dir + name
	default:
		return c.Dir + separator + name
	}
}
