// Package deps locates the external exiftool binary.
package deps

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Status reports whether the exiftool binary can be executed and which path
// was resolved.
type Status struct {
	Name        string
	Command     string
	Description string
	Available   bool
	Detail      string
}

// ResolveExiftool reports the exiftool binary takeoutfix will execute.
//
// A configured command wins when it resolves. Otherwise "exiftool" is looked
// up on PATH, and on Windows the stock "exiftool(-k).exe" download name is
// tried as well.
func ResolveExiftool(configured string) Status {
	result := Status{
		Name:        "ExifTool",
		Description: "Required for reading and writing date tags",
	}

	candidates := make([]string, 0, 3)
	if cmd := strings.TrimSpace(configured); cmd != "" {
		candidates = append(candidates, cmd)
	}
	candidates = append(candidates, "exiftool")
	if runtime.GOOS == "windows" {
		candidates = append(candidates, "exiftool(-k).exe")
	}

	for _, candidate := range candidates {
		if resolved, err := exec.LookPath(candidate); err == nil {
			result.Command = resolved
			result.Available = true
			return result
		}
	}

	result.Command = candidates[0]
	result.Detail = fmt.Sprintf("binary %q not found", candidates[0])
	return result
}
