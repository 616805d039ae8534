package preflight

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ExiftoolBuild reports the installed exiftool build.
type ExiftoolBuild struct {
	Available bool
	Binary    string
	Version   string
	Err       string
}

// InspectExiftool runs "exiftool -ver" with a short timeout.
func InspectExiftool(ctx context.Context, binary string) ExiftoolBuild {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "exiftool"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return ExiftoolBuild{Binary: binary, Err: "binary not found"}
	}

	verCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(verCtx, binary, "-ver").Output()
	if err != nil {
		return ExiftoolBuild{Binary: binary, Err: err.Error()}
	}
	version := strings.TrimSpace(string(output))
	if version == "" {
		return ExiftoolBuild{Binary: binary, Err: "empty version output"}
	}
	return ExiftoolBuild{Available: true, Binary: binary, Version: version}
}

// Detail renders a display-friendly summary for status UIs.
func (b ExiftoolBuild) Detail() string {
	if !b.Available {
		if b.Err == "" {
			return fmt.Sprintf("%s unavailable", b.Binary)
		}
		return fmt.Sprintf("%s unavailable (%s)", b.Binary, b.Err)
	}
	return fmt.Sprintf("%s version %s", b.Binary, b.Version)
}
