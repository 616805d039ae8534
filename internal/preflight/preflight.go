package preflight

import (
	"context"

	"takeoutfix/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the environment checks that apply to the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	// The output directory is created on first copy, so only check it once it exists.
	if cfg.Paths.OutputDir != "" && dirExists(cfg.Paths.OutputDir) {
		results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	}

	results = append(results, CheckExiftool(ctx, cfg.ExiftoolBinary()))
	return results
}
