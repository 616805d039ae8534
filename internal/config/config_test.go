package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"takeoutfix/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "takeoutfix")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.HistoryPath() != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
	if !filepath.IsAbs(cfg.Paths.OutputDir) {
		t.Fatalf("expected absolute output dir, got %q", cfg.Paths.OutputDir)
	}
	if cfg.ExiftoolBinary() != "exiftool" {
		t.Fatalf("unexpected exiftool binary: %q", cfg.ExiftoolBinary())
	}
	if len(cfg.Takeout.ExcludedSidecars) != len(config.DefaultExcludedSidecars) {
		t.Fatalf("expected default exclusions, got %v", cfg.Takeout.ExcludedSidecars)
	}
	if cfg.Takeout.HaltOnError {
		t.Fatal("expected halt_on_error disabled by default")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "takeoutfix.toml")

	type payload struct {
		Exiftool struct {
			Binary         string `toml:"binary"`
			TimeoutSeconds int    `toml:"timeout_seconds"`
		} `toml:"exiftool"`
		Takeout struct {
			ExcludedSidecars   []string `toml:"excluded_sidecars"`
			CopySkipExtensions []string `toml:"copy_skip_extensions"`
			HaltOnError        bool     `toml:"halt_on_error"`
		} `toml:"takeout"`
	}
	custom := payload{}
	custom.Exiftool.Binary = "/opt/exiftool/exiftool"
	custom.Exiftool.TimeoutSeconds = 30
	custom.Takeout.ExcludedSidecars = []string{" metadata.json ", "metadata.json"}
	custom.Takeout.CopySkipExtensions = []string{".JSON", "html"}
	custom.Takeout.HaltOnError = true
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.ExiftoolBinary() != "/opt/exiftool/exiftool" {
		t.Fatalf("expected exiftool binary from file, got %q", cfg.ExiftoolBinary())
	}
	if cfg.ExiftoolTimeout().Seconds() != 30 {
		t.Fatalf("expected 30s timeout, got %s", cfg.ExiftoolTimeout())
	}
	if len(cfg.Takeout.ExcludedSidecars) != 1 || cfg.Takeout.ExcludedSidecars[0] != "metadata.json" {
		t.Fatalf("expected deduplicated exclusions, got %v", cfg.Takeout.ExcludedSidecars)
	}
	if strings.Join(cfg.Takeout.CopySkipExtensions, ",") != "json,html" {
		t.Fatalf("unexpected copy skip extensions: %v", cfg.Takeout.CopySkipExtensions)
	}
	if !cfg.Takeout.HaltOnError {
		t.Fatal("expected halt_on_error from file")
	}
}

func TestEnvOverridesExiftoolAndOutput(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	out := filepath.Join(t.TempDir(), "flat")
	t.Setenv("TAKEOUTFIX_EXIFTOOL", "/usr/local/bin/exiftool")
	t.Setenv("TAKEOUTFIX_OUTPUT_DIR", out)

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ExiftoolBinary() != "/usr/local/bin/exiftool" {
		t.Errorf("expected exiftool from env, got %q", cfg.ExiftoolBinary())
	}
	if cfg.Paths.OutputDir != out {
		t.Errorf("expected output dir from env, got %q", cfg.Paths.OutputDir)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "print-subscriptions.json") {
		t.Fatalf("sample config missing default exclusions: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Exiftool.Binary != "exiftool" {
		t.Fatalf("expected sample exiftool binary, got %q", cfg.Exiftool.Binary)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Exiftool.TimeoutSeconds = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative timeout")
	}

	cfg = config.Default()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log level")
	}

	cfg = config.Default()
	cfg.Paths.StateDir = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty state dir")
	}
}

func TestValidateSourcesRejectsNestedOutput(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(root, "output")
	if err := cfg.ValidateSources([]string{root}); err == nil {
		t.Fatal("expected error when output is inside source")
	}

	cfg.Paths.OutputDir = filepath.Join(t.TempDir(), "output")
	if err := cfg.ValidateSources([]string{root}); err != nil {
		t.Fatalf("unexpected error for sibling output: %v", err)
	}

	if err := cfg.ValidateSources(nil); err == nil {
		t.Fatal("expected error for empty source list")
	}
}
