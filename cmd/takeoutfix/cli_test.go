package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"takeoutfix/internal/config"
	"takeoutfix/internal/services/exiftool"
	"takeoutfix/internal/testsupport"
	"takeoutfix/internal/workflow"
)

const takenUnix = 1546300800

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	root       string
}

type stubPatcher struct {
	calls []string
}

func (s *stubPatcher) Patch(_ context.Context, mediaPath, _ string) (exiftool.Result, error) {
	s.calls = append(s.calls, mediaPath)
	return exiftool.Patched, nil
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "takeoutfix.toml")
	writeTestConfig(t, configPath, cfg)

	root := filepath.Join(base, "Takeout", "Google Photos")
	testsupport.WriteBytes(t, filepath.Join(root, "Trip", "IMG_0001.jpg"), testsupport.JPEGHeader)
	testsupport.WriteSidecar(t, filepath.Join(root, "Trip", "IMG_0001.jpg.json"), takenUnix)
	testsupport.WriteBytes(t, filepath.Join(root, "Trip", "IMG_0002(1).jpg"), testsupport.JPEGHeader)
	testsupport.WriteSidecar(t, filepath.Join(root, "Trip", "IMG_0002.jpg(1).json"), takenUnix)

	return &cliTestEnv{cfg: cfg, configPath: configPath, root: root}
}

func stubPatcherForTests(t *testing.T) *stubPatcher {
	t.Helper()
	stub := &stubPatcher{}
	previous := newPatcher
	newPatcher = func(*config.Config, *slog.Logger) (workflow.Patcher, func() error, error) {
		return stub, func() error { return nil }, nil
	}
	t.Cleanup(func() { newPatcher = previous })
	return stub
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--log-level", "error"}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nstate_dir = %q\nlog_dir = %q\noutput_dir = %q\n\n[exiftool]\nbinary = %q\n",
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Paths.OutputDir,
		cfg.Exiftool.Binary,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestCheckClearedBatch(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"check", env.root}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	requireContains(t, out, "resolved: swap_position")
	requireContains(t, out, "Preflight cleared: 2 sidecar(s) ready to patch")
}

func TestCheckEnumeratesUnresolvedSidecars(t *testing.T) {
	env := setupCLITestEnv(t)
	orphanA := testsupport.WriteSidecar(t, filepath.Join(env.root, "Trip", "IMG_0100.jpg.json"), takenUnix)
	orphanB := testsupport.WriteSidecar(t, filepath.Join(env.root, "Trip", "IMG_0101.jpg(3).json"), takenUnix)

	_, _, err := runCLI(t, []string{"check", env.root}, env.configPath)
	if err == nil {
		t.Fatal("expected check to fail for unresolved sidecars")
	}
	lines := strings.Split(err.Error(), "\n")
	if len(lines) != 3 || lines[1] != orphanA || lines[2] != orphanB {
		t.Fatalf("expected one unresolved path per line, got %q", err.Error())
	}
}

func TestCheckJSONReport(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"check", "--json", env.root}, env.configPath)
	if err != nil {
		t.Fatalf("check --json: %v", err)
	}
	var report checkReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode check report: %v\n%s", err, out)
	}
	if !report.Cleared || report.Admitted != 2 || report.Patterns["swap_position"] != 2 {
		t.Fatalf("unexpected report: %#v", report)
	}
}

func TestPatchDryRunJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	stub := stubPatcherForTests(t)

	out, _, err := runCLI(t, []string{"patch", "--dry-run", "--json", env.root}, env.configPath)
	if err != nil {
		t.Fatalf("patch --dry-run: %v", err)
	}
	var summary workflow.Summary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, out)
	}
	if summary.Totals.Planned != 2 || !summary.DryRun {
		t.Fatalf("unexpected dry-run summary: %#v", summary)
	}
	if len(stub.calls) != 0 {
		t.Fatalf("dry run must not build or call the patcher, got %d calls", len(stub.calls))
	}
}

func TestPatchThenListRuns(t *testing.T) {
	env := setupCLITestEnv(t)
	stub := stubPatcherForTests(t)

	out, _, err := runCLI(t, []string{"patch", env.root}, env.configPath)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	requireContains(t, out, "completed")
	if len(stub.calls) != 2 {
		t.Fatalf("expected 2 patched files, got %d", len(stub.calls))
	}

	out, _, err = runCLI(t, []string{"runs", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	var runs []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode runs: %v\n%s", err, out)
	}
	if len(runs) != 1 || runs[0].Status != "completed" {
		t.Fatalf("unexpected runs: %#v", runs)
	}

	out, _, err = runCLI(t, []string{"runs", "show", "--json", runs[0].ID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	var detail struct {
		Run struct {
			ID string `json:"id"`
		} `json:"run"`
		Results []struct {
			Media  string `json:"media"`
			Status string `json:"status"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(out), &detail); err != nil {
		t.Fatalf("decode run detail: %v\n%s", err, out)
	}
	if detail.Run.ID != runs[0].ID || len(detail.Results) != 2 {
		t.Fatalf("unexpected run detail: %#v", detail)
	}
	for _, result := range detail.Results {
		if result.Status != "patched" {
			t.Fatalf("expected patched results, got %#v", detail.Results)
		}
	}

	out, _, err = runCLI(t, []string{"runs", "show", runs[0].ID}, env.configPath)
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	requireContains(t, out, "Run "+runs[0].ID)
}

func TestPatchRejectsCopyIntoSource(t *testing.T) {
	env := setupCLITestEnv(t)
	stubPatcherForTests(t)

	_, _, err := runCLI(t, []string{"patch", "--copy-to", filepath.Join(env.root, "flat"), env.root}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "inside source") {
		t.Fatalf("expected output-inside-source error, got %v", err)
	}
}

func TestCopyCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(t.TempDir(), "flat")

	out, _, err := runCLI(t, []string{"copy", "--to", target, env.root}, env.configPath)
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	requireContains(t, out, "2 copied")
	for _, name := range []string{"IMG_0001.jpg", "IMG_0002(1).jpg"} {
		if _, err := os.Stat(filepath.Join(target, name)); err != nil {
			t.Fatalf("expected %s in output: %v", name, err)
		}
	}
}

func TestRunsShowUnknownID(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"runs", "show", "nope"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestConfigShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "state_dir")
	requireContains(t, out, env.cfg.Paths.StateDir)
}

func TestStatusReportsExiftool(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	requireContains(t, out, "12.76")
}

func TestLogsFiltersByRun(t *testing.T) {
	env := setupCLITestEnv(t)
	stubPatcherForTests(t)

	if _, _, err := runCLI(t, []string{"--log-level", "info", "patch", env.root}, env.configPath); err != nil {
		t.Fatalf("patch: %v", err)
	}
	out, _, err := runCLI(t, []string{"runs", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	var runs []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(out), &runs); err != nil || len(runs) != 1 {
		t.Fatalf("decode runs: %v\n%s", err, out)
	}

	out, _, err = runCLI(t, []string{"logs", "--run", runs[0].ID[:8], "-n", "0"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "run finished")
	if strings.Contains(out, "run_id=") && !strings.Contains(out, "run_id="+runs[0].ID) {
		t.Fatalf("expected only records of run %s, got:\n%s", runs[0].ID, out)
	}
}
