package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"takeoutfix/internal/config"
	"takeoutfix/internal/history"
	"takeoutfix/internal/services/exiftool"
	"takeoutfix/internal/workflow"
)

// newPatcher builds the tag writer for a run. Tests replace it.
var newPatcher = func(cfg *config.Config, logger *slog.Logger) (workflow.Patcher, func() error, error) {
	client, err := exiftool.New(exiftool.OptionsFromConfig(cfg), logger)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

// dryRunPatcher satisfies the runner during dry runs, which never patch.
type dryRunPatcher struct{}

func (dryRunPatcher) Patch(context.Context, string, string) (exiftool.Result, error) {
	return 0, errors.New("dry run must not patch media")
}

type batchFlags struct {
	dryRun      bool
	haltOnError bool
	copyTo      string
	copy        bool
	jsonOutput  bool
}

func (f *batchFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Resolve and report without modifying or copying files")
	cmd.Flags().BoolVar(&f.haltOnError, "halt-on-error", false, "Stop after the first failed file (overrides takeout.halt_on_error)")
	cmd.Flags().StringVar(&f.copyTo, "copy-to", "", "Copy media into this flat directory after patching")
	cmd.Flags().BoolVar(&f.copy, "copy", false, "Copy media into the configured paths.output_dir after patching")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "Print the run summary as JSON")
}

func newPatchCommand(ctx *commandContext) *cobra.Command {
	flags := &batchFlags{}
	cmd := &cobra.Command{
		Use:   "patch <dir>...",
		Short: "Write sidecar capture times into the matching media files",
		Long: "Discovers sidecars under each directory, verifies that every one resolves to a media\n" +
			"file, and only then writes DateTimeOriginal and CreateDate. A batch with any unresolved\n" +
			"or unreadable sidecar is rejected before anything is modified.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, ctx, history.ModePatch, args, flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func newMtimeCommand(ctx *commandContext) *cobra.Command {
	flags := &batchFlags{}
	cmd := &cobra.Command{
		Use:   "mtime <dir>...",
		Short: "Write each file's modification time into its date tags",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, ctx, history.ModeMtime, args, flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func runBatch(cmd *cobra.Command, ctx *commandContext, mode history.Mode, args []string, flags *batchFlags) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	roots, err := absRoots(args)
	if err != nil {
		return err
	}

	opts := workflow.Options{
		DryRun:      flags.dryRun,
		HaltOnError: flags.haltOnError || cfg.Takeout.HaltOnError,
	}
	if target, err := copyTarget(cfg, flags); err != nil {
		return err
	} else if target != "" {
		cfg.Paths.OutputDir = target
		if err := cfg.ValidateSources(roots); err != nil {
			return err
		}
		opts.CopyTo = target
	}

	var patcher workflow.Patcher = dryRunPatcher{}
	if !flags.dryRun {
		built, closeFn, err := newPatcher(cfg, logger)
		if err != nil {
			return err
		}
		defer closeFn()
		patcher = built
	}

	store, err := ctx.openHistory()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	runner, err := workflow.NewRunner(cfg, store, patcher, logger)
	if err != nil {
		return err
	}

	progress := newProgressHooks(cmd.ErrOrStderr(), progressLabel(mode, flags.dryRun))
	if !flags.jsonOutput {
		progress.attach(&opts)
	}

	var summary *workflow.Summary
	switch mode {
	case history.ModeMtime:
		summary, err = runner.Mtime(cmd.Context(), roots, opts)
	default:
		summary, err = runner.Patch(cmd.Context(), roots, opts)
	}
	progress.finish()
	if summary == nil {
		return err
	}

	if flags.jsonOutput {
		if writeErr := writeJSON(cmd, summary); writeErr != nil {
			return writeErr
		}
	} else {
		printSummary(cmd.OutOrStdout(), summary)
	}
	if err != nil {
		return err
	}
	if failed := summary.Totals.Failed; failed > 0 {
		return fmt.Errorf("%d file(s) failed; see run %s", failed, shortID(summary.RunID))
	}
	return nil
}

func copyTarget(cfg *config.Config, flags *batchFlags) (string, error) {
	target := strings.TrimSpace(flags.copyTo)
	if target == "" && flags.copy {
		target = cfg.Paths.OutputDir
	}
	if target == "" {
		return "", nil
	}
	return config.ExpandPath(target)
}

func progressLabel(mode history.Mode, dryRun bool) string {
	if dryRun {
		return "planning"
	}
	if mode == history.ModeMtime {
		return "stamping"
	}
	return "patching"
}

func printSummary(w io.Writer, summary *workflow.Summary) {
	totals := summary.Totals
	rows := [][]string{
		{"patched", strconv.Itoa(totals.Patched)},
		{"unchanged", strconv.Itoa(totals.Unchanged)},
		{"skipped", strconv.Itoa(totals.Skipped)},
		{"failed", strconv.Itoa(totals.Failed)},
	}
	if totals.NotAttempted > 0 {
		rows = append(rows, []string{"not attempted", strconv.Itoa(totals.NotAttempted)})
	}
	if totals.Planned > 0 {
		rows = append(rows, []string{"planned", strconv.Itoa(totals.Planned)})
	}
	fmt.Fprintf(w, "Run %s (%s, %s)\n", shortID(summary.RunID), summary.Mode, summary.Status)
	fmt.Fprintln(w, renderTable([]string{"Result", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))

	if failures := summary.Failures(); len(failures) > 0 {
		failRows := make([][]string, 0, len(failures))
		for _, failure := range failures {
			name := failure.Sidecar
			if name == "" {
				name = failure.Media
			}
			failRows = append(failRows, []string{name, failure.Status, truncate(failure.Message, 80)})
		}
		fmt.Fprintln(w, renderTable([]string{"File", "Status", "Error"}, failRows, nil))
	}
	if summary.Copy != nil {
		fmt.Fprintf(w, "Output copy: %s\n", summary.Copy.String())
	}
	if summary.ReportPath != "" {
		fmt.Fprintf(w, "Report: %s\n", summary.ReportPath)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncate collapses whitespace and shortens value to limit runes.
func truncate(value string, limit int) string {
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if limit <= 3 || len(runes) <= limit {
		return value
	}
	return string(runes[:limit-3]) + "..."
}
