package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"takeoutfix/internal/history"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs from the history ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				if runs == nil {
					runs = []history.Run{}
				}
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					string(run.Mode),
					runStatusLabel(run),
					humanize.Time(run.StartedAt),
					strconv.Itoa(run.Totals.Total),
					strconv.Itoa(run.Totals.Patched),
					strconv.Itoa(run.Totals.Failed),
					strings.Join(run.Roots, ", "),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Mode", "Status", "Started", "Total", "Patched", "Failed", "Roots"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print runs as JSON")
	cmd.AddCommand(newRunsShowCommand(ctx))
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the per-file results of a run (full id or unique prefix)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			results, err := store.RunResults(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			if filter := strings.TrimSpace(statusFilter); filter != "" {
				filtered := results[:0]
				for _, result := range results {
					if result.Status == filter {
						filtered = append(filtered, result)
					}
				}
				results = filtered
			}

			if jsonOutput {
				if results == nil {
					results = []history.Result{}
				}
				return writeJSON(cmd, struct {
					Run     *history.Run     `json:"run"`
					Results []history.Result `json:"results"`
				}{run, results})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s\n", run.ID)
			fmt.Fprintf(out, "Mode: %s  Status: %s  Dry run: %s\n", run.Mode, runStatusLabel(*run), yesNo(run.DryRun))
			fmt.Fprintf(out, "Started: %s (%s)\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"), humanize.Time(run.StartedAt))
			if d := run.Duration(); d > 0 {
				fmt.Fprintf(out, "Duration: %s\n", d.Round(time.Millisecond))
			}
			if run.ErrorMessage != "" {
				fmt.Fprintf(out, "Error: %s\n", run.ErrorMessage)
			}
			if len(results) == 0 {
				fmt.Fprintln(out, "No results recorded")
				return nil
			}
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				name := result.Sidecar
				if name == "" {
					name = result.Media
				}
				rows = append(rows, []string{name, result.Media, result.Pattern, result.Status, truncate(result.Message, 60)})
			}
			fmt.Fprintln(out, renderTable([]string{"Sidecar", "Media", "Pattern", "Status", "Detail"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run and its results as JSON")
	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show results with this status (e.g. failed, not_attempted)")
	return cmd
}

func runStatusLabel(run history.Run) string {
	if run.DryRun {
		return string(run.Status) + " (dry run)"
	}
	return string(run.Status)
}
