package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"takeoutfix/internal/reconcile"
	"takeoutfix/internal/takeout"
	"takeoutfix/internal/workflow"
)

type checkReport struct {
	Roots      []string       `json:"roots"`
	Files      int            `json:"files"`
	Admitted   int            `json:"admitted"`
	Skipped    map[string]int `json:"skipped"`
	Patterns   map[string]int `json:"patterns"`
	Unresolved []string       `json:"unresolved"`
	Unreadable []string       `json:"unreadable"`
	Cleared    bool           `json:"cleared"`
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "check <dir>...",
		Short: "Resolve every sidecar to its media without modifying anything",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			roots, err := absRoots(args)
			if err != nil {
				return err
			}
			inspection, err := workflow.Inspect(cmd.Context(), roots, cfg.Takeout.ExcludedSidecars, nil)
			if err != nil {
				return err
			}

			report := checkReport{
				Roots:      roots,
				Files:      len(inspection.Entries),
				Admitted:   len(inspection.Batch.Items),
				Skipped:    map[string]int{},
				Patterns:   map[string]int{},
				Unresolved: append([]string{}, inspection.Report.Unresolved...),
				Unreadable: inspection.UnreadablePaths(),
			}
			for _, skipped := range inspection.Batch.Skipped {
				report.Skipped[string(skipped.Reason)]++
			}
			for pattern, count := range inspection.Report.Counts() {
				report.Patterns[pattern.String()] = count
			}
			gateErr := inspection.Err()
			report.Cleared = gateErr == nil

			if jsonOutput {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
				return gateErr
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Outcome", "Sidecars"},
				checkRows(report),
				[]columnAlignment{alignLeft, alignRight},
			))
			if report.Cleared {
				fmt.Fprintf(out, "Preflight cleared: %d sidecar(s) ready to patch\n", report.Admitted)
			}
			return gateErr
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the check report as JSON")
	return cmd
}

func checkRows(report checkReport) [][]string {
	rows := [][]string{}
	for _, name := range sortedKeys(report.Patterns) {
		label := "resolved: " + name
		if name == reconcile.PatternUnresolved.String() {
			label = name
		}
		rows = append(rows, []string{label, strconv.Itoa(report.Patterns[name])})
	}
	for _, reason := range []takeout.SkipReason{takeout.SkipExcluded, takeout.SkipNoCaptureTime, takeout.SkipUnreadable} {
		if n := report.Skipped[string(reason)]; n > 0 {
			rows = append(rows, []string{"skipped: " + string(reason), strconv.Itoa(n)})
		}
	}
	return rows
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
