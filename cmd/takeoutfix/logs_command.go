package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"takeoutfix/internal/logging"
	"takeoutfix/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		runID  string
		level  string
		lines  int
		follow bool
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent records from the takeoutfix log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
			query := logs.Query{RunID: runID, MinLevel: level, Limit: lines}

			out := cmd.OutOrStdout()
			emit := func(record logs.Record) {
				if raw {
					fmt.Fprintln(out, record.Raw)
					return
				}
				fmt.Fprintln(out, record.Format())
			}

			records, offset, err := logs.Tail(path, query)
			if err != nil {
				return err
			}
			for _, record := range records {
				emit(record)
			}
			if !follow {
				return nil
			}
			query.Limit = 0
			if err := logs.Follow(cmd.Context(), path, offset, query, emit); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Only show records for this run id (or prefix)")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level to show (debug, info, warn, error)")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of records to show (0 for all)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new records")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the JSON lines unchanged")
	return cmd
}
