package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"takeoutfix/internal/fileutil"
	"takeoutfix/internal/logging"
	"takeoutfix/internal/takeout"
)

func newCopyCommand(ctx *commandContext) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "copy <dir>... [--to <dir>]",
		Short: "Copy media into a flat directory, keeping file times",
		Long: "Copies every file except sidecars and archive leftovers (takeout.copy_skip_extensions)\n" +
			"into one directory. Name collisions get a short random suffix. Defaults to paths.output_dir.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			out, err := copyTarget(cfg, &batchFlags{copyTo: target, copy: true})
			if err != nil {
				return err
			}
			cfg.Paths.OutputDir = out
			if err := cfg.ValidateSources(roots); err != nil {
				return err
			}

			entries, err := takeout.Discover(cmd.Context(), roots)
			if err != nil {
				return err
			}
			logger = logging.NewComponentLogger(logger, "copy")
			summary, err := fileutil.CopyToOutput(cmd.Context(), takeout.Paths(entries), out, cfg.Takeout.CopySkipExtensions,
				func(src, dst string) {
					logger.Debug("file copied", logging.String("source", src), logging.String("destination", dst))
				})
			if err != nil {
				return err
			}
			logger.Info("output copy complete",
				logging.String("output_dir", out),
				logging.Int("copied", summary.Copied),
				logging.Int64("copied_bytes", summary.Bytes),
				logging.String(logging.FieldEventType, "copy_complete"),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Copied into %s: %s\n", out, summary.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "to", "", "Destination directory (defaults to paths.output_dir)")
	return cmd
}
