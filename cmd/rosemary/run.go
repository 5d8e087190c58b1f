package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alejandrodnm/rosemary/config"
	"github.com/alejandrodnm/rosemary/internal/domain"
)

func newRunCmd(cfg *config.Config) *cobra.Command {
	var (
		dryRun  bool
		mode    string
		compact bool
		gates   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run strategies, meta-allocation, vol targeting and the portfolio",
		Long: `Run the full pipeline over the configured bars file.

Examples:
  rosemary run
  rosemary run --mode soft --gates
  rosemary run --dry-run --compact`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if mode != "" {
				if _, err := domain.ParseMode(mode); err != nil {
					return err
				}
				cfg.Allocator.Mode = mode
			}
			if compact {
				cfg.Output.Compact = true
			}
			if gates {
				cfg.Allocator.GatesEnabled = true
			}

			p, store, err := buildPipeline(cfg, buildOptions{dryRun: dryRun, withStore: true})
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			slog.Info("rosemary starting",
				"bars", cfg.Input.BarsPath,
				"mode", cfg.Allocator.Mode,
				"gates", cfg.Allocator.GatesEnabled,
				"dry_run", dryRun,
			)
			_, err = p.Run(cmd.Context())
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute and print only, no tables or storage")
	cmd.Flags().StringVar(&mode, "mode", "", "allocation mode: hysteresis|simple|soft (overrides config)")
	cmd.Flags().BoolVar(&compact, "compact", false, "print a one-line summary instead of tables")
	cmd.Flags().BoolVar(&gates, "gates", false, "enable strategy availability gates")
	return cmd
}
