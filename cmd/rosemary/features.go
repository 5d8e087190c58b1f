package main

import (
	"github.com/spf13/cobra"

	"github.com/alejandrodnm/rosemary/config"
)

func newFeaturesCmd(cfg *config.Config) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "features",
		Short: "Build the feature table and write features.csv",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, _, err := buildPipeline(cfg, buildOptions{dryRun: dryRun})
			if err != nil {
				return err
			}
			_, err = p.Features(cmd.Context())
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute only, do not write features.csv")
	return cmd
}
