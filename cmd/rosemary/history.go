package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/alejandrodnm/rosemary/config"
	"github.com/alejandrodnm/rosemary/internal/adapters/csvfile"
	"github.com/alejandrodnm/rosemary/internal/adapters/notify"
	"github.com/alejandrodnm/rosemary/internal/adapters/storage"
	"github.com/alejandrodnm/rosemary/internal/application/pipeline"
	"github.com/alejandrodnm/rosemary/internal/domain"
)

func newHistoryCmd(cfg *config.Config) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored runs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
			if err != nil {
				return err
			}
			defer store.Close()

			p := pipeline.New(pipeline.Config{}, nil, nil, nil, store, notify.NewConsole(cfg.Output.Compact))
			return p.History(cmd.Context(), limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs (0 = all)")
	return cmd
}

func newShowCmd(cfg *config.Config) *cobra.Command {
	var symbol string

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the stored portfolio (or one symbol's regimes) of a run as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
			if err != nil {
				return err
			}
			defer store.Close()

			runID := args[0]
			if symbol != "" {
				meta, err := store.GetMeta(cmd.Context(), runID, symbol)
				if err != nil {
					return err
				}
				if len(meta) == 0 {
					return fmt.Errorf("run %s has no rows for %s", runID, symbol)
				}
				return csvfile.WriteRegimes(os.Stdout, meta)
			}

			rows, err := store.GetPortfolio(cmd.Context(), runID)
			if err != nil {
				return err
			}
			return csvfile.WritePortfolio(os.Stdout, storedRun(runID, rows))
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "print the regime rows of this symbol instead of the portfolio")
	return cmd
}

// storedRun reconstruye lo mínimo de una ejecución para exportar su cartera.
func storedRun(id string, rows []domain.PortfolioRow) domain.RunResult {
	seen := make(map[string]bool)
	for _, r := range rows {
		for s := range r.Weights {
			seen[s] = true
		}
	}
	symbols := make([]string, 0, len(seen))
	for s := range seen {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	run := domain.RunResult{ID: id, Portfolio: rows}
	for _, s := range symbols {
		run.Assets = append(run.Assets, domain.AssetResult{Symbol: s})
	}
	return run
}
