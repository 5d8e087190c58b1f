package main

import (
	"fmt"

	"github.com/alejandrodnm/rosemary/config"
	"github.com/alejandrodnm/rosemary/internal/adapters/csvfile"
	"github.com/alejandrodnm/rosemary/internal/adapters/model"
	"github.com/alejandrodnm/rosemary/internal/adapters/notify"
	"github.com/alejandrodnm/rosemary/internal/adapters/storage"
	"github.com/alejandrodnm/rosemary/internal/application/allocator"
	"github.com/alejandrodnm/rosemary/internal/application/pipeline"
	"github.com/alejandrodnm/rosemary/internal/ports"
	"github.com/alejandrodnm/rosemary/internal/strategy"
)

// buildOptions son los ajustes de un subcomando sobre la config cargada.
type buildOptions struct {
	dryRun    bool
	withStore bool
}

// buildPipeline construye el pipeline con todos los adapters a partir de la config.
// El llamador cierra el store devuelto si no es nil.
func buildPipeline(cfg *config.Config, opts buildOptions) (*pipeline.Pipeline, *storage.SQLiteStorage, error) {
	if err := cfg.ValidateInputs(); err != nil {
		return nil, nil, err
	}

	predictor, err := model.Load(cfg.Strategy.Trend.ModelPath)
	if err != nil {
		return nil, nil, err
	}

	registry := strategy.NewRegistry(
		strategy.NewTrend(predictor, strategy.TrendConfig{
			Threshold: cfg.Strategy.Trend.Threshold,
			Scale:     cfg.Strategy.Trend.Scale,
			MaxRVol:   cfg.Strategy.Trend.MaxRVol,
			Lifecycle: cfg.Lifecycle.Trend.Domain(),
		}),
		strategy.NewMeanReversion(strategy.MeanReversionConfig{
			EntryDrop: cfg.Strategy.MeanRev.EntryDrop,
			MaxVol:    cfg.Strategy.MeanRev.MaxVol,
			Lifecycle: cfg.Lifecycle.MeanRev.Domain(),
		}),
	)

	alloc, err := allocator.New(allocator.Config{
		Meta:      cfg.MetaConfig(),
		Risk:      cfg.Risk,
		Portfolio: cfg.Portfolio,
		Workers:   cfg.Allocator.Workers,
	}, registry)
	if err != nil {
		return nil, nil, err
	}

	var store *storage.SQLiteStorage
	if opts.withStore && !opts.dryRun {
		store, err = storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open storage %q: %w", cfg.Storage.DSN, err)
		}
	}

	p := pipeline.New(
		pipeline.Config{FeatureWorkers: cfg.Allocator.Workers, DryRun: opts.dryRun},
		csvfile.NewBarReader(cfg.Input.BarsPath, cfg.Input.Symbols...),
		alloc,
		csvfile.NewTableWriter(cfg.Output.Dir),
		storeOrNil(store),
		notify.NewConsole(cfg.Output.Compact),
	)
	return p, store, nil
}

// storeOrNil evita pasar un *SQLiteStorage nil como interfaz no nil.
func storeOrNil(store *storage.SQLiteStorage) ports.ResultStore {
	if store == nil {
		return nil
	}
	return store
}
