package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/rosemary/internal/application/allocator"
	"github.com/alejandrodnm/rosemary/internal/domain"
	"github.com/alejandrodnm/rosemary/internal/ports"
)

// Config contiene la configuración del pipeline.
type Config struct {
	FeatureWorkers int  // goroutines para construir features (0 = NumCPU)
	DryRun         bool // no escribe tablas ni persiste
}

// Pipeline es el orquestador de una ejecución: carga → features → allocator →
// tablas → storage → consola.
type Pipeline struct {
	cfg       Config
	bars      ports.BarSource
	allocator *allocator.Allocator
	tables    ports.TableWriter
	store     ports.ResultStore
	notifier  ports.Notifier
}

// New crea un Pipeline con todas las dependencias inyectadas.
// tables y store pueden ser nil: ese paso se omite.
func New(
	cfg Config,
	bars ports.BarSource,
	alloc *allocator.Allocator,
	tables ports.TableWriter,
	store ports.ResultStore,
	notifier ports.Notifier,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		bars:      bars,
		allocator: alloc,
		tables:    tables,
		store:     store,
		notifier:  notifier,
	}
}

// Run ejecuta el pipeline completo una vez.
// Fallar al escribir las tablas es un error; storage y consola sólo avisan.
func (p *Pipeline) Run(ctx context.Context) (domain.RunResult, error) {
	start := time.Now()

	features, err := p.loadFeatures(ctx)
	if err != nil {
		return domain.RunResult{}, fmt.Errorf("pipeline.Run: %w", err)
	}

	run, err := p.allocator.Run(ctx, features)
	if err != nil {
		return domain.RunResult{}, fmt.Errorf("pipeline.Run: %w", err)
	}

	if !p.cfg.DryRun && p.tables != nil {
		if err := p.tables.WriteRun(ctx, run); err != nil {
			return run, fmt.Errorf("pipeline.Run: write tables: %w", err)
		}
	}

	if !p.cfg.DryRun && p.store != nil {
		if err := p.store.SaveRun(ctx, run); err != nil {
			slog.Warn("storage error", "run_id", run.ID, "err", err)
		}
	}

	if p.notifier != nil {
		if err := p.notifier.NotifyRun(ctx, run); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}

	slog.Info("run complete",
		"run_id", run.ID,
		"assets", len(run.Assets),
		"dry_run", p.cfg.DryRun,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return run, nil
}

// Features carga las barras, calcula las features y las escribe.
func (p *Pipeline) Features(ctx context.Context) (map[string][]domain.FeatureRow, error) {
	features, err := p.loadFeatures(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline.Features: %w", err)
	}
	if !p.cfg.DryRun && p.tables != nil {
		if err := p.tables.WriteFeatures(ctx, features); err != nil {
			return nil, fmt.Errorf("pipeline.Features: write: %w", err)
		}
	}
	slog.Info("features written", "symbols", len(features), "dry_run", p.cfg.DryRun)
	return features, nil
}

// History muestra las últimas ejecuciones guardadas.
func (p *Pipeline) History(ctx context.Context, limit int) error {
	if p.store == nil {
		return fmt.Errorf("pipeline.History: no storage configured")
	}
	runs, err := p.store.GetRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("pipeline.History: %w", err)
	}
	if p.notifier == nil {
		return nil
	}
	return p.notifier.NotifyHistory(ctx, runs)
}

func (p *Pipeline) loadFeatures(ctx context.Context) (map[string][]domain.FeatureRow, error) {
	bars, err := p.bars.LoadBars(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bars: %w", err)
	}
	slog.Debug("bars loaded", "symbols", len(bars))
	return allocator.BuildFeatures(ctx, bars, p.cfg.FeatureWorkers)
}
