package allocator

// concurrent.go — fan-out por símbolo.
//
// Cada símbolo es independiente: cada goroutine escribe sólo en su propio
// índice del slice de resultados, así que no hace falta ningún lock.

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/rosemary/internal/domain"
)

// forEachSymbol ejecuta fn para cada símbolo con como mucho workers goroutines.
// Si workers <= 0 usa runtime.NumCPU(). El primer error cancela los pendientes.
func forEachSymbol(ctx context.Context, symbols []string, workers int, fn func(ctx context.Context, i int, symbol string) error) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, symbol := range symbols {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i, symbol)
		})
	}
	return g.Wait()
}

// sortedSymbols devuelve las claves del mapa en orden.
func sortedSymbols[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for s := range m {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// BuildFeatures calcula en paralelo la tabla de features de cada símbolo.
func BuildFeatures(ctx context.Context, bars map[string][]domain.Bar, workers int) (map[string][]domain.FeatureRow, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("allocator.BuildFeatures: %w", domain.ErrEmptyInput)
	}

	symbols := sortedSymbols(bars)
	tables := make([][]domain.FeatureRow, len(symbols))

	err := forEachSymbol(ctx, symbols, workers, func(_ context.Context, i int, symbol string) error {
		rows, err := domain.BuildFeatures(bars[symbol])
		if err != nil {
			return fmt.Errorf("symbol %s: %w", symbol, err)
		}
		tables[i] = rows
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("allocator.BuildFeatures: %w", err)
	}

	out := make(map[string][]domain.FeatureRow, len(symbols))
	for i, symbol := range symbols {
		out[symbol] = tables[i]
	}
	slog.Debug("features built", "symbols", len(symbols), "workers", workers)
	return out, nil
}
