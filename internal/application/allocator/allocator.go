package allocator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/rosemary/internal/domain"
	"github.com/alejandrodnm/rosemary/internal/strategy"
)

// Config contiene la configuración del allocator.
type Config struct {
	Meta      domain.MetaConfig
	Risk      domain.RiskConfig // vol targeting de cada activo y de la cartera
	Portfolio domain.PortfolioConfig
	Workers   int // goroutines para el cálculo por activo (0 = NumCPU)
}

// Allocator orquesta estrategias, meta-allocator, vol targeting y cartera.
type Allocator struct {
	cfg     Config
	trend   strategy.Strategy
	meanrev strategy.Strategy
}

// New crea un Allocator con las dos estrategias base inyectadas.
func New(cfg Config, strategies strategy.Registry) (*Allocator, error) {
	trend, ok := strategies.Get(strategy.TrendName)
	if !ok {
		return nil, fmt.Errorf("allocator.New: strategy %q not registered", strategy.TrendName)
	}
	meanrev, ok := strategies.Get(strategy.MeanReversionName)
	if !ok {
		return nil, fmt.Errorf("allocator.New: strategy %q not registered", strategy.MeanReversionName)
	}
	return &Allocator{cfg: cfg, trend: trend, meanrev: meanrev}, nil
}

// Run ejecuta el pipeline completo sobre las features de todos los activos.
// Los activos se procesan en paralelo; la cartera se construye después, en
// secuencia, sobre los meta_raw_ret de todos ellos.
func (a *Allocator) Run(ctx context.Context, features map[string][]domain.FeatureRow) (domain.RunResult, error) {
	if len(features) == 0 {
		return domain.RunResult{}, fmt.Errorf("allocator.Run: %w", domain.ErrEmptyInput)
	}
	start := time.Now()

	symbols := sortedSymbols(features)
	assets := make([]domain.AssetResult, len(symbols))

	err := forEachSymbol(ctx, symbols, a.cfg.Workers, func(ctx context.Context, i int, symbol string) error {
		res, err := a.runAsset(ctx, symbol, features[symbol])
		if err != nil {
			return err
		}
		assets[i] = res
		return nil
	})
	if err != nil {
		return domain.RunResult{}, fmt.Errorf("allocator.Run: %w", err)
	}

	metaBySymbol := make(map[string]domain.Series, len(assets))
	for _, res := range assets {
		metaBySymbol[res.Symbol] = domain.MetaReturns(res.Meta)
	}
	panel := domain.AlignAssets(metaBySymbol)
	portfolio := domain.TargetPortfolio(domain.BuildPortfolio(panel, a.cfg.Portfolio), a.cfg.Risk)

	run := domain.RunResult{
		ID:               uuid.New().String(),
		CreatedAt:        time.Now().UTC(),
		Mode:             a.cfg.Meta.Mode,
		Assets:           assets,
		Portfolio:        portfolio,
		PortfolioSummary: domain.Summarize(domain.PortfolioReturns(portfolio)),
	}

	slog.Info("allocation complete",
		"run_id", run.ID,
		"mode", run.Mode,
		"assets", len(assets),
		"days", len(portfolio),
		"sharpe", run.PortfolioSummary.Sharpe,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return run, nil
}

// runAsset calcula las dos estrategias, las filas meta y el vol targeting de un activo.
func (a *Allocator) runAsset(ctx context.Context, symbol string, rows []domain.FeatureRow) (domain.AssetResult, error) {
	if len(rows) == 0 {
		return domain.AssetResult{}, fmt.Errorf("symbol %s: %w", symbol, domain.ErrEmptyInput)
	}

	trendPos, trendRaw, err := strategy.Run(ctx, a.trend, symbol, rows)
	if err != nil {
		return domain.AssetResult{}, err
	}
	mrPos, mrRaw, err := strategy.Run(ctx, a.meanrev, symbol, rows)
	if err != nil {
		return domain.AssetResult{}, err
	}

	regime := make([]domain.RegimeFeatures, len(rows))
	for i, r := range rows {
		regime[i] = r.Regime()
	}
	in := domain.JoinAllocatorInputs(regime, trendRaw, mrRaw)
	meta := domain.BuildMeta(symbol, in, a.cfg.Meta)
	targeted := domain.TargetVolatility(domain.MetaReturns(meta), a.cfg.Risk)

	slog.Debug("asset allocated",
		"symbol", symbol,
		"days", len(meta),
		"regime_switches", countSwitches(meta),
	)

	return domain.AssetResult{
		Symbol:    symbol,
		Positions: append(trendPos, mrPos...),
		Meta:      meta,
		Targeted:  targeted,
		Summary:   domain.Summarize(domain.TargetedReturns(targeted)),
	}, nil
}

func countSwitches(rows []domain.MetaRow) int {
	states := make([]domain.Regime, len(rows))
	for i, r := range rows {
		states[i] = r.Regime
	}
	return domain.Switches(states)
}
