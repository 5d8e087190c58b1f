package strategy

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/rosemary/internal/domain"
	"github.com/alejandrodnm/rosemary/internal/ports"
)

// TrendName es el identificador de la estrategia de tendencia.
const TrendName = "trend"

// TrendConfig configura la estrategia de tendencia.
type TrendConfig struct {
	Threshold float64 // entra si la predicción supera este umbral
	Scale     float64 // tamaño = predicción / Scale (variante sized)
	MaxRVol   float64 // techo de rvol_10; <= 0 lo desactiva
	Lifecycle domain.LifecycleConfig
}

// DefaultTrendConfig: umbral 0, sin techo de vol, hold 5 días y 5 bps por lado.
func DefaultTrendConfig() TrendConfig {
	return TrendConfig{
		Scale:     0.01,
		Lifecycle: domain.LifecycleConfig{HoldDays: 5, CostRate: 0.0005},
	}
}

// Trend entra largo cuando el modelo predice un retorno positivo y el
// momentum de 20 días lo confirma.
type Trend struct {
	predictor ports.Predictor
	threshold float64
	scale     float64
	maxRVol   float64
	lifecycle domain.LifecycleConfig
}

// NewTrend crea la estrategia con el predictor y la configuración dados.
func NewTrend(predictor ports.Predictor, cfg TrendConfig) *Trend {
	return &Trend{
		predictor: predictor,
		threshold: cfg.Threshold,
		scale:     cfg.Scale,
		maxRVol:   cfg.MaxRVol,
		lifecycle: cfg.Lifecycle,
	}
}

// Name implementa Strategy.
func (s *Trend) Name() string {
	return TrendName
}

// Lifecycle implementa Strategy.
func (s *Trend) Lifecycle() domain.LifecycleConfig {
	return s.lifecycle
}

// Signals implementa Strategy.
func (s *Trend) Signals(ctx context.Context, rows []domain.FeatureRow) ([]domain.SignalRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.SignalRow, len(rows))
	for i, row := range rows {
		pred, err := s.predictor.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("trend: predict %s: %w", row.Date.Format(domain.DateLayout), err)
		}
		p, ok := pred.Get()

		sig := domain.SignalRow{
			Date:          row.Date,
			Signal:        ok && p > s.threshold,
			ForwardReturn: row.FwdRet1D,
		}

		ret20, ok20 := row.Ret20D.Get()
		sig.Filters = append(sig.Filters, ok20 && ret20 > 0)
		if s.maxRVol > 0 {
			rv, okRV := row.RVol10.Get()
			sig.Filters = append(sig.Filters, okRV && rv <= s.maxRVol)
		}

		if ok && s.scale > 0 {
			sig.Size = domain.FromFloat(p / s.scale)
		}
		out[i] = sig
	}
	return out, nil
}
