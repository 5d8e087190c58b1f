package strategy

import (
	"context"

	"github.com/alejandrodnm/rosemary/internal/domain"
)

// MeanReversionName es el identificador de la estrategia de reversión a la media.
const MeanReversionName = "meanrev"

// MeanReversionConfig configura la estrategia de reversión a la media.
type MeanReversionConfig struct {
	EntryDrop float64 // entra si ret_5d < -EntryDrop
	MaxVol    float64 // sólo opera con vol_20 por debajo; <= 0 lo desactiva
	Lifecycle domain.LifecycleConfig
}

// DefaultMeanReversionConfig: caída del 2% en 5 días, vol < 40%, hold 3 días.
func DefaultMeanReversionConfig() MeanReversionConfig {
	return MeanReversionConfig{
		EntryDrop: 0.02,
		MaxVol:    0.40,
		Lifecycle: domain.LifecycleConfig{HoldDays: 3, CostRate: 0.0005},
	}
}

// MeanReversion compra sobreventas de corto plazo en entornos de vol contenida.
type MeanReversion struct {
	entryDrop float64
	maxVol    float64
	lifecycle domain.LifecycleConfig
}

// NewMeanReversion crea la estrategia con la configuración dada.
func NewMeanReversion(cfg MeanReversionConfig) *MeanReversion {
	return &MeanReversion{
		entryDrop: cfg.EntryDrop,
		maxVol:    cfg.MaxVol,
		lifecycle: cfg.Lifecycle,
	}
}

// Name implementa Strategy.
func (s *MeanReversion) Name() string {
	return MeanReversionName
}

// Lifecycle implementa Strategy.
func (s *MeanReversion) Lifecycle() domain.LifecycleConfig {
	return s.lifecycle
}

// Signals implementa Strategy. No usa modelo: la señal es una regla sobre ret_5d.
func (s *MeanReversion) Signals(ctx context.Context, rows []domain.FeatureRow) ([]domain.SignalRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.SignalRow, len(rows))
	for i, row := range rows {
		ret5, ok := row.Ret5D.Get()
		sig := domain.SignalRow{
			Date:          row.Date,
			Signal:        ok && ret5 < -s.entryDrop,
			ForwardReturn: row.FwdRet1D,
			Size:          domain.Some(1),
		}
		if s.maxVol > 0 {
			vol, okV := row.Vol20.Get()
			sig.Filters = []bool{okV && vol < s.maxVol}
		}
		out[i] = sig
	}
	return out, nil
}
