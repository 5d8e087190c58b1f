package domain

import (
	"fmt"
	"math"
	"time"
)

// volEpsilon: por debajo de esta vol se considera cero (ventanas constantes).
const volEpsilon = 1e-12

// RiskConfig parametriza el vol targeting.
type RiskConfig struct {
	TargetVolAnnual float64 `yaml:"target_vol_annual"`
	Lookback        int     `yaml:"lookback"`
	MaxLeverage     float64 `yaml:"max_leverage"`
}

// DefaultRisk devuelve 10% anual, ventana de 20 días y sin apalancamiento.
func DefaultRisk() RiskConfig {
	return RiskConfig{TargetVolAnnual: 0.10, Lookback: 20, MaxLeverage: 1.0}
}

// Validate rechaza parámetros que harían el leverage indefinido.
func (c RiskConfig) Validate() error {
	if c.TargetVolAnnual <= 0 {
		return fmt.Errorf("risk: target_vol_annual must be > 0, got %g", c.TargetVolAnnual)
	}
	if c.Lookback < 2 {
		return fmt.Errorf("risk: lookback must be >= 2, got %d", c.Lookback)
	}
	if c.MaxLeverage <= 0 {
		return fmt.Errorf("risk: max_leverage must be > 0, got %g", c.MaxLeverage)
	}
	return nil
}

// TargetDailyVol es el objetivo anual llevado a vol diaria.
func (c RiskConfig) TargetDailyVol() float64 {
	return c.TargetVolAnnual / math.Sqrt(TradingDaysPerYear)
}

// TargetedReturn es un día de la serie con vol targeting aplicado.
type TargetedReturn struct {
	Date        time.Time
	Raw         float64
	RealizedVol Value // vol diaria realizada en la ventana; ausente en warm-up
	Leverage    float64
	Return      float64
}

// Leverage convierte una vol realizada en leverage acotado a [0, max].
// Vol ausente, cero o no finita → 0 (plano).
func (c RiskConfig) Leverage(realized Value) float64 {
	v, ok := realized.Get()
	if !ok || v <= volEpsilon || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	lev := c.TargetDailyVol() / v
	return math.Min(math.Max(lev, 0), c.MaxLeverage)
}

// TargetVolatility aplica vol targeting a una serie de raw returns.
// Sólo lee la ventana que termina en cada fecha; no hay estado entre llamadas.
func TargetVolatility(raw Series, c RiskConfig) []TargetedReturn {
	vols := RollingStd(Values(raw.Values()), c.Lookback)
	out := make([]TargetedReturn, len(raw))
	for i, p := range raw {
		lev := c.Leverage(vols[i])
		out[i] = TargetedReturn{
			Date:        p.Date,
			Raw:         p.Value,
			RealizedVol: vols[i],
			Leverage:    lev,
			Return:      p.Value * lev,
		}
	}
	return out
}

// TargetedReturns extrae la serie final (meta_ret).
func TargetedReturns(rows []TargetedReturn) Series {
	out := make(Series, len(rows))
	for i, r := range rows {
		out[i] = Point{Date: r.Date, Value: r.Return}
	}
	return out
}
