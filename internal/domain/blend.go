package domain

import (
	"fmt"
	"math"
)

const weightEps = 1e-12

// Weights es el reparto continuo entre estrategias de un día. Suma 1.
type Weights struct {
	Trend   float64
	MeanRev float64
	Cash    float64
}

// CashOnly es el vector conservador {0,0,1}.
func CashOnly() Weights { return Weights{Cash: 1} }

// Sum devuelve w_trend + w_meanrev + w_cash.
func (w Weights) Sum() float64 { return w.Trend + w.MeanRev + w.Cash }

// Blend devuelve el meta return: la caja consume asignación pero no rinde.
func (w Weights) Blend(trendRet, meanrevRet float64) float64 {
	return w.Trend*trendRet + w.MeanRev*meanrevRet
}

// WeightsFor devuelve el vector one-hot equivalente a un régimen duro.
func WeightsFor(r Regime) Weights {
	switch r {
	case RegimeTrend:
		return Weights{Trend: 1}
	case RegimeMeanRevert:
		return Weights{MeanRev: 1}
	default:
		return CashOnly()
	}
}

// BlendConfig parametriza el blender suave.
//
//	trend   = σ(k·mom_long)·σ(k·mom_short)
//	meanrev = σ(-k·mom_short)·σ(-k·dd)·σ(k_vol·(vol_ceiling - vol))
//	cash    = w_weak·(1 - max(trend, meanrev)) + (1-w_weak)·σ(k_cash·(vol - vol_risk_floor))
type BlendConfig struct {
	K            float64 `yaml:"k"`
	VolK         float64 `yaml:"vol_k"`
	VolCeiling   float64 `yaml:"vol_ceiling"`
	CashVolK     float64 `yaml:"cash_vol_k"`
	VolRiskFloor float64 `yaml:"vol_risk_floor"`
	WeakShare    float64 `yaml:"weak_share"`
	Gamma        float64 `yaml:"gamma"`
}

// DefaultBlend devuelve la configuración calibrada por defecto (gamma = 1, blend puro).
func DefaultBlend() BlendConfig {
	return BlendConfig{
		K:            8,
		VolK:         12,
		VolCeiling:   0.40,
		CashVolK:     10,
		VolRiskFloor: 0.35,
		WeakShare:    0.7,
		Gamma:        1,
	}
}

// Validate exige gamma >= 1 y una proporción de caja en [0,1].
func (c BlendConfig) Validate() error {
	if c.Gamma < 1 {
		return fmt.Errorf("blend: gamma must be >= 1, got %g", c.Gamma)
	}
	if c.WeakShare < 0 || c.WeakShare > 1 {
		return fmt.Errorf("blend: weak_share must be in [0,1], got %g", c.WeakShare)
	}
	if c.K <= 0 || c.VolK <= 0 || c.CashVolK <= 0 {
		return fmt.Errorf("blend: steepness must be positive")
	}
	return nil
}

// Sigmoid mapea (-inf, +inf) a (0, 1).
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// TrendScore crece suavemente con momentum positivo.
func TrendScore(momLong, momShort float64, c BlendConfig) float64 {
	return Sigmoid(c.K*momLong) * Sigmoid(c.K*momShort)
}

// MeanRevScore crece con momentum corto negativo, drawdown más profundo y vol baja.
func MeanRevScore(momShort, drawdown, vol float64, c BlendConfig) float64 {
	return Sigmoid(-c.K*momShort) * Sigmoid(-c.K*drawdown) * Sigmoid(c.VolK*(c.VolCeiling-vol))
}

// CashScore sube cuando ambas señales son débiles o la vol es alta.
func CashScore(trend, meanrev, vol float64, c BlendConfig) float64 {
	weak := 1.0 - math.Max(trend, meanrev)
	return c.WeakShare*weak + (1-c.WeakShare)*Sigmoid(c.CashVolK*(vol-c.VolRiskFloor))
}

func normalize(t, m, c float64) Weights {
	total := t + m + c + weightEps
	return Weights{Trend: t / total, MeanRev: m / total, Cash: c / total}
}

// SoftWeights calcula (w_trend, w_meanrev, w_cash) para un día, ya con PowerNormalize
// aplicado según c.Gamma. Sin features completas devuelve {0,0,1}.
func SoftWeights(f RegimeFeatures, c BlendConfig) Weights {
	if !f.Complete() {
		return CashOnly()
	}
	t := TrendScore(f.MomLong.V, f.MomShort.V, c)
	m := MeanRevScore(f.MomShort.V, f.Drawdown.V, f.Vol.V, c)
	cs := CashScore(t, m, f.Vol.V, c)
	return PowerNormalize(normalize(t, m, cs), c.Gamma)
}

// PowerNormalize eleva cada peso a gamma y renormaliza. gamma = 1 no cambia nada;
// gamma → ∞ se acerca a la selección dura.
//
// Los pesos se escalan por el máximo antes de la potencia: el resultado es el
// mismo y el mayor término vale 1, así gammas altos no se quedan en underflow.
func PowerNormalize(w Weights, gamma float64) Weights {
	if gamma == 1 {
		return w
	}
	t, m, c := math.Max(w.Trend, 0), math.Max(w.MeanRev, 0), math.Max(w.Cash, 0)
	top := math.Max(t, math.Max(m, c))
	if top <= 0 {
		return CashOnly()
	}
	return normalize(
		math.Pow(t/top, gamma),
		math.Pow(m/top, gamma),
		math.Pow(c/top, gamma),
	)
}
