package domain

import "math"

// GateThresholds son los filtros binarios de disponibilidad de estrategias.
type GateThresholds struct {
	MaxVolGlobal         float64 `yaml:"max_vol_global"`
	TrendMinMomLong      float64 `yaml:"trend_min_mom_long"`
	MeanRevMaxAbsMomLong float64 `yaml:"meanrev_max_abs_mom_long"`
}

// DefaultGates devuelve los umbrales conservadores por defecto.
func DefaultGates() GateThresholds {
	return GateThresholds{
		MaxVolGlobal:         0.60,
		TrendMinMomLong:      0.00,
		MeanRevMaxAbsMomLong: 0.10,
	}
}

// Gates indica qué estrategias pueden operar un día, independientemente del régimen.
type Gates struct {
	TrendAllowed   bool
	MeanRevAllowed bool
}

// AllOpen no veta nada.
func AllOpen() Gates { return Gates{TrendAllowed: true, MeanRevAllowed: true} }

// EvaluateGates calcula las puertas de un día. Un input ausente cierra la puerta.
func EvaluateGates(f RegimeFeatures, th GateThresholds) Gates {
	vol, okVol := f.Vol.Get()
	mom, okMom := f.MomLong.Get()
	if !okVol || !okMom {
		return Gates{}
	}
	safe := vol < th.MaxVolGlobal
	return Gates{
		TrendAllowed:   safe && mom > th.TrendMinMomLong,
		MeanRevAllowed: safe && math.Abs(mom) < th.MeanRevMaxAbsMomLong,
	}
}

// Veto anula el raw return de cada estrategia no permitida.
func (g Gates) Veto(trendRet, meanrevRet float64) (float64, float64) {
	if !g.TrendAllowed {
		trendRet = 0
	}
	if !g.MeanRevAllowed {
		meanrevRet = 0
	}
	return trendRet, meanrevRet
}
