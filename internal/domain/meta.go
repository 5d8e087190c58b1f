package domain

import (
	"fmt"
	"sort"
	"time"
)

// AllocationMode elige cómo se reparte entre estrategias.
type AllocationMode string

const (
	ModeHysteresis AllocationMode = "hysteresis" // máquina de estados con memoria
	ModeSimple     AllocationMode = "simple"     // regla v1 sin memoria
	ModeSoft       AllocationMode = "soft"       // blend continuo
)

// ParseMode valida el modo configurado.
func ParseMode(s string) (AllocationMode, error) {
	switch m := AllocationMode(s); m {
	case ModeHysteresis, ModeSimple, ModeSoft:
		return m, nil
	}
	return "", fmt.Errorf("unknown allocation mode %q", s)
}

// MetaConfig agrupa los parámetros del meta-allocator. Es un valor inmutable
// que se pasa a cada llamada.
type MetaConfig struct {
	Mode         AllocationMode
	Hysteresis   HysteresisThresholds
	Simple       SimpleRules
	Blend        BlendConfig
	Gates        GateThresholds
	GatesEnabled bool
}

// DefaultMetaConfig usa histéresis con los umbrales por defecto y sin gates.
func DefaultMetaConfig() MetaConfig {
	return MetaConfig{
		Mode:       ModeHysteresis,
		Hysteresis: DefaultHysteresis(),
		Simple:     DefaultSimpleRules(),
		Blend:      DefaultBlend(),
		Gates:      DefaultGates(),
	}
}

// AllocatorInput es un día con features y los raw returns de ambas estrategias.
type AllocatorInput struct {
	Features   RegimeFeatures
	TrendRaw   float64
	MeanRevRaw float64
}

// MetaRow es la salida diaria del allocator para un activo.
type MetaRow struct {
	Date       time.Time
	Symbol     string
	Regime     Regime  // estado duro; en modo soft, el peso dominante
	Weights    Weights // one-hot en los modos duros
	Gates      Gates
	TrendRaw   float64
	MeanRevRaw float64
	MetaRaw    float64
}

// JoinAllocatorInputs hace el inner join por fecha de las features y las dos
// series de retornos, ordenado por fecha.
func JoinAllocatorInputs(features []RegimeFeatures, trend, meanrev Series) []AllocatorInput {
	tIdx := make(map[time.Time]float64, len(trend))
	for _, p := range trend {
		tIdx[dayKey(p.Date)] = p.Value
	}
	mIdx := make(map[time.Time]float64, len(meanrev))
	for _, p := range meanrev {
		mIdx[dayKey(p.Date)] = p.Value
	}

	out := make([]AllocatorInput, 0, len(features))
	for _, f := range features {
		k := dayKey(f.Date)
		t, okT := tIdx[k]
		m, okM := mIdx[k]
		if !okT || !okM {
			continue
		}
		out = append(out, AllocatorInput{Features: f, TrendRaw: t, MeanRevRaw: m})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Features.Date.Before(out[j].Features.Date)
	})
	return out
}

// BuildMeta produce las filas meta de un activo según el modo configurado.
func BuildMeta(symbol string, in []AllocatorInput, cfg MetaConfig) []MetaRow {
	rows := make([]RegimeFeatures, len(in))
	for i, x := range in {
		rows[i] = x.Features
	}

	var states []Regime
	switch cfg.Mode {
	case ModeSimple:
		states = ClassifySimple(rows, cfg.Simple)
	case ModeSoft:
	default:
		states = ClassifyHysteresis(rows, cfg.Hysteresis)
	}

	out := make([]MetaRow, len(in))
	for i, x := range in {
		gates := AllOpen()
		if cfg.GatesEnabled {
			gates = EvaluateGates(x.Features, cfg.Gates)
		}
		trend, meanrev := gates.Veto(x.TrendRaw, x.MeanRevRaw)

		row := MetaRow{
			Date:       x.Features.Date,
			Symbol:     symbol,
			Gates:      gates,
			TrendRaw:   x.TrendRaw,
			MeanRevRaw: x.MeanRevRaw,
		}
		if cfg.Mode == ModeSoft {
			row.Weights = SoftWeights(x.Features, cfg.Blend)
			row.Regime = row.Weights.Dominant()
			row.MetaRaw = row.Weights.Blend(trend, meanrev)
		} else {
			row.Regime = states[i]
			row.Weights = WeightsFor(states[i])
			row.MetaRaw = states[i].Select(trend, meanrev)
		}
		out[i] = row
	}
	return out
}

// Dominant devuelve el régimen con más peso; en empate gana CASH.
func (w Weights) Dominant() Regime {
	switch {
	case w.Trend > w.MeanRev && w.Trend > w.Cash:
		return RegimeTrend
	case w.MeanRev > w.Trend && w.MeanRev > w.Cash:
		return RegimeMeanRevert
	default:
		return RegimeCash
	}
}

// MetaReturns extrae la serie meta_raw_ret.
func MetaReturns(rows []MetaRow) Series {
	out := make(Series, len(rows))
	for i, r := range rows {
		out[i] = Point{Date: r.Date, Value: r.MetaRaw}
	}
	return out
}

// RegimeShares devuelve la fracción de días en cada régimen (TREND, MEANREV, CASH).
func RegimeShares(rows []MetaRow) Weights {
	if len(rows) == 0 {
		return Weights{}
	}
	var w Weights
	for _, r := range rows {
		switch r.Regime {
		case RegimeTrend:
			w.Trend++
		case RegimeMeanRevert:
			w.MeanRev++
		default:
			w.Cash++
		}
	}
	n := float64(len(rows))
	return Weights{Trend: w.Trend / n, MeanRev: w.MeanRev / n, Cash: w.Cash / n}
}
