package domain

import (
	"fmt"
	"math"
	"time"
)

// Bar es una fila diaria de precios ya limpia.
type Bar struct {
	Date     time.Time
	Symbol   string
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   float64
}

// FeatureRow es una fila de la tabla de features de un símbolo.
// Toda feature en su ventana de warm-up es None.
type FeatureRow struct {
	Date     time.Time
	Symbol   string
	AdjClose float64
	Close    float64
	Volume   float64

	// features del modelo de tendencia (log-returns sobre close)
	Ret1D         Value
	Ret5D         Value
	Ret10D        Value
	Ret20D        Value
	RVol10        Value // std10(ret_1d) anualizada
	VolumeRatio10 Value // volume / media10(volume)

	FwdRet1D Value // ret_1d del día siguiente: lo que gana una posición abierta hoy

	// features de régimen (sobre adj_close)
	Mom20      Value
	Mom60      Value
	Vol20      Value
	Drawdown60 Value
}

// Regime devuelve la vista de features que usan clasificador, blender y gates.
func (r FeatureRow) Regime() RegimeFeatures {
	return RegimeFeatures{
		Date:     r.Date,
		MomShort: r.Mom20,
		MomLong:  r.Mom60,
		Vol:      r.Vol20,
		Drawdown: r.Drawdown60,
	}
}

// Feature devuelve una feature por su nombre de columna.
func (r FeatureRow) Feature(name string) (Value, bool) {
	switch name {
	case "ret_1d":
		return r.Ret1D, true
	case "ret_5d":
		return r.Ret5D, true
	case "ret_10d":
		return r.Ret10D, true
	case "ret_20d":
		return r.Ret20D, true
	case "rvol_10":
		return r.RVol10, true
	case "volume_ratio_10":
		return r.VolumeRatio10, true
	case "mom_20":
		return r.Mom20, true
	case "mom_60":
		return r.Mom60, true
	case "vol_20":
		return r.Vol20, true
	case "drawdown_60":
		return r.Drawdown60, true
	}
	return None(), false
}

// BuildFeatures calcula la tabla de features de un símbolo.
// Las barras deben venir ordenadas por fecha estrictamente creciente y con
// precios finitos y positivos; si no, es un error de precondición.
func BuildFeatures(bars []Bar) ([]FeatureRow, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("domain.BuildFeatures: %w", ErrEmptyInput)
	}
	for i, b := range bars {
		if !validPrice(b.Close) || !validPrice(b.AdjClose) {
			return nil, fmt.Errorf("domain.BuildFeatures: %s %s: %w", b.Symbol, b.Date.Format(DateLayout), ErrInvalidPrice)
		}
		if i > 0 && !b.Date.After(bars[i-1].Date) {
			return nil, fmt.Errorf("domain.BuildFeatures: %s %s: %w", b.Symbol, b.Date.Format(DateLayout), ErrUnsortedSeries)
		}
	}

	n := len(bars)
	closes := make([]float64, n)
	adj := make([]float64, n)
	vols := make([]Value, n)
	for i, b := range bars {
		closes[i] = b.Close
		adj[i] = b.AdjClose
		vols[i] = Some(b.Volume)
	}

	ret1 := logReturns(closes, 1)
	pct1 := pctChange(adj, 1)
	rvol10 := annualize(RollingStd(ret1, 10))
	vol20 := annualize(RollingStd(pct1, 20))
	volMA10 := RollingMean(vols, 10)
	max60 := RollingMax(adj, 60)
	ret5, ret10, ret20 := logReturns(closes, 5), logReturns(closes, 10), logReturns(closes, 20)
	mom20, mom60 := pctChange(adj, 20), pctChange(adj, 60)

	rows := make([]FeatureRow, n)
	for i, b := range bars {
		row := FeatureRow{
			Date:       b.Date,
			Symbol:     b.Symbol,
			AdjClose:   b.AdjClose,
			Close:      b.Close,
			Volume:     b.Volume,
			Ret1D:      ret1[i],
			Ret5D:      ret5[i],
			Ret10D:     ret10[i],
			Ret20D:     ret20[i],
			RVol10:     rvol10[i],
			Mom20:      mom20[i],
			Mom60:      mom60[i],
			Vol20:      vol20[i],
			Drawdown60: None(),
		}
		if m, ok := volMA10[i].Get(); ok && m > 0 {
			row.VolumeRatio10 = Some(b.Volume / m)
		}
		if m, ok := max60[i].Get(); ok {
			row.Drawdown60 = Some(b.AdjClose/m - 1)
		}
		if i+1 < n {
			row.FwdRet1D = ret1[i+1]
		}
		rows[i] = row
	}
	return rows, nil
}

// validPrice exige un precio finito y positivo; NaN no pasa ninguna comparación.
func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0)
}

func logReturns(prices []float64, lag int) []Value {
	out := make([]Value, len(prices))
	for i := lag; i < len(prices); i++ {
		out[i] = FromFloat(math.Log(prices[i] / prices[i-lag]))
	}
	return out
}

func pctChange(prices []float64, lag int) []Value {
	out := make([]Value, len(prices))
	for i := lag; i < len(prices); i++ {
		out[i] = FromFloat(prices[i]/prices[i-lag] - 1)
	}
	return out
}

func annualize(xs []Value) []Value {
	out := make([]Value, len(xs))
	for i, x := range xs {
		if v, ok := x.Get(); ok {
			out[i] = Some(AnnualizedVol(v))
		}
	}
	return out
}
