package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// PortfolioConfig parametriza la construcción inverse-vol.
type PortfolioConfig struct {
	Lookback  int     `yaml:"lookback"`
	MaxWeight float64 `yaml:"max_weight"` // <= 0 desactiva el cap
}

// DefaultPortfolio devuelve ventana de 20 días y cap del 70%.
func DefaultPortfolio() PortfolioConfig {
	return PortfolioConfig{Lookback: 20, MaxWeight: 0.7}
}

// Validate rechaza ventanas sin sentido y caps por encima de 1.
func (c PortfolioConfig) Validate() error {
	if c.Lookback < 2 {
		return fmt.Errorf("portfolio: lookback must be >= 2, got %d", c.Lookback)
	}
	if c.MaxWeight > 1 {
		return fmt.Errorf("portfolio: max_weight must be <= 1, got %g", c.MaxWeight)
	}
	return nil
}

// Panel son las series de varios activos alineadas al calendario unión.
// Un activo sin fila en una fecha tiene None en esa posición.
type Panel struct {
	Dates   []time.Time
	Assets  []string // ordenados
	Returns map[string][]Value
}

// AlignAssets construye el Panel a partir de la serie de cada activo.
func AlignAssets(series map[string]Series) Panel {
	seen := make(map[time.Time]struct{})
	for _, s := range series {
		for _, p := range s {
			seen[dayKey(p.Date)] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	pos := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		pos[d] = i
	}

	assets := make([]string, 0, len(series))
	returns := make(map[string][]Value, len(series))
	for name, s := range series {
		assets = append(assets, name)
		col := make([]Value, len(dates))
		for _, p := range s {
			col[pos[dayKey(p.Date)]] = FromFloat(p.Value)
		}
		returns[name] = col
	}
	sort.Strings(assets)

	return Panel{Dates: dates, Assets: assets, Returns: returns}
}

// InverseVolWeights calcula los pesos de cada fecha:
//
//	w_i = (1/vol_i) / Σ_j (1/vol_j)
//
// sólo sobre activos con vol definida, finita y no nula, y después aplica
// CapAndRenormalize. Cada fecha se calcula de forma independiente.
func InverseVolWeights(p Panel, c PortfolioConfig) []map[string]float64 {
	vols := make(map[string][]Value, len(p.Assets))
	for _, a := range p.Assets {
		vols[a] = RollingStd(p.Returns[a], c.Lookback)
	}

	out := make([]map[string]float64, len(p.Dates))
	for t := range p.Dates {
		inv := make(map[string]float64)
		total := 0.0
		for _, a := range p.Assets {
			v, ok := vols[a][t].Get()
			if !ok || v <= volEpsilon || math.IsInf(v, 0) {
				continue
			}
			inv[a] = 1 / v
			total += 1 / v
		}
		w := make(map[string]float64, len(inv))
		if total > 0 {
			for a, x := range inv {
				w[a] = x / total
			}
		}
		out[t] = CapAndRenormalize(w, c.MaxWeight)
	}
	return out
}

// CapAndRenormalize recorta cada peso a maxWeight y renormaliza una sola vez.
//
// No se repite el cap: tras renormalizar un peso recortado puede quedar por
// encima de maxWeight (p.ej. [0.667, 0.333] con cap 0.6 → [0.643, 0.357]).
func CapAndRenormalize(w map[string]float64, maxWeight float64) map[string]float64 {
	if maxWeight <= 0 || len(w) == 0 {
		return w
	}
	assets := make([]string, 0, len(w))
	for a := range w {
		assets = append(assets, a)
	}
	sort.Strings(assets)

	capped := make(map[string]float64, len(w))
	total := 0.0
	for _, a := range assets {
		x := math.Min(w[a], maxWeight)
		capped[a] = x
		total += x
	}
	if total <= 0 {
		return map[string]float64{}
	}
	for a := range capped {
		capped[a] /= total
	}
	return capped
}

// PortfolioRow es un día de la cartera.
type PortfolioRow struct {
	Date      time.Time
	Weights   map[string]float64
	RawReturn float64 // Σ w_i × r_i antes de vol targeting
	Leverage  float64
	Return    float64
}

// BuildPortfolio calcula pesos y retorno bruto de la cartera por fecha.
// Un activo sin peso definido o ausente esa fecha no contribuye. Las sumas
// siguen el orden de p.Assets: mismo panel, mismos bits.
func BuildPortfolio(p Panel, c PortfolioConfig) []PortfolioRow {
	weights := InverseVolWeights(p, c)
	out := make([]PortfolioRow, len(p.Dates))
	for t, d := range p.Dates {
		ret := 0.0
		for _, a := range p.Assets {
			w, ok := weights[t][a]
			if !ok {
				continue
			}
			r, ok := p.Returns[a][t].Get()
			if !ok {
				continue
			}
			ret += w * r
		}
		out[t] = PortfolioRow{Date: d, Weights: weights[t], RawReturn: ret}
	}
	return out
}

// TargetPortfolio aplica vol targeting al retorno bruto de la cartera.
func TargetPortfolio(rows []PortfolioRow, rc RiskConfig) []PortfolioRow {
	raw := make(Series, len(rows))
	for i, r := range rows {
		raw[i] = Point{Date: r.Date, Value: r.RawReturn}
	}
	targeted := TargetVolatility(raw, rc)
	out := make([]PortfolioRow, len(rows))
	for i, r := range rows {
		r.Leverage = targeted[i].Leverage
		r.Return = targeted[i].Return
		out[i] = r
	}
	return out
}

// PortfolioReturns extrae la serie final de la cartera.
func PortfolioReturns(rows []PortfolioRow) Series {
	out := make(Series, len(rows))
	for i, r := range rows {
		out[i] = Point{Date: r.Date, Value: r.Return}
	}
	return out
}
