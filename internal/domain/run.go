package domain

import "time"

// AssetResult agrupa todo lo que el allocator produce para un activo.
type AssetResult struct {
	Symbol    string
	Positions []PositionRecord // ambas estrategias, trend primero
	Meta      []MetaRow
	Targeted  []TargetedReturn // alineado con Meta por índice
	Summary   Summary          // sobre meta_ret
}

// RunResult es una ejecución completa del pipeline.
type RunResult struct {
	ID               string
	CreatedAt        time.Time
	Mode             AllocationMode
	Assets           []AssetResult // ordenados por símbolo
	Portfolio        []PortfolioRow
	PortfolioSummary Summary
}

// Symbols devuelve los símbolos de la ejecución, en orden.
func (r RunResult) Symbols() []string {
	out := make([]string, len(r.Assets))
	for i, a := range r.Assets {
		out[i] = a.Symbol
	}
	return out
}

// Asset busca el resultado de un símbolo.
func (r RunResult) Asset(symbol string) (AssetResult, bool) {
	for _, a := range r.Assets {
		if a.Symbol == symbol {
			return a, true
		}
	}
	return AssetResult{}, false
}

// RunInfo es la cabecera de una ejecución guardada, para listados.
type RunInfo struct {
	ID          string
	CreatedAt   time.Time
	Mode        AllocationMode
	Assets      int
	Days        int
	TotalReturn float64
	Sharpe      float64
	MaxDrawdown float64
}

// Info resume la ejecución.
func (r RunResult) Info() RunInfo {
	return RunInfo{
		ID:          r.ID,
		CreatedAt:   r.CreatedAt,
		Mode:        r.Mode,
		Assets:      len(r.Assets),
		Days:        r.PortfolioSummary.Days,
		TotalReturn: r.PortfolioSummary.TotalReturn,
		Sharpe:      r.PortfolioSummary.Sharpe,
		MaxDrawdown: r.PortfolioSummary.MaxDrawdown,
	}
}
