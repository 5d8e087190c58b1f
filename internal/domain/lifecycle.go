package domain

import (
	"fmt"
	"time"
)

// LifecycleConfig controla el ciclo de vida de una posición.
type LifecycleConfig struct {
	HoldDays int     // días mínimos que se mantiene la posición tras entrar
	CostRate float64 // coste por lado como fracción del nocional (5 bps = 0.0005)

	// Sized usa SignalRow.Size como tamaño de la posición en lugar de 1.0.
	Sized bool

	// CountEntryDay cuenta el día de entrada como el primero del periodo de
	// holding (days_left = HoldDays-1, mínimo 1).
	CountEntryDay bool
}

// Validate rechaza configuraciones sin sentido.
func (c LifecycleConfig) Validate() error {
	if c.HoldDays < 1 {
		return fmt.Errorf("lifecycle: hold_days must be >= 1, got %d", c.HoldDays)
	}
	if c.CostRate < 0 {
		return fmt.Errorf("lifecycle: cost_rate must be >= 0, got %g", c.CostRate)
	}
	return nil
}

func (c LifecycleConfig) holdCounter() int {
	h := c.HoldDays
	if c.CountEntryDay {
		h--
	}
	return max(h, 1)
}

// SignalRow es la entrada de un día para un símbolo.
type SignalRow struct {
	Date          time.Time
	Signal        bool   // señal de entrada del modelo o regla
	Filters       []bool // filtros adicionales (tendencia, vol, sobreventa...), todos deben cumplirse
	ForwardReturn Value  // retorno del siguiente periodo; ausente cuenta como 0
	Size          Value  // fracción deseada en [0,1], sólo en la variante Sized
}

func (r SignalRow) canEnter() bool {
	if !r.Signal {
		return false
	}
	for _, ok := range r.Filters {
		if !ok {
			return false
		}
	}
	return true
}

// PositionRecord es la salida diaria del motor de ciclo de vida.
type PositionRecord struct {
	Date      time.Time
	Symbol    string
	Strategy  string
	Position  float64 // fracción del nocional en [0,1]
	Cost      float64 // coste de transacción cobrado ese día
	NetReturn float64
	IsEntry   bool
	IsExit    bool
}

// lifecycleState es lo único que se arrastra de un día al siguiente.
type lifecycleState struct {
	position float64
	daysLeft int
}

// step aplica la transición de un día. Entrada y salida son excluyentes:
// entrar exige position == 0 y salir position > 0.
func (s lifecycleState) step(row SignalRow, cfg LifecycleConfig) (lifecycleState, PositionRecord) {
	rec := PositionRecord{Date: row.Date}

	if s.daysLeft > 0 {
		s.daysLeft--
	}

	switch {
	case s.position == 0 && row.canEnter():
		size := 1.0
		if cfg.Sized {
			v, ok := row.Size.Get()
			if !ok || v <= 0 {
				break
			}
			size = min(v, 1.0)
		}
		s.position = size
		s.daysLeft = cfg.holdCounter()
		rec.Cost = size * cfg.CostRate
		rec.IsEntry = true

	case s.position > 0 && s.daysLeft == 0:
		rec.Cost = s.position * cfg.CostRate
		rec.IsExit = true
		s.position = 0
	}

	rec.Position = s.position
	rec.NetReturn = s.position*row.ForwardReturn.Or(0) - rec.Cost
	return s, rec
}

// RunLifecycle convierte las señales de un símbolo en posiciones y retornos netos.
//
// Es un fold sobre los días en orden: la decisión del día t sólo usa filas <= t.
// Tras una entrada en t con HoldDays = h la posición se mantiene en t..t+h-1 y
// vale exactamente 0 en t+h, con coste de salida ese día. Entradas vacías dan
// salida vacía; no hay errores.
func RunLifecycle(symbol, strategy string, rows []SignalRow, cfg LifecycleConfig) []PositionRecord {
	out := make([]PositionRecord, 0, len(rows))
	var st lifecycleState
	for _, row := range rows {
		var rec PositionRecord
		st, rec = st.step(row, cfg)
		rec.Symbol = symbol
		rec.Strategy = strategy
		out = append(out, rec)
	}
	return out
}

// NetReturns extrae la serie de retornos netos (el raw return de la estrategia).
func NetReturns(records []PositionRecord) Series {
	out := make(Series, len(records))
	for i, r := range records {
		out[i] = Point{Date: r.Date, Value: r.NetReturn}
	}
	return out
}

// TotalCost suma los costes cobrados.
func TotalCost(records []PositionRecord) float64 {
	total := 0.0
	for _, r := range records {
		total += r.Cost
	}
	return total
}
