package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Errores de precondición. Indican un contrato roto aguas arriba y se devuelven
// siempre al llamador, nunca se ignoran.
var (
	ErrEmptyInput     = errors.New("empty input")
	ErrUnsortedSeries = errors.New("dates must be strictly increasing")
	ErrInvalidPrice   = errors.New("price must be finite and positive")
)

// DateLayout es el formato de fecha de todas las tablas persistidas.
const DateLayout = "2006-01-02"

// Value es un número que puede no estar definido (ventana de warm-up, vol cero...).
// Sustituye a la propagación implícita de NaN: cada consumidor decide qué hacer
// con un valor ausente.
type Value struct {
	V     float64
	Valid bool
}

// Some devuelve un valor definido.
func Some(v float64) Value { return Value{V: v, Valid: true} }

// None devuelve un valor ausente.
func None() Value { return Value{} }

// FromFloat convierte un float en Value: NaN e ±Inf se tratan como ausentes.
func FromFloat(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return None()
	}
	return Some(v)
}

// Get devuelve el valor y si está definido.
func (v Value) Get() (float64, bool) { return v.V, v.Valid }

// Or devuelve el valor o def si está ausente.
func (v Value) Or(def float64) float64 {
	if !v.Valid {
		return def
	}
	return v.V
}

func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	return fmt.Sprintf("%g", v.V)
}

// Point es una observación (fecha, valor).
type Point struct {
	Date  time.Time
	Value float64
}

// Series es una serie temporal ordenada por fecha estrictamente creciente.
type Series []Point

// Validate comprueba que las fechas son únicas y estrictamente crecientes.
func (s Series) Validate() error {
	for i := 1; i < len(s); i++ {
		if !s[i].Date.After(s[i-1].Date) {
			return fmt.Errorf("series at %s: %w", s[i].Date.Format(DateLayout), ErrUnsortedSeries)
		}
	}
	return nil
}

// Values devuelve sólo los valores, en orden.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Dates devuelve sólo las fechas, en orden.
func (s Series) Dates() []time.Time {
	out := make([]time.Time, len(s))
	for i, p := range s {
		out[i] = p.Date
	}
	return out
}

// Index devuelve un mapa fecha → valor para joins por fecha.
func (s Series) Index() map[time.Time]float64 {
	idx := make(map[time.Time]float64, len(s))
	for _, p := range s {
		idx[p.Date] = p.Value
	}
	return idx
}

// dayKey normaliza una fecha a medianoche UTC para usarla como clave de join.
func dayKey(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
