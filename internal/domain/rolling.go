package domain

import "math"

// TradingDaysPerYear se usa para anualizar volatilidades y Sharpe.
const TradingDaysPerYear = 252

// RollingStd calcula la desviación estándar muestral (n-1) sobre una ventana
// que termina en cada índice, incluido. Devuelve None mientras la ventana no
// está llena o si contiene algún valor ausente.
func RollingStd(xs []Value, window int) []Value {
	out := make([]Value, len(xs))
	if window < 2 {
		return out
	}
	for i := window - 1; i < len(xs); i++ {
		out[i] = stdOf(xs[i-window+1 : i+1])
	}
	return out
}

// RollingMean es la media sobre la ventana que termina en cada índice.
func RollingMean(xs []Value, window int) []Value {
	out := make([]Value, len(xs))
	if window < 1 {
		return out
	}
	for i := window - 1; i < len(xs); i++ {
		sum := 0.0
		ok := true
		for _, x := range xs[i-window+1 : i+1] {
			if !x.Valid {
				ok = false
				break
			}
			sum += x.V
		}
		if ok {
			out[i] = Some(sum / float64(window))
		}
	}
	return out
}

// RollingMax es el máximo sobre la ventana que termina en cada índice.
func RollingMax(xs []float64, window int) []Value {
	out := make([]Value, len(xs))
	if window < 1 {
		return out
	}
	for i := window - 1; i < len(xs); i++ {
		m := math.Inf(-1)
		for _, x := range xs[i-window+1 : i+1] {
			m = math.Max(m, x)
		}
		out[i] = Some(m)
	}
	return out
}

// Values envuelve un slice de floats como valores definidos.
func Values(xs []float64) []Value {
	out := make([]Value, len(xs))
	for i, x := range xs {
		out[i] = FromFloat(x)
	}
	return out
}

func stdOf(window []Value) Value {
	n := len(window)
	if n < 2 {
		return None()
	}
	sum := 0.0
	for _, x := range window {
		if !x.Valid {
			return None()
		}
		sum += x.V
	}
	mean := sum / float64(n)
	ss := 0.0
	for _, x := range window {
		d := x.V - mean
		ss += d * d
	}
	return Some(math.Sqrt(ss / float64(n-1)))
}

func meanStd(xs []float64) (mean, std float64) {
	n := len(xs)
	if n == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(n)
	if n < 2 {
		return mean, 0
	}
	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(n-1))
}

// AnnualizedVol pasa una vol diaria a anual.
func AnnualizedVol(daily float64) float64 {
	return daily * math.Sqrt(TradingDaysPerYear)
}
