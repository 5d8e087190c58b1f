package domain

import (
	"math"
	"time"
)

// Summary son las métricas de rendimiento de una serie diaria de retornos.
type Summary struct {
	TotalReturn float64
	AvgDaily    float64
	DailyVol    float64
	Sharpe      float64 // anualizado; 0 si la vol es 0
	MaxDrawdown float64 // <= 0
	Days        int
}

// EquityPoint es un día de la curva de equity.
type EquityPoint struct {
	Date     time.Time
	Equity   float64
	Drawdown float64
}

// EquityCurve compone los retornos como log-returns: equity = exp(Σ r).
func EquityCurve(s Series) []EquityPoint {
	out := make([]EquityPoint, len(s))
	cum := 0.0
	peak := math.Inf(-1)
	for i, p := range s {
		cum += p.Value
		eq := math.Exp(cum)
		peak = math.Max(peak, eq)
		out[i] = EquityPoint{Date: p.Date, Equity: eq, Drawdown: eq/peak - 1}
	}
	return out
}

// Summarize calcula total return, media, vol, Sharpe y max drawdown.
func Summarize(s Series) Summary {
	if len(s) == 0 {
		return Summary{}
	}
	curve := EquityCurve(s)
	mean, std := meanStd(s.Values())

	sum := Summary{
		TotalReturn: curve[len(curve)-1].Equity - 1,
		AvgDaily:    mean,
		DailyVol:    std,
		Days:        len(s),
	}
	if std > volEpsilon {
		sum.Sharpe = mean / std * math.Sqrt(TradingDaysPerYear)
	}
	for _, p := range curve {
		sum.MaxDrawdown = math.Min(sum.MaxDrawdown, p.Drawdown)
	}
	return sum
}
