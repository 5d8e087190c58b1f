package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEquityCurve_CompoundsLogReturns(t *testing.T) {
	curve := EquityCurve(dailySeries(0.01, -0.02, 0.01))
	require.Len(t, curve, 3)

	assert.InDelta(t, math.Exp(0.01), curve[0].Equity, 1e-12)
	assert.InDelta(t, math.Exp(-0.01), curve[1].Equity, 1e-12)
	assert.InDelta(t, 1.0, curve[2].Equity, 1e-12)
	assert.Equal(t, 0.0, curve[0].Drawdown)
	assert.InDelta(t, math.Exp(-0.02)-1, curve[1].Drawdown, 1e-12)
}

func TestSummarize(t *testing.T) {
	s := Summarize(dailySeries(0.01, -0.02, 0.01))

	assert.Equal(t, 3, s.Days)
	assert.InDelta(t, 0.0, s.TotalReturn, 1e-12)
	assert.InDelta(t, 0.0, s.AvgDaily, 1e-15)
	assert.InDelta(t, math.Sqrt(0.0006/2), s.DailyVol, 1e-12)
	assert.InDelta(t, 0.0, s.Sharpe, 1e-9)
	assert.InDelta(t, math.Exp(-0.02)-1, s.MaxDrawdown, 1e-12)
}

func TestSummarize_PositiveSharpe(t *testing.T) {
	s := Summarize(dailySeries(0.01, 0.02, 0.0, 0.01))
	mean, std := 0.01, math.Sqrt(0.0002/3)
	assert.InDelta(t, mean/std*math.Sqrt(252), s.Sharpe, 1e-9)
	assert.Equal(t, 0.0, s.MaxDrawdown)
}

func TestSummarize_FlatSeriesHasZeroSharpe(t *testing.T) {
	s := Summarize(dailySeries(0, 0, 0, 0))
	assert.Equal(t, 0.0, s.Sharpe)
	assert.Equal(t, 0.0, s.TotalReturn)
	assert.Equal(t, 0.0, s.MaxDrawdown)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
}
