package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapAndRenormalize_OnePassOvershoot(t *testing.T) {
	w := map[string]float64{"A": 2.0 / 3.0, "B": 1.0 / 3.0}

	got := CapAndRenormalize(w, 0.6)

	total := 0.6 + 1.0/3.0
	assert.InDelta(t, 0.6/total, got["A"], 1e-12) // ≈ 0.643, por encima del cap
	assert.InDelta(t, (1.0/3.0)/total, got["B"], 1e-12)
	assert.Greater(t, got["A"], 0.6)
}

func TestCapAndRenormalize_NoCap(t *testing.T) {
	w := map[string]float64{"A": 0.9, "B": 0.1}
	assert.Equal(t, w, CapAndRenormalize(w, 0))
}

func TestInverseVolWeights_TwoAssetScenario(t *testing.T) {
	x := 0.1 / math.Sqrt2
	panel := AlignAssets(map[string]Series{
		"A": dailySeries(x, -x),     // vol 0.10
		"B": dailySeries(2*x, -2*x), // vol 0.20
	})

	uncapped := InverseVolWeights(panel, PortfolioConfig{Lookback: 2})
	assert.InDelta(t, 2.0/3.0, uncapped[1]["A"], 1e-9)
	assert.InDelta(t, 1.0/3.0, uncapped[1]["B"], 1e-9)

	capped := InverseVolWeights(panel, PortfolioConfig{Lookback: 2, MaxWeight: 0.6})
	assert.InDelta(t, 0.643, capped[1]["A"], 1e-3)
	assert.InDelta(t, 0.357, capped[1]["B"], 1e-3)

	// Ventana incompleta: sin pesos.
	assert.Empty(t, capped[0])
}

func TestBuildPortfolio_WeightsSumToOne(t *testing.T) {
	panel := AlignAssets(map[string]Series{
		"SPY": dailySeries(0.01, -0.02, 0.015, 0.003, -0.007, 0.012, -0.004, 0.002),
		"QQQ": dailySeries(0.02, -0.03, 0.025, 0.001, -0.012, 0.018, -0.006, 0.004),
		"TLT": dailySeries(-0.004, 0.006, -0.002, 0.001, 0.003, -0.005, 0.002, 0.001),
	})

	rows := BuildPortfolio(panel, PortfolioConfig{Lookback: 3, MaxWeight: 0.5})
	require.Len(t, rows, 8)

	for i, r := range rows {
		if i < 2 {
			assert.Empty(t, r.Weights)
			assert.Equal(t, 0.0, r.RawReturn)
			continue
		}
		sum := 0.0
		want := 0.0
		for a, w := range r.Weights {
			assert.GreaterOrEqual(t, w, 0.0)
			sum += w
			want += w * panel.Returns[a][i].V
		}
		assert.InDelta(t, 1.0, sum, 1e-12, "day %d", i)
		assert.InDelta(t, want, r.RawReturn, 1e-15)
	}
}

func TestBuildPortfolio_MissingAssetIsExcludedNotZero(t *testing.T) {
	a := dailySeries(0.01, -0.01, 0.02, -0.02)
	b := Series{a[0], a[1], a[3]} // B no cotiza el día 2
	for i := range b {
		b[i].Value *= 2
	}

	panel := AlignAssets(map[string]Series{"A": a, "B": b})
	require.Len(t, panel.Dates, 4)
	assert.False(t, panel.Returns["B"][2].Valid)

	rows := BuildPortfolio(panel, PortfolioConfig{Lookback: 2})

	// Día 2: sólo A tiene vol definida → peso 1 y retorno de A.
	assert.Equal(t, map[string]float64{"A": 1}, rows[2].Weights)
	assert.InDelta(t, 0.02, rows[2].RawReturn, 1e-15)
	// Día 3: la ventana de B incluye el hueco → B sigue fuera.
	assert.NotContains(t, rows[3].Weights, "B")
}

func TestInverseVolWeights_ZeroVolAssetGetsNoWeight(t *testing.T) {
	panel := AlignAssets(map[string]Series{
		"FLAT": dailySeries(0, 0, 0),
		"LIVE": dailySeries(0.01, -0.01, 0.02),
	})
	w := InverseVolWeights(panel, PortfolioConfig{Lookback: 3, MaxWeight: 0.7})
	assert.NotContains(t, w[2], "FLAT")
	assert.InDelta(t, 1.0, w[2]["LIVE"], 1e-12)
}

func TestTargetPortfolio_FillsLeverage(t *testing.T) {
	rows := []PortfolioRow{
		{Date: day0, RawReturn: 0.01},
		{Date: day0.AddDate(0, 0, 1), RawReturn: -0.01},
	}
	out := TargetPortfolio(rows, RiskConfig{TargetVolAnnual: 0.1, Lookback: 2, MaxLeverage: 1})
	assert.Equal(t, 0.0, out[0].Leverage)
	assert.Greater(t, out[1].Leverage, 0.0)
	assert.InDelta(t, out[1].RawReturn*out[1].Leverage, out[1].Return, 1e-15)
	// la entrada no se modifica
	assert.Equal(t, 0.0, rows[1].Leverage)
}

func TestPortfolioConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultPortfolio().Validate())
	assert.Error(t, PortfolioConfig{Lookback: 20, MaxWeight: 1.5}.Validate())
}

func TestBuildPortfolio_IsBitIdenticalAcrossCalls(t *testing.T) {
	series := make(map[string]Series)
	for k, sym := range []string{"SPY", "QQQ", "IWM", "TLT", "GLD", "EFA", "HYG"} {
		vals := make([]float64, 30)
		for i := range vals {
			vals[i] = 0.013 * math.Sin(float64(i*(k+2))/3.7+float64(k)) * (1 + float64(k)/7)
		}
		series[sym] = dailySeries(vals...)
	}
	panel := AlignAssets(series)
	cfg := PortfolioConfig{Lookback: 3, MaxWeight: 0.2}

	want := BuildPortfolio(panel, cfg)
	for range 300 {
		got := BuildPortfolio(panel, cfg)
		for i := range want {
			require.Equal(t, want[i].RawReturn, got[i].RawReturn, "day %d", i)
			require.Equal(t, want[i].Weights, got[i].Weights, "day %d", i)
		}
	}
}

func TestCapAndRenormalize_IsBitIdenticalAcrossCalls(t *testing.T) {
	w := map[string]float64{"A": 0.31, "B": 0.07, "C": 0.19, "D": 0.23, "E": 0.11, "F": 0.09}
	want := CapAndRenormalize(w, 0.2)
	for range 300 {
		require.Equal(t, want, CapAndRenormalize(w, 0.2))
	}
}
