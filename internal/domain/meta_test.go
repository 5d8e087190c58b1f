package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dailySeries(values ...float64) Series {
	s := make(Series, len(values))
	for i, v := range values {
		s[i] = Point{Date: day0.AddDate(0, 0, i), Value: v}
	}
	return s
}

func TestJoinAllocatorInputs_InnerJoinByDate(t *testing.T) {
	feats := []RegimeFeatures{
		{Date: day0},
		{Date: day0.AddDate(0, 0, 1)},
		{Date: day0.AddDate(0, 0, 2)},
	}
	trend := dailySeries(0.01, 0.02, 0.03)
	meanrev := dailySeries(-0.01, -0.02) // falta el día 2

	in := JoinAllocatorInputs(feats, trend, meanrev)
	require.Len(t, in, 2)
	assert.Equal(t, 0.02, in[1].TrendRaw)
	assert.Equal(t, -0.02, in[1].MeanRevRaw)
}

func TestBuildMeta_HysteresisSelectsActiveSource(t *testing.T) {
	in := []AllocatorInput{
		{Features: RegimeFeatures{Date: day0}, TrendRaw: 0.05, MeanRevRaw: 0.05},
		{Features: features(0.01, 0.05, 0.15, 0), TrendRaw: 0.02, MeanRevRaw: -0.01},
		{Features: features(-0.04, -0.05, 0.20, -0.06), TrendRaw: 0.03, MeanRevRaw: 0.04},
	}
	in[1].Features.Date = day0.AddDate(0, 0, 1)
	in[2].Features.Date = day0.AddDate(0, 0, 2)

	rows := BuildMeta("SPY", in, DefaultMetaConfig())
	require.Len(t, rows, 3)

	assert.Equal(t, RegimeCash, rows[0].Regime)
	assert.Equal(t, 0.0, rows[0].MetaRaw)
	assert.Equal(t, RegimeTrend, rows[1].Regime)
	assert.Equal(t, 0.02, rows[1].MetaRaw)
	assert.Equal(t, RegimeMeanRevert, rows[2].Regime)
	assert.Equal(t, 0.04, rows[2].MetaRaw)
	assert.Equal(t, Weights{MeanRev: 1}, rows[2].Weights)
	assert.Equal(t, "SPY", rows[2].Symbol)
}

func TestBuildMeta_SoftBlendsReturns(t *testing.T) {
	cfg := DefaultMetaConfig()
	cfg.Mode = ModeSoft

	in := []AllocatorInput{
		{Features: features(0.01, 0.05, 0.15, -0.02), TrendRaw: 0.02, MeanRevRaw: -0.01},
	}
	rows := BuildMeta("SPY", in, cfg)
	require.Len(t, rows, 1)

	w := rows[0].Weights
	assert.InDelta(t, 1.0, w.Sum(), 1e-9)
	assert.InDelta(t, w.Trend*0.02+w.MeanRev*(-0.01), rows[0].MetaRaw, 1e-15)
}

func TestBuildMeta_SoftWarmupIsCash(t *testing.T) {
	cfg := DefaultMetaConfig()
	cfg.Mode = ModeSoft

	in := make([]AllocatorInput, 60)
	for i := range in {
		in[i] = AllocatorInput{Features: RegimeFeatures{Date: day0.AddDate(0, 0, i)}, TrendRaw: 0.01, MeanRevRaw: 0.02}
	}
	for _, r := range BuildMeta("SPY", in, cfg) {
		assert.Equal(t, CashOnly(), r.Weights)
		assert.Equal(t, 0.0, r.MetaRaw)
	}
}

func TestBuildMeta_GatesVetoSelectedStrategy(t *testing.T) {
	cfg := DefaultMetaConfig()
	cfg.GatesEnabled = true

	// TREND activo pero con vol por encima del techo global de las gates.
	in := []AllocatorInput{
		{Features: features(0.01, 0.05, 0.30, 0), TrendRaw: 0.02},
		{Features: features(0.01, 0.05, 0.65, 0), TrendRaw: 0.02},
	}
	in[1].Features.Date = day0.AddDate(0, 0, 1)

	rows := BuildMeta("SPY", in, cfg)
	assert.Equal(t, 0.02, rows[0].MetaRaw)
	assert.Equal(t, RegimeTrend, rows[1].Regime)
	assert.Equal(t, 0.0, rows[1].MetaRaw)
	assert.False(t, rows[1].Gates.TrendAllowed)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("soft")
	assert.NoError(t, err)
	assert.Equal(t, ModeSoft, m)

	_, err = ParseMode("adaptive")
	assert.Error(t, err)
}

func TestRegimeShares(t *testing.T) {
	rows := []MetaRow{
		{Regime: RegimeTrend}, {Regime: RegimeTrend}, {Regime: RegimeCash}, {Regime: RegimeMeanRevert},
	}
	assert.Equal(t, Weights{Trend: 0.5, MeanRev: 0.25, Cash: 0.25}, RegimeShares(rows))
	assert.Equal(t, Weights{}, RegimeShares(nil))
}
