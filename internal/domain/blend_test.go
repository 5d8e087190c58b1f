package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSoftWeights_SumToOne(t *testing.T) {
	c := DefaultBlend()
	grid := []float64{-0.3, -0.1, -0.02, 0, 0.02, 0.1, 0.3}

	for _, ms := range grid {
		for _, ml := range grid {
			for _, vol := range []float64{0.05, 0.35, 0.9} {
				for _, dd := range []float64{-0.4, -0.05, 0} {
					w := SoftWeights(features(ms, ml, vol, dd), c)
					assert.InDelta(t, 1.0, w.Sum(), 1e-9)
					assert.GreaterOrEqual(t, w.Trend, 0.0)
					assert.GreaterOrEqual(t, w.MeanRev, 0.0)
					assert.GreaterOrEqual(t, w.Cash, 0.0)
				}
			}
		}
	}
}

func TestPowerNormalize_SumStaysOne(t *testing.T) {
	w := SoftWeights(features(0.03, 0.08, 0.15, -0.01), DefaultBlend())

	for _, gamma := range []float64{1, 1.5, 2, 4, 10, 100, 5000} {
		p := PowerNormalize(w, gamma)
		assert.InDelta(t, 1.0, p.Sum(), 1e-9, "gamma=%g", gamma)
	}
}

func TestPowerNormalize_SharpensTowardsDominant(t *testing.T) {
	w := Weights{Trend: 0.5, MeanRev: 0.2, Cash: 0.3}

	assert.Equal(t, w, PowerNormalize(w, 1))

	p := PowerNormalize(w, 3)
	assert.Greater(t, p.Trend, w.Trend)
	assert.Less(t, p.MeanRev, w.MeanRev)

	hard := PowerNormalize(w, 200)
	assert.InDelta(t, 1.0, hard.Trend, 1e-9)
	assert.Equal(t, RegimeTrend, hard.Dominant())
}

func TestSoftWeights_MissingFeatureIsCashOnly(t *testing.T) {
	f := features(0.05, 0.1, 0.15, -0.01)
	f.Drawdown = None()
	assert.Equal(t, CashOnly(), SoftWeights(f, DefaultBlend()))
}

func TestSoftWeights_WarmupRowsAreCashOnly(t *testing.T) {
	c := DefaultBlend()
	c.Gamma = 3
	for i := 0; i < 60; i++ {
		w := SoftWeights(RegimeFeatures{Date: day0.AddDate(0, 0, i)}, c)
		assert.Equal(t, Weights{0, 0, 1}, w)
	}
}

func TestSoftWeights_StrongTrendFavoursTrend(t *testing.T) {
	w := SoftWeights(features(0.15, 0.30, 0.10, 0), DefaultBlend())
	assert.Greater(t, w.Trend, w.MeanRev)
	assert.Greater(t, w.Trend, w.Cash)
}

func TestScores_MatchClosedForm(t *testing.T) {
	c := DefaultBlend()
	// σ(0) = 0.5 en ambos gates → 0.25
	assert.InDelta(t, 0.25, TrendScore(0, 0, c), 1e-12)
	// vol en el techo → gate de vol 0.5
	assert.InDelta(t, 0.125, MeanRevScore(0, 0, c.VolCeiling, c), 1e-12)
	// vol en el suelo de riesgo → 0.7·(1-0.25) + 0.3·0.5
	assert.InDelta(t, 0.7*0.75+0.15, CashScore(0.25, 0.125, c.VolRiskFloor, c), 1e-12)
}

func TestWeights_Blend(t *testing.T) {
	w := Weights{Trend: 0.5, MeanRev: 0.25, Cash: 0.25}
	assert.InDelta(t, 0.5*0.02+0.25*(-0.04), w.Blend(0.02, -0.04), 1e-15)
}

func TestBlendConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultBlend().Validate())
	c := DefaultBlend()
	c.Gamma = 0.5
	assert.Error(t, c.Validate())
}
