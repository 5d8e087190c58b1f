package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateGates(t *testing.T) {
	th := DefaultGates()

	tests := []struct {
		name    string
		f       RegimeFeatures
		trend   bool
		meanrev bool
	}{
		{"calm uptrend", features(0.01, 0.05, 0.20, 0), true, true},
		{"strong uptrend", features(0.01, 0.15, 0.20, 0), true, false},
		{"calm downtrend", features(-0.01, -0.05, 0.20, -0.05), false, true},
		{"crash vol", features(-0.10, -0.05, 0.80, -0.20), false, false},
		{"missing vol", RegimeFeatures{MomLong: Some(0.05)}, false, false},
		{"missing momentum", RegimeFeatures{Vol: Some(0.1)}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := EvaluateGates(tt.f, th)
			assert.Equal(t, tt.trend, g.TrendAllowed)
			assert.Equal(t, tt.meanrev, g.MeanRevAllowed)
		})
	}
}

func TestGates_Veto(t *testing.T) {
	tr, mr := Gates{TrendAllowed: true}.Veto(0.02, -0.01)
	assert.Equal(t, 0.02, tr)
	assert.Equal(t, 0.0, mr)

	tr, mr = AllOpen().Veto(0.02, -0.01)
	assert.Equal(t, 0.02, tr)
	assert.Equal(t, -0.01, mr)
}
