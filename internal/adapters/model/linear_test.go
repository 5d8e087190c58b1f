package model_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alejandrodnm/rosemary/internal/adapters/model"
	"github.com/alejandrodnm/rosemary/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modelYAML = `
intercept: 0.0002
coefficients:
  ret_1d: -0.05
  ret_20d: 0.1
`

func TestLinear_Predict(t *testing.T) {
	m, err := model.Parse([]byte(modelYAML))
	require.NoError(t, err)

	pred, err := m.Predict(domain.FeatureRow{Ret1D: domain.Some(0.01), Ret20D: domain.Some(0.03)})
	require.NoError(t, err)
	assert.True(t, pred.Valid)
	assert.InDelta(t, 0.0002-0.0005+0.003, pred.V, 1e-15)
}

func TestLinear_MissingFeatureIsNone(t *testing.T) {
	m, err := model.Parse([]byte(modelYAML))
	require.NoError(t, err)

	pred, err := m.Predict(domain.FeatureRow{Ret1D: domain.Some(0.01)})
	require.NoError(t, err)
	assert.False(t, pred.Valid)
}

func TestParse_Errors(t *testing.T) {
	_, err := model.Parse([]byte("intercept: 1\n"))
	assert.Error(t, err)

	_, err = model.Parse([]byte("coefficients:\n  rsi_14: 1\n"))
	assert.ErrorContains(t, err, "rsi_14")

	_, err = model.Parse([]byte("coefficients: [1, 2"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(modelYAML), 0o644))

	m, err := model.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.0002, m.Intercept)
	assert.Len(t, m.Coefficients, 2)

	_, err = model.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
