package model

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/rosemary/internal/domain"
)

// Linear es un modelo lineal ya ajustado fuera de este programa:
//
//	pred = intercept + Σ coef_i × feature_i
//
// Implementa ports.Predictor.
type Linear struct {
	Intercept    float64            `yaml:"intercept"`
	Coefficients map[string]float64 `yaml:"coefficients"`

	names []string // orden estable de suma
}

// Load lee el modelo desde un fichero YAML.
func Load(path string) (*Linear, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model.Load: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("model.Load: %s: %w", path, err)
	}
	return m, nil
}

// Parse decodifica el YAML del modelo y valida los nombres de features.
func Parse(data []byte) (*Linear, error) {
	var m Linear
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(m.Coefficients) == 0 {
		return nil, fmt.Errorf("model has no coefficients")
	}
	for name := range m.Coefficients {
		if _, ok := (domain.FeatureRow{}).Feature(name); !ok {
			return nil, fmt.Errorf("unknown feature %q", name)
		}
		m.names = append(m.names, name)
	}
	sort.Strings(m.names)
	return &m, nil
}

// Predict implementa ports.Predictor. Si falta cualquier feature del modelo
// devuelve None: sin predicción no se opera.
func (m *Linear) Predict(row domain.FeatureRow) (domain.Value, error) {
	pred := m.Intercept
	for _, name := range m.names {
		v, _ := row.Feature(name)
		x, ok := v.Get()
		if !ok {
			return domain.None(), nil
		}
		pred += m.Coefficients[name] * x
	}
	return domain.FromFloat(pred), nil
}
