package ports

import "github.com/alejandrodnm/rosemary/internal/domain"

// Predictor es un modelo ya ajustado: fila de features → retorno esperado.
// Una predicción None significa que el modelo no puede opinar ese día.
type Predictor interface {
	Predict(row domain.FeatureRow) (domain.Value, error)
}
