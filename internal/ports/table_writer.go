package ports

import (
	"context"

	"github.com/alejandrodnm/rosemary/internal/domain"
)

// TableWriter exporta los resultados como tablas indexadas por fecha.
type TableWriter interface {
	// WriteRun escribe las tablas de posiciones, meta y cartera.
	WriteRun(ctx context.Context, run domain.RunResult) error

	// WriteFeatures escribe la tabla de features de todos los símbolos.
	WriteFeatures(ctx context.Context, features map[string][]domain.FeatureRow) error
}
