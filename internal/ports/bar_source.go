package ports

import (
	"context"

	"github.com/alejandrodnm/rosemary/internal/domain"
)

// BarSource obtiene las barras diarias ya limpias de todos los símbolos.
type BarSource interface {
	// LoadBars devuelve las barras agrupadas por símbolo y ordenadas por fecha.
	LoadBars(ctx context.Context) (map[string][]domain.Bar, error)
}
