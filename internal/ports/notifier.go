package ports

import (
	"context"

	"github.com/alejandrodnm/rosemary/internal/domain"
)

// Notifier presenta los resultados al usuario.
type Notifier interface {
	// NotifyRun muestra el resumen por activo y de la cartera.
	NotifyRun(ctx context.Context, run domain.RunResult) error

	// NotifyHistory muestra el listado de ejecuciones guardadas.
	NotifyHistory(ctx context.Context, runs []domain.RunInfo) error
}
