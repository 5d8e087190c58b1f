package ports

import (
	"context"

	"github.com/alejandrodnm/rosemary/internal/domain"
)

// ResultStore persiste las ejecuciones del pipeline.
type ResultStore interface {
	// SaveRun persiste la ejecución completa en una transacción.
	SaveRun(ctx context.Context, run domain.RunResult) error

	// GetRuns devuelve las cabeceras de las ejecuciones, la más reciente primero.
	GetRuns(ctx context.Context, limit int) ([]domain.RunInfo, error)

	// GetPortfolio devuelve la serie de cartera de una ejecución.
	GetPortfolio(ctx context.Context, runID string) ([]domain.PortfolioRow, error)

	// GetMeta devuelve las filas meta de un símbolo en una ejecución.
	GetMeta(ctx context.Context, runID, symbol string) ([]domain.MetaRow, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
