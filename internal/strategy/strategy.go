package strategy

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/rosemary/internal/domain"
)

// Strategy define el contrato de una estrategia de un solo activo.
// Cada estrategia traduce features en señales; el ciclo de vida de la posición
// lo gestiona siempre domain.RunLifecycle.
type Strategy interface {
	// Name devuelve el identificador único de la estrategia.
	Name() string

	// Signals devuelve una SignalRow por cada fila de features, en el mismo orden.
	// Sólo puede usar información disponible en la fecha de cada fila.
	Signals(ctx context.Context, rows []domain.FeatureRow) ([]domain.SignalRow, error)

	// Lifecycle devuelve holding mínimo, costes y modo de sizing.
	Lifecycle() domain.LifecycleConfig
}

// Run aplica la estrategia a las features de un símbolo y devuelve las
// posiciones diarias y la serie de raw returns (retorno neto de costes).
func Run(ctx context.Context, s Strategy, symbol string, rows []domain.FeatureRow) ([]domain.PositionRecord, domain.Series, error) {
	signals, err := s.Signals(ctx, rows)
	if err != nil {
		return nil, nil, fmt.Errorf("strategy.Run: %s %s: %w", s.Name(), symbol, err)
	}
	records := domain.RunLifecycle(symbol, s.Name(), signals, s.Lifecycle())
	return records, domain.NetReturns(records), nil
}

// Registry mantiene las estrategias disponibles indexadas por nombre.
type Registry map[string]Strategy

// NewRegistry crea un registry con las estrategias dadas.
func NewRegistry(strategies ...Strategy) Registry {
	r := make(Registry, len(strategies))
	for _, s := range strategies {
		r.Register(s)
	}
	return r
}

// Register añade una estrategia al registry.
func (r Registry) Register(s Strategy) {
	r[s.Name()] = s
}

// Get devuelve la estrategia por nombre.
func (r Registry) Get(name string) (Strategy, bool) {
	s, ok := r[name]
	return s, ok
}

// MustGet es Get para nombres que el llamador ha registrado él mismo.
func (r Registry) MustGet(name string) Strategy {
	s, ok := r[name]
	if !ok {
		panic(fmt.Sprintf("strategy %q not registered", name))
	}
	return s
}
