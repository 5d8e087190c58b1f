package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alejandrodnm/rosemary/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out     io.Writer
	compact bool
}

// NewConsole crea un notificador que escribe a stdout.
// En modo compact imprime una línea por ejecución en lugar de tablas.
func NewConsole(compact bool) *Console {
	return &Console{out: os.Stdout, compact: compact}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, compact bool) *Console {
	return &Console{out: w, compact: compact}
}

// NotifyRun imprime el resumen de la ejecución en el modo configurado.
func (c *Console) NotifyRun(_ context.Context, run domain.RunResult) error {
	if len(run.Assets) == 0 {
		fmt.Fprintf(c.out, "[%s] no assets in run\n", shortID(run.ID))
		return nil
	}
	if c.compact {
		c.printCompact(run)
		return nil
	}

	fmt.Fprintf(c.out, "\n[%s] mode=%s assets=%d days=%d\n",
		shortID(run.ID), run.Mode, len(run.Assets), run.PortfolioSummary.Days)
	c.printAssets(run)
	c.printPortfolio(run)
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(run domain.RunResult) {
	var sb strings.Builder
	s := run.PortfolioSummary
	fmt.Fprintf(&sb, "[%s] %s %d assets → ret %s sharpe %.2f mdd %s",
		shortID(run.ID), run.Mode, len(run.Assets), pct(s.TotalReturn), s.Sharpe, pct(s.MaxDrawdown))
	for _, a := range run.Assets {
		fmt.Fprintf(&sb, " | %s %.2f", a.Symbol, a.Summary.Sharpe)
	}
	fmt.Fprintln(c.out, sb.String())
}

// printAssets imprime una fila por activo con métricas de meta_ret y reparto de regímenes.
func (c *Console) printAssets(run domain.RunResult) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Symbol", "Days", "Total", "Ann.Vol", "Sharpe", "MaxDD", "Trend", "MeanRev", "Cash", "Switches")

	for _, a := range run.Assets {
		s := a.Summary
		shares := domain.RegimeShares(a.Meta)
		table.Append(
			a.Symbol,
			fmt.Sprintf("%d", s.Days),
			pct(s.TotalReturn),
			pct(annualVol(s)),
			fmt.Sprintf("%.2f", s.Sharpe),
			pct(s.MaxDrawdown),
			pct(shares.Trend),
			pct(shares.MeanRev),
			pct(shares.Cash),
			fmt.Sprintf("%d", switches(a.Meta)),
		)
	}
	table.Render()
}

// printPortfolio imprime el resumen de la cartera y los pesos del último día.
func (c *Console) printPortfolio(run domain.RunResult) {
	s := run.PortfolioSummary
	fmt.Fprintf(c.out, "\n=== PORTFOLIO ===\n")
	fmt.Fprintf(c.out, "  Total: %s  Ann.Vol: %s  Sharpe: %.2f  MaxDD: %s\n",
		pct(s.TotalReturn), pct(annualVol(s)), s.Sharpe, pct(s.MaxDrawdown))

	if len(run.Portfolio) == 0 {
		return
	}
	last := run.Portfolio[len(run.Portfolio)-1]
	var parts []string
	for _, sym := range run.Symbols() {
		if w, ok := last.Weights[sym]; ok {
			parts = append(parts, fmt.Sprintf("%s %s", sym, pct(w)))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "cash")
	}
	fmt.Fprintf(c.out, "  Last (%s, lev %.2f): %s\n\n",
		last.Date.Format(domain.DateLayout), last.Leverage, strings.Join(parts, "  "))
}

// NotifyHistory imprime las ejecuciones guardadas.
func (c *Console) NotifyHistory(_ context.Context, runs []domain.RunInfo) error {
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "No runs stored")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Run", "Created", "Mode", "Assets", "Days", "Total", "Sharpe", "MaxDD")
	for _, r := range runs {
		table.Append(
			shortID(r.ID),
			r.CreatedAt.Format("2006-01-02 15:04"),
			string(r.Mode),
			fmt.Sprintf("%d", r.Assets),
			fmt.Sprintf("%d", r.Days),
			pct(r.TotalReturn),
			fmt.Sprintf("%.2f", r.Sharpe),
			pct(r.MaxDrawdown),
		)
	}
	table.Render()
	return nil
}

// --- helpers ---

func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func annualVol(s domain.Summary) float64 {
	return domain.AnnualizedVol(s.DailyVol)
}

func switches(rows []domain.MetaRow) int {
	states := make([]domain.Regime, len(rows))
	for i, r := range rows {
		states[i] = r.Regime
	}
	return domain.Switches(states)
}

// shortID recorta un UUID a sus primeros 8 caracteres.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
