package csvfile

// tables.go — exporta los resultados como CSV indexados por fecha:
//   - positions.csv: una fila por (fecha, símbolo, estrategia)
//   - meta.csv:      una fila por (fecha, símbolo)
//   - portfolio.csv: una fila por fecha, con una columna de peso por activo
//   - features.csv:  sólo con el comando features

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/alejandrodnm/rosemary/internal/domain"
)

// TableWriter implementa ports.TableWriter escribiendo en un directorio.
type TableWriter struct {
	dir string
}

// NewTableWriter crea un writer que escribe en dir (se crea si no existe).
func NewTableWriter(dir string) *TableWriter {
	return &TableWriter{dir: dir}
}

// WriteRun implementa ports.TableWriter.
func (w *TableWriter) WriteRun(ctx context.Context, run domain.RunResult) error {
	tables := []struct {
		name  string
		write func(io.Writer, domain.RunResult) error
	}{
		{"positions.csv", WritePositions},
		{"meta.csv", WriteMeta},
		{"portfolio.csv", WritePortfolio},
	}
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.writeFile(t.name, func(out io.Writer) error { return t.write(out, run) }); err != nil {
			return fmt.Errorf("csvfile.WriteRun: %w", err)
		}
	}
	return nil
}

// WriteFeatures implementa ports.TableWriter.
func (w *TableWriter) WriteFeatures(ctx context.Context, features map[string][]domain.FeatureRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := w.writeFile("features.csv", func(out io.Writer) error { return WriteFeatureTable(out, features) }); err != nil {
		return fmt.Errorf("csvfile.WriteFeatures: %w", err)
	}
	return nil
}

func (w *TableWriter) writeFile(name string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(w.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", name, err)
	}
	return f.Close()
}

// WritePositions escribe positions.csv.
func WritePositions(out io.Writer, run domain.RunResult) error {
	cw := csv.NewWriter(out)
	_ = cw.Write([]string{"date", "symbol", "strategy", "position", "cost", "net_return", "is_entry", "is_exit"})
	for _, a := range run.Assets {
		for _, p := range a.Positions {
			_ = cw.Write([]string{
				date(p),
				p.Symbol,
				p.Strategy,
				num(p.Position),
				num(p.Cost),
				num(p.NetReturn),
				strconv.FormatBool(p.IsEntry),
				strconv.FormatBool(p.IsExit),
			})
		}
	}
	cw.Flush()
	return cw.Error()
}

var regimeHeader = []string{
	"date", "symbol", "state", "w_trend", "w_meanrev", "w_cash",
	"trend_raw_ret", "meanrev_raw_ret", "trend_allowed", "meanrev_allowed", "meta_raw_ret",
}

// WriteMeta escribe meta.csv, uniendo cada fila meta con su vol targeting.
func WriteMeta(out io.Writer, run domain.RunResult) error {
	cw := csv.NewWriter(out)
	_ = cw.Write(append(append([]string{}, regimeHeader...), "leverage", "meta_ret"))
	for _, a := range run.Assets {
		for i, m := range a.Meta {
			var lev, ret float64
			if i < len(a.Targeted) {
				lev, ret = a.Targeted[i].Leverage, a.Targeted[i].Return
			}
			_ = cw.Write(append(regimeRecord(m), num(lev), num(ret)))
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRegimes escribe filas meta sin vol targeting (p.ej. leídas del storage).
func WriteRegimes(out io.Writer, rows []domain.MetaRow) error {
	cw := csv.NewWriter(out)
	_ = cw.Write(regimeHeader)
	for _, m := range rows {
		_ = cw.Write(regimeRecord(m))
	}
	cw.Flush()
	return cw.Error()
}

func regimeRecord(m domain.MetaRow) []string {
	return []string{
		m.Date.Format(domain.DateLayout),
		m.Symbol,
		m.Regime.String(),
		num(m.Weights.Trend),
		num(m.Weights.MeanRev),
		num(m.Weights.Cash),
		num(m.TrendRaw),
		num(m.MeanRevRaw),
		strconv.FormatBool(m.Gates.TrendAllowed),
		strconv.FormatBool(m.Gates.MeanRevAllowed),
		num(m.MetaRaw),
	}
}

// WritePortfolio escribe portfolio.csv con la curva de equity y los pesos.
func WritePortfolio(out io.Writer, run domain.RunResult) error {
	symbols := run.Symbols()
	header := []string{"date"}
	for _, s := range symbols {
		header = append(header, "w_"+s)
	}
	header = append(header, "raw_ret", "leverage", "portfolio_ret", "equity", "drawdown")

	cw := csv.NewWriter(out)
	_ = cw.Write(header)
	curve := domain.EquityCurve(domain.PortfolioReturns(run.Portfolio))
	for i, r := range run.Portfolio {
		rec := []string{r.Date.Format(domain.DateLayout)}
		for _, s := range symbols {
			rec = append(rec, num(r.Weights[s]))
		}
		rec = append(rec, num(r.RawReturn), num(r.Leverage), num(r.Return), num(curve[i].Equity), num(curve[i].Drawdown))
		_ = cw.Write(rec)
	}
	cw.Flush()
	return cw.Error()
}

// WriteFeatureTable escribe features.csv. Los valores de warm-up quedan vacíos.
func WriteFeatureTable(out io.Writer, features map[string][]domain.FeatureRow) error {
	names := []string{
		"ret_1d", "ret_5d", "ret_10d", "ret_20d", "rvol_10", "volume_ratio_10",
		"mom_20", "mom_60", "vol_20", "drawdown_60",
	}
	cw := csv.NewWriter(out)
	_ = cw.Write(append(append([]string{"date", "symbol", "adj_close", "close", "volume"}, names...), "fwd_ret_1d"))

	for _, symbol := range sortedKeys(features) {
		for _, r := range features[symbol] {
			rec := []string{r.Date.Format(domain.DateLayout), r.Symbol, num(r.AdjClose), num(r.Close), num(r.Volume)}
			for _, n := range names {
				v, _ := r.Feature(n)
				rec = append(rec, v.String())
			}
			rec = append(rec, r.FwdRet1D.String())
			_ = cw.Write(rec)
		}
	}
	cw.Flush()
	return cw.Error()
}

func date(p domain.PositionRecord) string { return p.Date.Format(domain.DateLayout) }

func num(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func sortedKeys[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
