package storage

// sqlite.go — histórico de ejecuciones.
//
// Estrategia:
//   - `runs`: una fila por ejecución con el resumen de la cartera.
//   - `asset_summaries`, `positions`, `meta`, `portfolio`: detalle de cada
//     ejecución, con clave (run_id, ...). Re-guardar la misma ejecución la
//     sobreescribe.
//   - Fechas de mercado como TEXT YYYY-MM-DD; created_at en RFC3339 de ancho fijo.
//   - Prune automático al arrancar: ejecuciones > 90d.

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/rosemary/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id           TEXT PRIMARY KEY,
    created_at   TEXT    NOT NULL,
    mode         TEXT    NOT NULL,
    assets       INTEGER NOT NULL DEFAULT 0,
    days         INTEGER NOT NULL DEFAULT 0,
    total_return REAL    NOT NULL DEFAULT 0,
    sharpe       REAL    NOT NULL DEFAULT 0,
    max_drawdown REAL    NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS asset_summaries (
    run_id       TEXT    NOT NULL,
    symbol       TEXT    NOT NULL,
    total_return REAL    NOT NULL DEFAULT 0,
    avg_daily    REAL    NOT NULL DEFAULT 0,
    daily_vol    REAL    NOT NULL DEFAULT 0,
    sharpe       REAL    NOT NULL DEFAULT 0,
    max_drawdown REAL    NOT NULL DEFAULT 0,
    days         INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, symbol)
);

CREATE TABLE IF NOT EXISTS positions (
    run_id     TEXT    NOT NULL,
    symbol     TEXT    NOT NULL,
    strategy   TEXT    NOT NULL,
    date       TEXT    NOT NULL,
    position   REAL    NOT NULL,
    cost       REAL    NOT NULL,
    net_return REAL    NOT NULL,
    is_entry   INTEGER NOT NULL DEFAULT 0,
    is_exit    INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, symbol, strategy, date)
);

CREATE TABLE IF NOT EXISTS meta (
    run_id          TEXT    NOT NULL,
    symbol          TEXT    NOT NULL,
    date            TEXT    NOT NULL,
    state           TEXT    NOT NULL,
    w_trend         REAL    NOT NULL,
    w_meanrev       REAL    NOT NULL,
    w_cash          REAL    NOT NULL,
    trend_raw       REAL    NOT NULL,
    meanrev_raw     REAL    NOT NULL,
    trend_allowed   INTEGER NOT NULL,
    meanrev_allowed INTEGER NOT NULL,
    meta_raw        REAL    NOT NULL,
    leverage        REAL    NOT NULL,
    meta_ret        REAL    NOT NULL,
    PRIMARY KEY (run_id, symbol, date)
);

CREATE TABLE IF NOT EXISTS portfolio (
    run_id   TEXT NOT NULL,
    date     TEXT NOT NULL,
    weights  TEXT NOT NULL,
    raw_ret  REAL NOT NULL,
    leverage REAL NOT NULL,
    ret      REAL NOT NULL,
    PRIMARY KEY (run_id, date)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
`

const (
	retentionRuns = 90 * 24 * time.Hour
	createdLayout = "2006-01-02T15:04:05.000000000Z07:00" // ancho fijo: ordena como texto
)

// ErrRunNotFound indica que no hay ninguna ejecución con ese ID.
var ErrRunNotFound = errors.New("run not found")

// SQLiteStorage implementa ports.ResultStore usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia ejecuciones antiguas.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background(), time.Now().UTC().Add(-retentionRuns))
	return s, nil
}

// SaveRun persiste la ejecución completa en una única transacción.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run domain.RunResult) error {
	if run.ID == "" {
		return fmt.Errorf("storage.SaveRun: empty run id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := deleteRun(ctx, tx, run.ID); err != nil {
		return fmt.Errorf("storage.SaveRun: %w", err)
	}

	info := run.Info()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, mode, assets, days, total_return, sharpe, max_drawdown)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		info.ID, info.CreatedAt.UTC().Format(createdLayout), string(info.Mode),
		info.Assets, info.Days, info.TotalReturn, info.Sharpe, info.MaxDrawdown,
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert run: %w", err)
	}

	for _, a := range run.Assets {
		if err := insertAsset(ctx, tx, run.ID, a); err != nil {
			return fmt.Errorf("storage.SaveRun: %s: %w", a.Symbol, err)
		}
	}
	if err := insertPortfolio(ctx, tx, run.ID, run.Portfolio); err != nil {
		return fmt.Errorf("storage.SaveRun: portfolio: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveRun: commit: %w", err)
	}
	return nil
}

// GetRuns devuelve las ejecuciones más recientes primero. limit <= 0 = todas.
func (s *SQLiteStorage) GetRuns(ctx context.Context, limit int) ([]domain.RunInfo, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, mode, assets, days, total_return, sharpe, max_drawdown
		FROM runs
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.GetRuns: query: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunInfo
	for rows.Next() {
		var r domain.RunInfo
		var created, mode string
		if err := rows.Scan(&r.ID, &created, &mode, &r.Assets, &r.Days, &r.TotalReturn, &r.Sharpe, &r.MaxDrawdown); err != nil {
			return nil, fmt.Errorf("storage.GetRuns: scan row: %w", err)
		}
		if r.CreatedAt, err = time.Parse(createdLayout, created); err != nil {
			return nil, fmt.Errorf("storage.GetRuns: created_at %q: %w", created, err)
		}
		r.Mode = domain.AllocationMode(mode)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetPortfolio devuelve la serie de cartera de una ejecución, ordenada por fecha.
func (s *SQLiteStorage) GetPortfolio(ctx context.Context, runID string) ([]domain.PortfolioRow, error) {
	if err := s.ensureRun(ctx, runID); err != nil {
		return nil, fmt.Errorf("storage.GetPortfolio: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, weights, raw_ret, leverage, ret
		FROM portfolio
		WHERE run_id = ?
		ORDER BY date`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetPortfolio: query: %w", err)
	}
	defer rows.Close()

	var out []domain.PortfolioRow
	for rows.Next() {
		var r domain.PortfolioRow
		var date, weights string
		if err := rows.Scan(&date, &weights, &r.RawReturn, &r.Leverage, &r.Return); err != nil {
			return nil, fmt.Errorf("storage.GetPortfolio: scan row: %w", err)
		}
		if r.Date, err = time.Parse(domain.DateLayout, date); err != nil {
			return nil, fmt.Errorf("storage.GetPortfolio: date %q: %w", date, err)
		}
		if err := json.Unmarshal([]byte(weights), &r.Weights); err != nil {
			return nil, fmt.Errorf("storage.GetPortfolio: weights %s: %w", date, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetMeta devuelve las filas meta de un símbolo en una ejecución.
func (s *SQLiteStorage) GetMeta(ctx context.Context, runID, symbol string) ([]domain.MetaRow, error) {
	if err := s.ensureRun(ctx, runID); err != nil {
		return nil, fmt.Errorf("storage.GetMeta: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, state, w_trend, w_meanrev, w_cash, trend_raw, meanrev_raw,
		       trend_allowed, meanrev_allowed, meta_raw
		FROM meta
		WHERE run_id = ? AND symbol = ?
		ORDER BY date`, runID, symbol)
	if err != nil {
		return nil, fmt.Errorf("storage.GetMeta: query: %w", err)
	}
	defer rows.Close()

	var out []domain.MetaRow
	for rows.Next() {
		r := domain.MetaRow{Symbol: symbol}
		var date, state string
		var trendOK, meanrevOK int
		if err := rows.Scan(&date, &state, &r.Weights.Trend, &r.Weights.MeanRev, &r.Weights.Cash,
			&r.TrendRaw, &r.MeanRevRaw, &trendOK, &meanrevOK, &r.MetaRaw); err != nil {
			return nil, fmt.Errorf("storage.GetMeta: scan row: %w", err)
		}
		if r.Date, err = time.Parse(domain.DateLayout, date); err != nil {
			return nil, fmt.Errorf("storage.GetMeta: date %q: %w", date, err)
		}
		if r.Regime, err = domain.ParseRegime(state); err != nil {
			return nil, fmt.Errorf("storage.GetMeta: %s: %w", date, err)
		}
		r.Gates = domain.Gates{TrendAllowed: trendOK == 1, MeanRevAllowed: meanrevOK == 1}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

func (s *SQLiteStorage) ensureRun(ctx context.Context, runID string) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	return nil
}

var runTables = []string{"asset_summaries", "positions", "meta", "portfolio"}

func deleteRun(ctx context.Context, tx *sql.Tx, runID string) error {
	for _, table := range runTables {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE run_id = ?`, runID); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

func insertAsset(ctx context.Context, tx *sql.Tx, runID string, a domain.AssetResult) error {
	sum := a.Summary
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO asset_summaries (run_id, symbol, total_return, avg_daily, daily_vol, sharpe, max_drawdown, days)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, a.Symbol, sum.TotalReturn, sum.AvgDaily, sum.DailyVol, sum.Sharpe, sum.MaxDrawdown, sum.Days,
	); err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}

	posStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO positions (run_id, symbol, strategy, date, position, cost, net_return, is_entry, is_exit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare positions: %w", err)
	}
	defer posStmt.Close()

	for _, p := range a.Positions {
		if _, err := posStmt.ExecContext(ctx,
			runID, p.Symbol, p.Strategy, p.Date.Format(domain.DateLayout),
			p.Position, p.Cost, p.NetReturn, boolInt(p.IsEntry), boolInt(p.IsExit),
		); err != nil {
			return fmt.Errorf("insert position %s: %w", p.Date.Format(domain.DateLayout), err)
		}
	}

	metaStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO meta (run_id, symbol, date, state, w_trend, w_meanrev, w_cash, trend_raw, meanrev_raw,
		                  trend_allowed, meanrev_allowed, meta_raw, leverage, meta_ret)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare meta: %w", err)
	}
	defer metaStmt.Close()

	for i, m := range a.Meta {
		var lev, ret float64
		if i < len(a.Targeted) {
			lev, ret = a.Targeted[i].Leverage, a.Targeted[i].Return
		}
		if _, err := metaStmt.ExecContext(ctx,
			runID, a.Symbol, m.Date.Format(domain.DateLayout), m.Regime.String(),
			m.Weights.Trend, m.Weights.MeanRev, m.Weights.Cash, m.TrendRaw, m.MeanRevRaw,
			boolInt(m.Gates.TrendAllowed), boolInt(m.Gates.MeanRevAllowed), m.MetaRaw, lev, ret,
		); err != nil {
			return fmt.Errorf("insert meta %s: %w", m.Date.Format(domain.DateLayout), err)
		}
	}
	return nil
}

func insertPortfolio(ctx context.Context, tx *sql.Tx, runID string, rows []domain.PortfolioRow) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO portfolio (run_id, date, weights, raw_ret, leverage, ret)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		weights := r.Weights
		if weights == nil {
			weights = map[string]float64{}
		}
		w, err := json.Marshal(weights)
		if err != nil {
			return fmt.Errorf("marshal weights: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			runID, r.Date.Format(domain.DateLayout), string(w), r.RawReturn, r.Leverage, r.Return,
		); err != nil {
			return fmt.Errorf("insert %s: %w", r.Date.Format(domain.DateLayout), err)
		}
	}
	return nil
}

// pruneOld elimina ejecuciones anteriores a cutoff para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context, cutoff time.Time) {
	c := cutoff.UTC().Format(createdLayout)
	for _, table := range runTables {
		s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE run_id IN (SELECT id FROM runs WHERE created_at < ?)`, c)
	}
	s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, c)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
