package csvfile

// bars.go — lectura de barras diarias desde CSV.
//
// Columnas obligatorias: date, symbol, adj_close, close, volume.
// Opcionales: open, high, low. El orden de columnas es libre.

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/rosemary/internal/domain"
)

// ErrMissingColumn indica que falta una columna obligatoria en la cabecera.
var ErrMissingColumn = errors.New("missing required column")

var requiredBarColumns = []string{"date", "symbol", "adj_close", "close", "volume"}

// BarReader implementa ports.BarSource leyendo un fichero CSV.
type BarReader struct {
	path    string
	symbols map[string]bool // vacío = todos
}

// NewBarReader crea un lector para path. Si se pasan símbolos, sólo se
// devuelven esos.
func NewBarReader(path string, symbols ...string) *BarReader {
	set := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		set[strings.ToUpper(s)] = true
	}
	return &BarReader{path: path, symbols: set}
}

// LoadBars implementa ports.BarSource.
func (r *BarReader) LoadBars(ctx context.Context) (map[string][]domain.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("csvfile.LoadBars: %w", err)
	}
	defer f.Close()

	bars, err := ReadBars(f)
	if err != nil {
		return nil, fmt.Errorf("csvfile.LoadBars: %s: %w", r.path, err)
	}
	if len(r.symbols) > 0 {
		for s := range bars {
			if !r.symbols[s] {
				delete(bars, s)
			}
		}
	}
	return bars, nil
}

// ReadBars parsea un CSV de barras y las agrupa por símbolo, ordenadas por fecha.
func ReadBars(in io.Reader) (map[string][]domain.Bar, error) {
	cr := csv.NewReader(in)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)
	for _, c := range requiredBarColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	out := make(map[string][]domain.Bar)
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bar, err := parseBar(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out[bar.Symbol] = append(out[bar.Symbol], bar)
	}

	for _, bars := range out {
		sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	}
	return out, nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return cols
}

func parseBar(rec []string, cols map[string]int) (domain.Bar, error) {
	date, err := time.Parse(domain.DateLayout, strings.TrimSpace(rec[cols["date"]]))
	if err != nil {
		return domain.Bar{}, fmt.Errorf("date: %w", err)
	}
	bar := domain.Bar{
		Date:   date,
		Symbol: strings.ToUpper(strings.TrimSpace(rec[cols["symbol"]])),
	}

	fields := []struct {
		name     string
		dst      *float64
		required bool
	}{
		{"adj_close", &bar.AdjClose, true},
		{"close", &bar.Close, true},
		{"volume", &bar.Volume, true},
		{"open", &bar.Open, false},
		{"high", &bar.High, false},
		{"low", &bar.Low, false},
	}
	for _, f := range fields {
		i, ok := cols[f.name]
		if !ok {
			continue
		}
		raw := strings.TrimSpace(rec[i])
		if raw == "" && !f.required {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.Bar{}, fmt.Errorf("%s: %w", f.name, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.Bar{}, fmt.Errorf("%s: non-finite value %q", f.name, raw)
		}
		*f.dst = v
	}
	return bar, nil
}
