package csvfile_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alejandrodnm/rosemary/internal/adapters/csvfile"
	"github.com/alejandrodnm/rosemary/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const barsCSV = `date,symbol,open,high,low,close,adj_close,volume
2024-01-03,spy,470,472,468,471,470.5,1000
2024-01-02,SPY,469,471,467,470,469.5,900
2024-01-02,QQQ,400,401,399,400.5,,500
`

func TestReadBars_GroupsAndSorts(t *testing.T) {
	input := strings.Replace(barsCSV, "400.5,,500", "400.5,400.2,500", 1)

	bars, err := csvfile.ReadBars(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, bars, 2)

	spy := bars["SPY"]
	require.Len(t, spy, 2)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), spy[0].Date)
	assert.Equal(t, 470.5, spy[1].AdjClose)
	assert.Equal(t, 468.0, spy[1].Low)
	assert.Equal(t, 500.0, bars["QQQ"][0].Volume)
}

func TestReadBars_OptionalColumnsMayBeAbsent(t *testing.T) {
	input := "symbol,date,close,adj_close,volume\nSPY,2024-01-02,470,469.5,900\n"

	bars, err := csvfile.ReadBars(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 0.0, bars["SPY"][0].Open)
	assert.Equal(t, 470.0, bars["SPY"][0].Close)
}

func TestReadBars_MissingColumn(t *testing.T) {
	_, err := csvfile.ReadBars(strings.NewReader("date,symbol,close,volume\n"))
	assert.ErrorIs(t, err, csvfile.ErrMissingColumn)
	assert.Contains(t, err.Error(), "adj_close")
}

func TestReadBars_BadValueReportsLine(t *testing.T) {
	_, err := csvfile.ReadBars(strings.NewReader(barsCSV))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 4")
	assert.Contains(t, err.Error(), "adj_close")
}

func TestReadBars_RejectsNonFinitePrices(t *testing.T) {
	for _, v := range []string{"NaN", "Inf", "-Inf"} {
		in := "date,symbol,adj_close,close,volume\n" +
			"2024-01-02,SPY,470.1,470.1,1000\n" +
			"2024-01-03,SPY,470.5," + v + ",1000\n"
		_, err := csvfile.ReadBars(strings.NewReader(in))
		require.Error(t, err, v)
		assert.Contains(t, err.Error(), "line 3")
		assert.Contains(t, err.Error(), "close")
	}
}

func TestBarReader_LoadBarsFiltersSymbols(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.csv")
	input := strings.Replace(barsCSV, "400.5,,500", "400.5,400.2,500", 1)
	require.NoError(t, os.WriteFile(path, []byte(input), 0o644))

	bars, err := csvfile.NewBarReader(path, "qqq").LoadBars(context.Background())
	require.NoError(t, err)
	assert.Len(t, bars, 1)
	assert.Contains(t, bars, "QQQ")

	_, err = csvfile.NewBarReader(filepath.Join(t.TempDir(), "missing.csv")).LoadBars(context.Background())
	assert.Error(t, err)
}

func sampleRun() domain.RunResult {
	d0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d1 := d0.AddDate(0, 0, 1)
	return domain.RunResult{
		ID:   "run-1",
		Mode: domain.ModeHysteresis,
		Assets: []domain.AssetResult{{
			Symbol: "SPY",
			Positions: []domain.PositionRecord{
				{Date: d0, Symbol: "SPY", Strategy: "trend", Position: 1, Cost: 0.0005, NetReturn: 0.0095, IsEntry: true},
				{Date: d1, Symbol: "SPY", Strategy: "trend", Position: 0, Cost: 0.0005, NetReturn: -0.0005, IsExit: true},
			},
			Meta: []domain.MetaRow{
				{Date: d0, Symbol: "SPY", Regime: domain.RegimeTrend, Weights: domain.Weights{Trend: 1}, MetaRaw: 0.0095},
				{Date: d1, Symbol: "SPY", Regime: domain.RegimeCash, Weights: domain.CashOnly()},
			},
			Targeted: []domain.TargetedReturn{
				{Date: d0, Raw: 0.0095},
				{Date: d1, Leverage: 0.5},
			},
		}},
		Portfolio: []domain.PortfolioRow{
			{Date: d0, Weights: map[string]float64{}},
			{Date: d1, Weights: map[string]float64{"SPY": 1}, RawReturn: 0.01, Leverage: 0.5, Return: 0.005},
		},
	}
}

func readAll(t *testing.T, data []byte) [][]string {
	t.Helper()
	recs, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return recs
}

func TestWriteMeta(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, csvfile.WriteMeta(&buf, sampleRun()))

	recs := readAll(t, buf.Bytes())
	require.Len(t, recs, 3)
	assert.Equal(t, "state", recs[0][2])
	assert.Equal(t, []string{"2024-01-02", "SPY", "TREND", "1", "0", "0"}, recs[1][:6])
	assert.Equal(t, "CASH", recs[2][2])
	assert.Equal(t, "0.5", recs[2][11])
}

func TestWritePortfolio_WeightColumnsAndEquity(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, csvfile.WritePortfolio(&buf, sampleRun()))

	recs := readAll(t, buf.Bytes())
	assert.Equal(t, []string{"date", "w_SPY", "raw_ret", "leverage", "portfolio_ret", "equity", "drawdown"}, recs[0])
	assert.Equal(t, "0", recs[1][1])
	assert.Equal(t, "1", recs[2][1])
	assert.Equal(t, "0.005", recs[2][4])
}

func TestTableWriter_WriteRunCreatesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := csvfile.NewTableWriter(dir)

	require.NoError(t, w.WriteRun(context.Background(), sampleRun()))

	for _, name := range []string{"positions.csv", "meta.csv", "portfolio.csv"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.NotEmpty(t, data)
	}
	data, err := os.ReadFile(filepath.Join(dir, "positions.csv"))
	require.NoError(t, err)
	recs := readAll(t, data)
	require.Len(t, recs, 3)
	assert.Equal(t, "true", recs[1][6])
	assert.Equal(t, "true", recs[2][7])
}

func TestTableWriter_WriteFeaturesLeavesWarmupEmpty(t *testing.T) {
	dir := t.TempDir()
	rows := []domain.FeatureRow{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Symbol: "SPY", AdjClose: 100, Close: 100, Volume: 10},
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Symbol: "SPY", AdjClose: 101, Close: 101, Volume: 10, Ret1D: domain.Some(0.01)},
	}

	require.NoError(t, csvfile.NewTableWriter(dir).WriteFeatures(context.Background(), map[string][]domain.FeatureRow{"SPY": rows}))

	data, err := os.ReadFile(filepath.Join(dir, "features.csv"))
	require.NoError(t, err)
	recs := readAll(t, data)
	require.Len(t, recs, 3)
	assert.Equal(t, "ret_1d", recs[0][5])
	assert.Equal(t, "", recs[1][5])
	assert.Equal(t, "0.01", recs[2][5])
}

func TestWriteRegimes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, csvfile.WriteRegimes(&buf, sampleRun().Assets[0].Meta))

	recs := readAll(t, buf.Bytes())
	require.Len(t, recs, 3)
	assert.Len(t, recs[0], 11)
	assert.Equal(t, "meta_raw_ret", recs[0][10])
	assert.Equal(t, "0.0095", recs[1][10])
}
