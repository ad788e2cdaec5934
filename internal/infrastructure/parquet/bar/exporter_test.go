package bar

import (
	"path/filepath"
	"testing"
	"time"

	barv1 "github.com/muhammadchandra19/market-signal/internal/domain/bar/v1"
	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.parquet")

	exporter, err := NewExporter(path)
	require.NoError(t, err)

	start := time.UnixMilli(1_700_000_000_000).UTC()
	first := barv1.Bar{
		TimeStart:  start,
		TimeEnd:    start.Add(time.Second),
		Open:       decimal.RequireFromString("100"),
		High:       decimal.RequireFromString("101.5"),
		Low:        decimal.RequireFromString("99.5"),
		Close:      decimal.RequireFromString("101"),
		Volume:     decimal.RequireFromString("3.25"),
		Average:    decimal.RequireFromString("100.25"),
		TradeCount: 4,
	}
	gap := barv1.GapFill(start.Add(time.Second), start.Add(2*time.Second), first.Close)

	require.NoError(t, exporter.Write([]barv1.Bar{first}))
	require.NoError(t, exporter.Write([]barv1.Bar{gap}))
	require.NoError(t, exporter.Close())
	require.NoError(t, exporter.Close())

	rows, err := parquet.ReadFile[record](path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, start.UnixMilli(), rows[0].TimeStart)
	assert.Equal(t, 101.5, rows[0].High)
	assert.Equal(t, int64(4), rows[0].TradeCount)
	assert.False(t, rows[0].Filled)

	assert.True(t, rows[1].Filled)
	assert.Equal(t, 101.0, rows[1].Open)
	assert.Zero(t, rows[1].TradeCount)
}

func TestNewExporter_BadPath(t *testing.T) {
	_, err := NewExporter(filepath.Join(t.TempDir(), "missing", "bars.parquet"))
	assert.Error(t, err)
}
