package bar

import (
	"fmt"
	"os"

	barv1 "github.com/muhammadchandra19/market-signal/internal/domain/bar/v1"
	"github.com/parquet-go/parquet-go"
)

type record struct {
	TimeStart  int64   `parquet:"time_start_ms"`
	TimeEnd    int64   `parquet:"time_end_ms"`
	Open       float64 `parquet:"open"`
	High       float64 `parquet:"high"`
	Low        float64 `parquet:"low"`
	Close      float64 `parquet:"close"`
	Volume     float64 `parquet:"volume"`
	Average    float64 `parquet:"average"`
	TradeCount int64   `parquet:"trade_count"`
	Filled     bool    `parquet:"filled"`
}

func toRecord(b barv1.Bar) record {
	return record{
		TimeStart:  b.TimeStart.UnixMilli(),
		TimeEnd:    b.TimeEnd.UnixMilli(),
		Open:       b.Open.InexactFloat64(),
		High:       b.High.InexactFloat64(),
		Low:        b.Low.InexactFloat64(),
		Close:      b.Close.InexactFloat64(),
		Volume:     b.Volume.InexactFloat64(),
		Average:    b.Average.InexactFloat64(),
		TradeCount: b.TradeCount,
		Filled:     b.Filled,
	}
}

// Exporter streams bars into a snappy-compressed parquet file. Each Write
// becomes part of the current row group; Close writes the footer.
type Exporter struct {
	file   *os.File
	writer *parquet.GenericWriter[record]
	closed bool
}

var _ barv1.Exporter = (*Exporter)(nil)

// NewExporter creates or truncates the file at path.
func NewExporter(path string) (*Exporter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet file: %w", err)
	}

	return &Exporter{
		file:   f,
		writer: parquet.NewGenericWriter[record](f, parquet.Compression(&parquet.Snappy)),
	}, nil
}

// Write appends bars.
func (e *Exporter) Write(bars []barv1.Bar) error {
	records := make([]record, len(bars))
	for i, b := range bars {
		records[i] = toRecord(b)
	}

	if _, err := e.writer.Write(records); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	return nil
}

// Close finishes the file. Later calls are no-ops.
func (e *Exporter) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	if err := e.writer.Close(); err != nil {
		e.file.Close()
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return e.file.Close()
}
