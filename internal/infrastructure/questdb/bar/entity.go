package bar

import (
	"time"

	barv1 "github.com/muhammadchandra19/market-signal/internal/domain/bar/v1"
	"github.com/shopspring/decimal"
)

var columns = []string{"time_start", "time_end", "open", "high", "low", "close", "volume"}

var columnTypes = []string{
	"time_start TIMESTAMP",
	"time_end TIMESTAMP",
	"open DOUBLE",
	"high DOUBLE",
	"low DOUBLE",
	"close DOUBLE",
	"volume DOUBLE",
}

// Tables names the bar tables a repository reads from and writes to.
type Tables struct {
	// ReadPrefix is joined with the symbol, e.g. "ohlc_M1_" + "BTC".
	ReadPrefix string
	// Write is the table aggregated bars are inserted into.
	Write string
}

type row struct {
	TimeStart time.Time
	TimeEnd   time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

func (r row) toDomain() barv1.Bar {
	closePrice := decimal.NewFromFloat(r.Close)
	return barv1.Bar{
		TimeStart: r.TimeStart.UTC(),
		TimeEnd:   r.TimeEnd.UTC(),
		Open:      decimal.NewFromFloat(r.Open),
		High:      decimal.NewFromFloat(r.High),
		Low:       decimal.NewFromFloat(r.Low),
		Close:     closePrice,
		Volume:    decimal.NewFromFloat(r.Volume),
		// Stored bars carry no trade prices; the close stands in for the mean.
		Average: closePrice,
		Filled:  r.Volume == 0 && r.Open == r.Close && r.High == r.Low && r.Open == r.High,
	}
}

func values(b barv1.Bar) []any {
	return []any{
		b.TimeStart,
		b.TimeEnd,
		b.Open.InexactFloat64(),
		b.High.InexactFloat64(),
		b.Low.InexactFloat64(),
		b.Close.InexactFloat64(),
		b.Volume.InexactFloat64(),
	}
}
