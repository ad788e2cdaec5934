package v1

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar represents one fixed-interval OHLCV bucket.
type Bar struct {
	TimeStart  time.Time
	TimeEnd    time.Time
	Open       decimal.Decimal
	High       decimal.Decimal
	Low        decimal.Decimal
	Close      decimal.Decimal
	Volume     decimal.Decimal
	TradeCount int64
	// Average is the mean trade price of the bucket. Gap fills carry the previous close.
	Average decimal.Decimal
	// Filled marks a bucket synthesized from the previous close because it had no trades.
	Filled bool
}

// GapFill builds the bar for an empty bucket following a bar that closed at prevClose.
func GapFill(start, end time.Time, prevClose decimal.Decimal) Bar {
	return Bar{
		TimeStart: start,
		TimeEnd:   end,
		Open:      prevClose,
		High:      prevClose,
		Low:       prevClose,
		Close:     prevClose,
		Volume:    decimal.Zero,
		Average:   prevClose,
		Filled:    true,
	}
}
