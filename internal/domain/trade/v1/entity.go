package v1

import (
	"time"

	"github.com/muhammadchandra19/market-signal/pkg/util"
	"github.com/shopspring/decimal"
)

// Trade represents a single executed trade tick.
type Trade struct {
	ID           uint64
	Price        decimal.Decimal
	Qty          decimal.Decimal
	BaseQty      decimal.Decimal
	Time         int64 // milliseconds since epoch
	IsBuyerMaker bool
}

// Timestamp returns the trade time as a UTC instant.
func (t Trade) Timestamp() time.Time {
	return util.FromUnixMilli(t.Time)
}

// Before reports whether t sorts before o in feed order (time, then id).
func (t Trade) Before(o Trade) bool {
	if t.Time != o.Time {
		return t.Time < o.Time
	}
	return t.ID < o.ID
}

// RangeFilter selects rows of one symbol within [Start, End).
type RangeFilter struct {
	Symbol string
	Start  time.Time
	End    time.Time
}
