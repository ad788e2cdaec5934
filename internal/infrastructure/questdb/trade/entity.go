package trade

import (
	tradev1 "github.com/muhammadchandra19/market-signal/internal/domain/trade/v1"
	"github.com/shopspring/decimal"
)

var columns = []string{"id", "price", "qty", "base_qty", "time", "is_buyer_maker"}

// row is the wire shape of a trade row. QuestDB stores prices as DOUBLE.
type row struct {
	ID           int64
	Price        float64
	Qty          float64
	BaseQty      float64
	Time         int64
	IsBuyerMaker bool
}

func (r row) toDomain() tradev1.Trade {
	return tradev1.Trade{
		ID:           uint64(r.ID),
		Price:        decimal.NewFromFloat(r.Price),
		Qty:          decimal.NewFromFloat(r.Qty),
		BaseQty:      decimal.NewFromFloat(r.BaseQty),
		Time:         r.Time,
		IsBuyerMaker: r.IsBuyerMaker,
	}
}

func values(t tradev1.Trade) []any {
	return []any{
		int64(t.ID),
		t.Price.InexactFloat64(),
		t.Qty.InexactFloat64(),
		t.BaseQty.InexactFloat64(),
		t.Time,
		t.IsBuyerMaker,
	}
}

// TableName returns the trade table of a symbol.
func TableName(symbol string) string {
	return "trades_" + symbol
}
