package v1

import (
	"context"
)

//go:generate mockgen -source=repository.go -destination=mock/repository_mock.go -package=mock

// TradeRepository represents the read side of the trade store plus the
// batch insert used by ingestion.
type TradeRepository interface {
	ScanRange(ctx context.Context, filter RangeFilter, limit, offset int) ([]Trade, error)
	Count(ctx context.Context, filter RangeFilter) (int, error)
	StoreBatch(ctx context.Context, symbol string, trades []Trade) error
}
