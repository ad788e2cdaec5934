package v1

import (
	"context"

	tradev1 "github.com/muhammadchandra19/market-signal/internal/domain/trade/v1"
)

//go:generate mockgen -source=repository.go -destination=mock/repository_mock.go -package=mock

// BarRepository represents the precomputed bar store.
type BarRepository interface {
	ScanRange(ctx context.Context, filter tradev1.RangeFilter, limit, offset int) ([]Bar, error)
	Count(ctx context.Context, filter tradev1.RangeFilter) (int, error)
	StoreBatch(ctx context.Context, bars []Bar) error
	EnsureTable(ctx context.Context) error
}

// Exporter writes bars to a file for offline analysis.
type Exporter interface {
	Write(bars []Bar) error
	Close() error
}
