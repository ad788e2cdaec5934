package v1

import (
	"context"

	tradev1 "github.com/muhammadchandra19/market-signal/internal/domain/trade/v1"
)

// Source is a paginated, time-ordered store the orchestrator reads from.
type Source[T any] interface {
	Count(ctx context.Context, filter tradev1.RangeFilter) (int, error)
	ScanRange(ctx context.Context, filter tradev1.RangeFilter, limit, offset int) ([]T, error)
}

// ChunkProcessor consumes chunks strictly in ascending offset order. It is
// only ever called from the single merge goroutine.
type ChunkProcessor[T any] interface {
	ProcessChunk(ctx context.Context, chunk Chunk[T]) error
	Finalize(ctx context.Context) error
}
