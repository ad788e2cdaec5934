package scan

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	scanv1 "github.com/muhammadchandra19/market-signal/internal/domain/scan/v1"
	tradev1 "github.com/muhammadchandra19/market-signal/internal/domain/trade/v1"
	"github.com/muhammadchandra19/market-signal/internal/metrics"
	"github.com/muhammadchandra19/market-signal/pkg/errors"
	"github.com/muhammadchandra19/market-signal/pkg/logger"
	"github.com/muhammadchandra19/market-signal/pkg/util"
	"golang.org/x/sync/errgroup"
)

// DefaultChunkSize is the number of rows requested per page.
const DefaultChunkSize = 100_000

// Config configures one scan.
type Config struct {
	// Signal labels logs and metrics.
	Signal    string
	Filter    tradev1.RangeFilter
	ChunkSize int
	// Parallelism above one fetches chunks concurrently; they are still
	// consumed one at a time in offset order.
	Parallelism int
}

// Orchestrator pages through a source and hands every chunk, in ascending
// offset order, to a single processor.
type Orchestrator[T any] struct {
	source    scanv1.Source[T]
	processor scanv1.ChunkProcessor[T]
	cfg       Config
	logger    logger.Interface
	metrics   metrics.Recorder

	mu        sync.Mutex
	progress  scanv1.Progress
	resumable bool
}

// NewOrchestrator creates an orchestrator in the idle state.
func NewOrchestrator[T any](
	source scanv1.Source[T],
	processor scanv1.ChunkProcessor[T],
	cfg Config,
	log logger.Interface,
	recorder metrics.Recorder,
) *Orchestrator[T] {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	return &Orchestrator[T]{
		source:    source,
		processor: processor,
		cfg:       cfg,
		logger:    log,
		metrics:   recorder,
		progress: scanv1.Progress{
			ScanID: uuid.NewString(),
			State:  scanv1.StateIdle,
		},
	}
}

// Progress returns a snapshot of the scan.
func (o *Orchestrator[T]) Progress() scanv1.Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.progress
}

// Run scans from offset zero until a chunk comes back empty, then finalizes
// the processor. A store failure or cancellation leaves every consumed chunk
// merged and returns a *scanv1.ScanError carrying the next offset.
func (o *Orchestrator[T]) Run(ctx context.Context) error {
	if state := o.Progress().State; state != scanv1.StateIdle {
		return errors.NewTracer(fmt.Sprintf("scan %s is %s, not idle", o.Progress().ScanID, state))
	}
	o.update(func(p *scanv1.Progress) { p.StartedAt = time.Now() })
	return o.run(ctx)
}

// Resume continues a failed or cancelled scan from the offset it stopped at.
func (o *Orchestrator[T]) Resume(ctx context.Context) error {
	o.mu.Lock()
	state, resumable := o.progress.State, o.resumable
	o.mu.Unlock()

	if !resumable || (state != scanv1.StateFailed && state != scanv1.StateCancelled) {
		return errors.NewTracer(fmt.Sprintf("scan %s is %s and cannot be resumed", o.Progress().ScanID, state))
	}
	return o.run(ctx)
}

func (o *Orchestrator[T]) run(ctx context.Context) error {
	p := o.Progress()
	ctx = util.WithRequestID(ctx, p.ScanID)
	o.setState(scanv1.StateScanning)

	o.logger.InfoContext(ctx, "scan started",
		logger.NewField("signal", o.cfg.Signal),
		logger.NewField("symbol", o.cfg.Filter.Symbol),
		logger.NewField("offset", p.Offset),
		logger.NewField("chunk_size", o.cfg.ChunkSize),
		logger.NewField("parallelism", o.cfg.Parallelism),
	)

	var err error
	if o.cfg.Parallelism > 1 {
		err = o.scanParallel(ctx)
	}
	if err == nil {
		err = o.scanSequential(ctx)
	}
	if err != nil {
		return o.fail(ctx, err)
	}

	o.setState(scanv1.StateDone)
	p = o.Progress()
	o.logger.InfoContext(ctx, "scan done",
		logger.NewField("signal", o.cfg.Signal),
		logger.NewField("rows", p.Rows),
		logger.NewField("chunks", p.Chunks),
		logger.NewField("elapsed", time.Since(p.StartedAt).String()),
	)

	if err := o.processor.Finalize(ctx); err != nil {
		return errors.TracerFromError(err)
	}

	return nil
}

func (o *Orchestrator[T]) scanSequential(ctx context.Context) error {
	for {
		offset := o.Progress().Offset
		if err := o.checkCancelled(ctx, offset); err != nil {
			return err
		}

		rows, err := o.fetch(ctx, offset)
		if err != nil {
			return o.storeError(ctx, offset, err)
		}
		if len(rows) == 0 {
			return nil
		}

		if err := o.consume(ctx, scanv1.Chunk[T]{Offset: offset, Rows: rows}); err != nil {
			return err
		}
	}
}

type fetchResult[T any] struct {
	rows []T
	err  error
}

// scanParallel fetches the counted range with a bounded worker pool. Fetched
// chunks wait in a reorder buffer of at most twice the parallelism and are
// consumed strictly in offset order on the calling goroutine.
func (o *Orchestrator[T]) scanParallel(ctx context.Context) error {
	start := o.Progress().Offset
	total, err := o.source.Count(ctx, o.cfg.Filter)
	if err != nil {
		return o.storeError(ctx, start, err)
	}

	var offsets []int
	for off := start; off < total; off += o.cfg.ChunkSize {
		offsets = append(offsets, off)
	}
	if len(offsets) == 0 {
		return nil
	}

	dispatchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(dispatchCtx)
	g.SetLimit(o.cfg.Parallelism)

	slots := make([]chan fetchResult[T], len(offsets))
	for i := range slots {
		slots[i] = make(chan fetchResult[T], 1)
	}
	tokens := make(chan struct{}, o.cfg.Parallelism*2)

	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		for i, off := range offsets {
			select {
			case tokens <- struct{}{}:
			case <-gctx.Done():
				return
			}
			g.Go(func() error {
				rows, err := o.fetch(gctx, off)
				slots[i] <- fetchResult[T]{rows: rows, err: err}
				return nil
			})
		}
	}()

	defer func() {
		cancel()
		<-dispatched
		_ = g.Wait()
	}()

	for i, off := range offsets {
		if err := o.checkCancelled(ctx, off); err != nil {
			return err
		}

		var res fetchResult[T]
		select {
		case res = <-slots[i]:
		case <-ctx.Done():
			return o.checkCancelled(ctx, off)
		}
		<-tokens

		if res.err != nil {
			return o.storeError(ctx, off, res.err)
		}
		if len(res.rows) == 0 {
			// The range shrank since the count; the sequential tail confirms the end.
			return nil
		}

		if err := o.consume(ctx, scanv1.Chunk[T]{Offset: off, Rows: res.rows}); err != nil {
			return err
		}
	}

	return nil
}

func (o *Orchestrator[T]) fetch(ctx context.Context, offset int) ([]T, error) {
	begin := time.Now()
	rows, err := o.source.ScanRange(ctx, o.cfg.Filter, o.cfg.ChunkSize, offset)
	if err != nil {
		o.metrics.ChunkFailed(o.cfg.Signal)
		return nil, err
	}
	o.metrics.ChunkFetched(o.cfg.Signal, len(rows), time.Since(begin))
	return rows, nil
}

func (o *Orchestrator[T]) consume(ctx context.Context, chunk scanv1.Chunk[T]) error {
	o.setState(scanv1.StateMerging)
	if err := o.processor.ProcessChunk(ctx, chunk); err != nil {
		o.mu.Lock()
		o.resumable = false
		o.mu.Unlock()
		return &scanv1.ScanError{Offset: chunk.Offset, Err: err}
	}

	o.update(func(p *scanv1.Progress) {
		p.Offset = chunk.Offset + len(chunk.Rows)
		p.Rows += len(chunk.Rows)
		p.Chunks++
		p.State = scanv1.StateScanning
	})

	o.logger.DebugContext(ctx, "chunk consumed",
		logger.NewField("signal", o.cfg.Signal),
		logger.NewField("offset", chunk.Offset),
		logger.NewField("rows", len(chunk.Rows)),
	)

	return nil
}

func (o *Orchestrator[T]) checkCancelled(ctx context.Context, offset int) error {
	if err := ctx.Err(); err != nil {
		return &scanv1.ScanError{Offset: offset, Err: fmt.Errorf("%w: %w", scanv1.ErrCancelled, err)}
	}
	return nil
}

func (o *Orchestrator[T]) storeError(ctx context.Context, offset int, err error) error {
	if ctx.Err() != nil {
		return o.checkCancelled(ctx, offset)
	}
	return &scanv1.ScanError{Offset: offset, Err: scanv1.StoreFailure(err)}
}

func (o *Orchestrator[T]) fail(ctx context.Context, err error) error {
	state := scanv1.StateFailed
	if stderrors.Is(err, scanv1.ErrCancelled) {
		state = scanv1.StateCancelled
	}

	o.mu.Lock()
	o.progress.State = state
	if stderrors.Is(err, scanv1.ErrCancelled) || stderrors.Is(err, scanv1.ErrStoreUnavailable) {
		o.resumable = true
	}
	o.mu.Unlock()

	tracer := errors.TracerFromError(err)
	o.logger.ErrorContext(ctx, tracer,
		logger.NewField("signal", o.cfg.Signal),
		logger.NewField("state", state.String()),
	)

	return tracer
}

func (o *Orchestrator[T]) setState(state scanv1.State) {
	o.update(func(p *scanv1.Progress) { p.State = state })
}

func (o *Orchestrator[T]) update(fn func(p *scanv1.Progress)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn(&o.progress)
}
