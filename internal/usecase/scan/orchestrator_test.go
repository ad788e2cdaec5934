package scan

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	scanv1 "github.com/muhammadchandra19/market-signal/internal/domain/scan/v1"
	tradev1 "github.com/muhammadchandra19/market-signal/internal/domain/trade/v1"
	"github.com/muhammadchandra19/market-signal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu      sync.Mutex
	rows    []int
	counted int
	jitter  bool
	failAt  map[int]int
	calls   []int
}

func newFakeSource(n int) *fakeSource {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return &fakeSource{rows: rows, counted: n, failAt: map[int]int{}}
}

func (f *fakeSource) Count(ctx context.Context, filter tradev1.RangeFilter) (int, error) {
	return f.counted, nil
}

func (f *fakeSource) ScanRange(ctx context.Context, filter tradev1.RangeFilter, limit, offset int) ([]int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, offset)
	if f.failAt[offset] > 0 {
		f.failAt[offset]--
		f.mu.Unlock()
		return nil, errors.New("connection refused")
	}
	jitter := f.jitter
	f.mu.Unlock()

	if jitter {
		time.Sleep(time.Duration(rand.IntN(3)) * time.Millisecond)
	}

	if offset >= len(f.rows) {
		return nil, nil
	}
	end := min(offset+limit, len(f.rows))
	return append([]int(nil), f.rows[offset:end]...), nil
}

type recordingProcessor struct {
	offsets   []int
	rows      []int
	finalized int
	onChunk   func(chunk scanv1.Chunk[int]) error
}

func (p *recordingProcessor) ProcessChunk(ctx context.Context, chunk scanv1.Chunk[int]) error {
	if p.onChunk != nil {
		if err := p.onChunk(chunk); err != nil {
			return err
		}
	}
	p.offsets = append(p.offsets, chunk.Offset)
	p.rows = append(p.rows, chunk.Rows...)
	return nil
}

func (p *recordingProcessor) Finalize(ctx context.Context) error {
	p.finalized++
	return nil
}

func sequence(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestOrchestrator_Run(t *testing.T) {
	testCases := []struct {
		name        string
		rows        int
		counted     int
		parallelism int
		offsets     []int
	}{
		{name: "sequential", rows: 25, counted: 25, parallelism: 1, offsets: []int{0, 10, 20}},
		{name: "sequential exact multiple", rows: 30, counted: 30, parallelism: 1, offsets: []int{0, 10, 20}},
		{name: "empty", rows: 0, counted: 0, parallelism: 1, offsets: nil},
		{name: "parallel", rows: 95, counted: 95, parallelism: 4, offsets: []int{0, 10, 20, 30, 40, 50, 60, 70, 80, 90}},
		{name: "parallel rows after count", rows: 47, counted: 30, parallelism: 3, offsets: []int{0, 10, 20, 30, 40}},
		{name: "parallel count overshoots", rows: 20, counted: 45, parallelism: 2, offsets: []int{0, 10}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			source := newFakeSource(tc.rows)
			source.counted = tc.counted
			source.jitter = tc.parallelism > 1
			processor := &recordingProcessor{}

			o := NewOrchestrator[int](source, processor, Config{Signal: "test", ChunkSize: 10, Parallelism: tc.parallelism}, logger.NewNop(), nil)
			require.NoError(t, o.Run(context.Background()))

			assert.Equal(t, tc.offsets, processor.offsets)
			if tc.rows == 0 {
				assert.Empty(t, processor.rows)
			} else {
				assert.Equal(t, sequence(tc.rows), processor.rows)
			}
			assert.Equal(t, 1, processor.finalized)

			p := o.Progress()
			assert.Equal(t, scanv1.StateDone, p.State)
			assert.Equal(t, tc.rows, p.Rows)
			assert.Equal(t, tc.rows, p.Offset)
			assert.NotEmpty(t, p.ScanID)
		})
	}
}

func TestOrchestrator_StoreFailureResume(t *testing.T) {
	for _, parallelism := range []int{1, 3} {
		source := newFakeSource(55)
		source.failAt[20] = 1
		processor := &recordingProcessor{}

		o := NewOrchestrator[int](source, processor, Config{ChunkSize: 10, Parallelism: parallelism}, logger.NewNop(), nil)
		err := o.Run(context.Background())
		require.Error(t, err)

		var scanErr *scanv1.ScanError
		require.ErrorAs(t, err, &scanErr)
		assert.Equal(t, 20, scanErr.Offset)
		assert.ErrorIs(t, err, scanv1.ErrStoreUnavailable)
		assert.Equal(t, scanv1.StateFailed, o.Progress().State)
		assert.Equal(t, 20, o.Progress().Offset)
		assert.Equal(t, sequence(20), processor.rows)
		assert.Zero(t, processor.finalized)

		require.NoError(t, o.Resume(context.Background()))
		assert.Equal(t, sequence(55), processor.rows)
		assert.Equal(t, 1, processor.finalized)
		assert.Equal(t, scanv1.StateDone, o.Progress().State)
	}
}

func TestOrchestrator_Cancel(t *testing.T) {
	source := newFakeSource(50)
	ctx, cancel := context.WithCancel(context.Background())
	processor := &recordingProcessor{}
	processor.onChunk = func(chunk scanv1.Chunk[int]) error {
		if chunk.Offset == 10 {
			cancel()
		}
		return nil
	}

	o := NewOrchestrator[int](source, processor, Config{ChunkSize: 10}, logger.NewNop(), nil)
	err := o.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, scanv1.ErrCancelled)

	var scanErr *scanv1.ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, 20, scanErr.Offset)
	assert.Equal(t, scanv1.StateCancelled, o.Progress().State)
	assert.Zero(t, processor.finalized)
	assert.Equal(t, sequence(20), processor.rows)

	processor.onChunk = nil
	require.NoError(t, o.Resume(context.Background()))
	assert.Equal(t, sequence(50), processor.rows)
	assert.Equal(t, 1, processor.finalized)
}

func TestOrchestrator_ProcessorErrorNotResumable(t *testing.T) {
	source := newFakeSource(30)
	processor := &recordingProcessor{
		onChunk: func(chunk scanv1.Chunk[int]) error {
			if chunk.Offset == 10 {
				return errors.New("bad chunk")
			}
			return nil
		},
	}

	o := NewOrchestrator[int](source, processor, Config{ChunkSize: 10}, logger.NewNop(), nil)
	err := o.Run(context.Background())
	require.ErrorContains(t, err, "bad chunk")
	assert.Equal(t, scanv1.StateFailed, o.Progress().State)

	assert.Error(t, o.Resume(context.Background()))
	assert.Error(t, o.Run(context.Background()))
}
