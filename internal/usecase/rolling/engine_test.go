package rolling

import (
	"math"
	"slices"
	"testing"
	"time"

	signalv1 "github.com/muhammadchandra19/market-signal/internal/domain/signal/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samples(values ...float64) []Sample {
	out := make([]Sample, len(values))
	for i, v := range values {
		out[i] = NewSample(time.UnixMilli(int64(i)*1000).UTC(), v, 1)
	}
	return out
}

func TestEngine_StdDev(t *testing.T) {
	testCases := []struct {
		name     string
		window   int
		values   []float64
		expected []float64
	}{
		{
			name:     "window of two preceding buckets",
			window:   2,
			values:   []float64{1, 2, 3, 4},
			expected: []float64{0, 0.5, math.Sqrt(2.0 / 3.0), math.Sqrt(2.0 / 3.0)},
		},
		{
			name:     "zero window",
			window:   0,
			values:   []float64{5, 9, 1},
			expected: []float64{0, 0, 0},
		},
		{
			name:     "constant series",
			window:   3,
			values:   []float64{61000.1, 61000.1, 61000.1, 61000.1, 61000.1},
			expected: []float64{0, 0, 0, 0, 0},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			engine := NewEngine(Options{Window: tc.window})
			for i, s := range samples(tc.values...) {
				m := engine.Push(s)
				assert.InDelta(t, tc.expected[i], m.RollingStdDev, 1e-9, "bucket %d", i)
				assert.GreaterOrEqual(t, m.RollingStdDev, 0.0)
			}
		})
	}
}

func TestEngine_ROC(t *testing.T) {
	testCases := []struct {
		name     string
		opts     Options
		input    []Sample
		assertFn func(t *testing.T, metrics []signalv1.RollingMetric)
	}{
		{
			name:  "trailing window",
			opts:  Options{Window: 1},
			input: samples(100, 110, 99),
			assertFn: func(t *testing.T, metrics []signalv1.RollingMetric) {
				assert.InDelta(t, 0, metrics[0].RollingROC, 1e-12)
				assert.InDelta(t, 0.1, metrics[1].RollingROC, 1e-12)
				assert.InDelta(t, -0.1, metrics[2].RollingROC, 1e-12)
			},
		},
		{
			name:  "absolute",
			opts:  Options{Window: 1, AbsoluteROC: true},
			input: samples(100, 110, 99),
			assertFn: func(t *testing.T, metrics []signalv1.RollingMetric) {
				assert.InDelta(t, 0.1, metrics[2].RollingROC, 1e-12)
			},
		},
		{
			name: "per bar from open",
			opts: Options{Window: 0},
			input: []Sample{
				{Value: 102, Start: 100, Count: 3},
				{Value: 98, Start: 100, Count: 1},
			},
			assertFn: func(t *testing.T, metrics []signalv1.RollingMetric) {
				assert.InDelta(t, 0.02, metrics[0].RollingROC, 1e-12)
				assert.InDelta(t, -0.02, metrics[1].RollingROC, 1e-12)
				assert.Equal(t, int64(1), metrics[1].TradeCount)
			},
		},
		{
			name:  "zero start is undefined",
			opts:  Options{Window: 1},
			input: samples(0, 5, 6),
			assertFn: func(t *testing.T, metrics []signalv1.RollingMetric) {
				assert.False(t, metrics[0].ROCDefined)
				assert.False(t, metrics[1].ROCDefined)
				assert.Zero(t, metrics[1].RollingROC)
				assert.True(t, metrics[2].ROCDefined)
				assert.InDelta(t, 0.2, metrics[2].RollingROC, 1e-12)
			},
		},
		{
			name:  "trailing count",
			opts:  Options{Window: 2},
			input: []Sample{{Value: 1, Start: 1, Count: 4}, {Value: 1, Start: 1, Count: 5}, {Value: 1, Start: 1, Count: 6}, {Value: 1, Start: 1, Count: 7}},
			assertFn: func(t *testing.T, metrics []signalv1.RollingMetric) {
				got := make([]int64, len(metrics))
				for i, m := range metrics {
					got[i] = m.TradeCount
				}
				assert.Equal(t, []int64{4, 9, 15, 18}, got)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			engine := NewEngine(tc.opts)
			metrics := slices.Collect(engine.Apply(slices.Values(tc.input)))
			require.Len(t, metrics, len(tc.input))
			tc.assertFn(t, metrics)
		})
	}
}

func TestEngine_ChunkSplitInvariance(t *testing.T) {
	values := make([]float64, 200)
	for i := range values {
		values[i] = 60000 + 50*math.Sin(float64(i)/7) + float64(i%5)
	}
	input := samples(values...)

	for _, window := range []int{0, 1, 9, 25} {
		whole := NewEngine(Options{Window: window, AbsoluteROC: true})
		expected := slices.Collect(whole.Apply(slices.Values(input)))

		for _, split := range []int{1, 13, 100, 199} {
			first := NewEngine(Options{Window: window, AbsoluteROC: true})
			got := slices.Collect(first.Apply(slices.Values(input[:split])))

			second := NewEngine(Options{Window: window, AbsoluteROC: true})
			second.Restore(first.State())
			got = append(got, slices.Collect(second.Apply(slices.Values(input[split:])))...)

			assert.Equal(t, expected, got, "window %d split %d", window, split)
		}
	}
}

func TestEngine_DriftBounded(t *testing.T) {
	engine := NewEngine(Options{Window: 4})
	var last signalv1.RollingMetric
	for i := 0; i < 100_000; i++ {
		last = engine.Push(NewSample(time.Time{}, 1e6+float64(i%3), 1))
	}

	// the last window holds the pattern 0,1,2,0,1 offset by 1e6 or a rotation of it.
	window := engine.State().Entries
	require.Len(t, window, 5)
	var sum, sumSq float64
	for _, e := range window {
		sum += e.Value
	}
	mean := sum / 5
	for _, e := range window {
		sumSq += (e.Value - mean) * (e.Value - mean)
	}
	assert.InDelta(t, math.Sqrt(sumSq/5), last.RollingStdDev, 1e-6)
}

func TestEngine_ShiftFollowsPrice(t *testing.T) {
	engine := NewEngine(Options{Window: 5})
	engine.Push(NewSample(time.Time{}, 0.5, 1))

	var values []float64
	var last signalv1.RollingMetric
	for i := 0; i < 1_000; i++ {
		v := 61234.57 + 0.001*float64(i%7)
		values = append(values, v)
		last = engine.Push(NewSample(time.Time{}, v, 1))
	}

	window := values[len(values)-6:]
	var sum, sumSq float64
	for _, v := range window {
		sum += v
	}
	mean := sum / 6
	for _, v := range window {
		sumSq += (v - mean) * (v - mean)
	}

	assert.InDelta(t, window[0], engine.State().Shift, 0.01)
	assert.InDelta(t, math.Sqrt(sumSq/6), last.RollingStdDev, 1e-9)
}
