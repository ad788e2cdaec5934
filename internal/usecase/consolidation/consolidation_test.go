package consolidation

import (
	"math/rand/v2"
	"testing"
	"time"

	scanv1 "github.com/muhammadchandra19/market-signal/internal/domain/scan/v1"
	signalv1 "github.com/muhammadchandra19/market-signal/internal/domain/signal/v1"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obs(sec int64, price string, metric float64, seq int64) signalv1.Observation {
	return signalv1.Observation{
		Time:   time.Unix(sec, 0).UTC(),
		Price:  decimal.RequireFromString(price),
		Metric: metric,
		Seq:    seq,
	}
}

func prices(zones []signalv1.ConsolidationZone) []string {
	out := make([]string, len(zones))
	for i, z := range zones {
		out[i] = z.PriceLevel.String()
	}
	return out
}

func TestBestOf(t *testing.T) {
	testCases := []struct {
		name     string
		input    []signalv1.Observation
		opts     Options
		assertFn func(t *testing.T, zones []signalv1.ConsolidationZone, err error)
	}{
		{
			name: "keeps longer duration in neighborhood",
			input: []signalv1.Observation{
				obs(0, "100.00", 5, 0),
				obs(1, "100.01", 3, 1),
				obs(2, "105.00", 10, 2),
			},
			opts: Options{Threshold: 0.01, Better: signalv1.Higher},
			assertFn: func(t *testing.T, zones []signalv1.ConsolidationZone, err error) {
				require.NoError(t, err)
				assert.Equal(t, []string{"100", "105"}, prices(zones))
				assert.Equal(t, 5.0, zones[0].DurationOrScore)
				assert.Equal(t, 10.0, zones[1].DurationOrScore)
			},
		},
		{
			name: "replacement moves last kept price",
			input: []signalv1.Observation{
				obs(0, "100", 1, 0),
				obs(1, "100.5", 2, 1),
				obs(2, "101.2", 1, 2),
			},
			opts: Options{Threshold: 0.01, Better: signalv1.Higher},
			assertFn: func(t *testing.T, zones []signalv1.ConsolidationZone, err error) {
				require.NoError(t, err)
				// 101.2 is 1.2% from 100 but only 0.7% from 100.5.
				assert.Equal(t, []string{"100.5"}, prices(zones))
			},
		},
		{
			name: "lower wins for stddev",
			input: []signalv1.Observation{
				obs(0, "50", 0.3, 0),
				obs(1, "50.1", 0.1, 1),
			},
			opts: Options{Threshold: 0.01, Better: signalv1.Lower},
			assertFn: func(t *testing.T, zones []signalv1.ConsolidationZone, err error) {
				require.NoError(t, err)
				assert.Equal(t, []string{"50.1"}, prices(zones))
				assert.Equal(t, time.Unix(1, 0).UTC(), zones[0].AnchorTime)
			},
		},
		{
			name: "tie keeps earlier seen",
			input: []signalv1.Observation{
				obs(5, "200", 7, 1),
				obs(9, "200", 7, 0),
			},
			opts: Options{Threshold: 0.01, Better: signalv1.Higher},
			assertFn: func(t *testing.T, zones []signalv1.ConsolidationZone, err error) {
				require.NoError(t, err)
				require.Len(t, zones, 1)
				assert.Equal(t, time.Unix(9, 0).UTC(), zones[0].AnchorTime)
			},
		},
		{
			name:  "empty input",
			input: nil,
			opts:  Options{Threshold: 0.01},
			assertFn: func(t *testing.T, zones []signalv1.ConsolidationZone, err error) {
				assert.ErrorIs(t, err, scanv1.ErrEmptyInput)
			},
		},
		{
			name:  "empty input allowed",
			input: nil,
			opts:  Options{Threshold: 0.01, AllowEmpty: true},
			assertFn: func(t *testing.T, zones []signalv1.ConsolidationZone, err error) {
				assert.NoError(t, err)
				assert.NotNil(t, zones)
				assert.Empty(t, zones)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			zones, err := BestOf(tc.input, tc.opts)
			tc.assertFn(t, zones, err)
		})
	}
}

func TestBestOf_SortedAndSeparated(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	threshold := decimal.RequireFromString("0.005")

	input := make([]signalv1.Observation, 500)
	for i := range input {
		price := decimal.NewFromFloat(95 + rng.Float64()*10).Round(2)
		input[i] = signalv1.Observation{Price: price, Metric: rng.Float64(), Seq: int64(i)}
	}

	for _, better := range []signalv1.Better{signalv1.Higher, signalv1.Lower} {
		zones, err := BestOf(input, Options{Threshold: 0.005, Better: better})
		require.NoError(t, err)
		require.NotEmpty(t, zones)

		for i := 1; i < len(zones); i++ {
			prev, cur := zones[i-1].PriceLevel, zones[i].PriceLevel
			assert.True(t, prev.LessThan(cur), "zones %d not ascending", i)
			assert.True(t, Far(cur, prev, threshold), "zones %d within threshold", i)
		}
	}
}

func TestBestOfAccumulator_Lossless(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	direct := make([]signalv1.Observation, 0, 300)
	acc := NewBestOfAccumulator(signalv1.Higher)

	for i := 0; i < 300; i++ {
		o := signalv1.Observation{
			Time:   time.Unix(int64(i), 0).UTC(),
			Price:  decimal.NewFromInt(int64(1000 + rng.IntN(40))),
			Metric: float64(rng.IntN(5)),
			Seq:    int64(i),
		}
		direct = append(direct, o)
		acc.Add(o)
	}

	opts := Options{Threshold: 0.01, Better: signalv1.Higher}
	expected, err := BestOf(direct, opts)
	require.NoError(t, err)

	got, err := acc.Zones(opts)
	require.NoError(t, err)

	assert.Equal(t, expected, got)
	assert.LessOrEqual(t, acc.Len(), 40)
}

func TestDurationAccumulator(t *testing.T) {
	testCases := []struct {
		name      string
		threshold float64
		input     []signalv1.Observation
		assertFn  func(t *testing.T, out []signalv1.Observation)
	}{
		{
			name:      "consecutive same bin accumulates",
			threshold: 0.005,
			input: []signalv1.Observation{
				obs(0, "100.01", 0, 0),
				obs(60, "99.98", 0, 0),
				obs(120, "100.02", 0, 0),
			},
			assertFn: func(t *testing.T, out []signalv1.Observation) {
				require.Len(t, out, 1)
				assert.Equal(t, "100", out[0].Price.String())
				assert.Equal(t, 120.0, out[0].Metric)
				assert.Equal(t, time.Unix(0, 0).UTC(), out[0].Time)
			},
		},
		{
			name:      "new bin resets dwell",
			threshold: 0.005,
			input: []signalv1.Observation{
				obs(0, "100", 0, 0),
				obs(60, "100", 0, 0),
				obs(120, "101", 0, 0),
				obs(180, "100", 0, 0),
				obs(240, "100", 0, 0),
			},
			assertFn: func(t *testing.T, out []signalv1.Observation) {
				require.Len(t, out, 2)
				assert.Equal(t, "100", out[0].Price.String())
				assert.Equal(t, 120.0, out[0].Metric)
				assert.Equal(t, time.Unix(0, 0).UTC(), out[0].Time)
				assert.Equal(t, "101", out[1].Price.String())
				assert.Equal(t, 0.0, out[1].Metric)
			},
		},
		{
			name:      "half rounds to even",
			threshold: 0.1,
			input: []signalv1.Observation{
				obs(0, "2.5", 0, 0),
				obs(1, "3.5", 0, 0),
			},
			assertFn: func(t *testing.T, out []signalv1.Observation) {
				require.Len(t, out, 2)
				assert.Equal(t, "2", out[0].Price.String())
				assert.Equal(t, "4", out[1].Price.String())
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			acc := NewDurationAccumulator(tc.threshold)
			for _, o := range tc.input {
				acc.Add(o)
			}
			tc.assertFn(t, acc.Observations())
		})
	}
}
