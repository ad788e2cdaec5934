package config

import (
	"testing"
	"time"

	"github.com/muhammadchandra19/market-signal/pkg/errors"
	"github.com/muhammadchandra19/market-signal/pkg/interval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "BTC", cfg.Scan.Symbol)
	assert.Equal(t, 100_000, cfg.Scan.ChunkSize)
	assert.Equal(t, 1, cfg.Scan.Parallelism)
	assert.Equal(t, SourceTrades, cfg.Scan.Source)
	assert.Equal(t, SinkLog, cfg.Output.Sink)
	assert.True(t, cfg.Scan.Start.IsZero())
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 8812, cfg.QuestDB.Port)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SCAN_SYMBOL", "ETHUSDT")
	t.Setenv("SCAN_START", "2024-01-01T00:00:00Z")
	t.Setenv("SCAN_END", "2024-02-01T00:00:00Z")
	t.Setenv("SCAN_PARALLELISM", "4")
	t.Setenv("OUTPUT_SINK", "redis")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ETHUSDT", cfg.Scan.Symbol)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), cfg.Scan.Start.UTC())
	assert.Equal(t, 4, cfg.Scan.Parallelism)
	assert.Equal(t, SinkRedis, cfg.Output.Sink)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Scan:   ScanConfig{Symbol: "BTC", ChunkSize: 10, Parallelism: 1, Source: SourceTrades},
			Output: OutputConfig{Sink: SinkLog},
		}
	}

	testCases := []struct {
		name   string
		modify func(c *Config)
		fields []string
	}{
		{name: "valid", modify: func(c *Config) {}},
		{
			name:   "bad symbol",
			modify: func(c *Config) { c.Scan.Symbol = "BTC;--" },
			fields: []string{"SCAN_SYMBOL"},
		},
		{
			name: "several at once",
			modify: func(c *Config) {
				c.Scan.ChunkSize = 0
				c.Scan.Parallelism = -1
				c.Output.Sink = "stdout"
			},
			fields: []string{"SCAN_CHUNK_SIZE", "SCAN_PARALLELISM", "OUTPUT_SINK"},
		},
		{
			name: "inverted range",
			modify: func(c *Config) {
				c.Scan.Start = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
				c.Scan.End = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			},
			fields: []string{"SCAN_START"},
		},
		{
			name:   "unknown source",
			modify: func(c *Config) { c.Scan.Source = "candles" },
			fields: []string{"SCAN_SOURCE"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.modify(cfg)

			err := cfg.Validate()
			if len(tc.fields) == 0 {
				assert.NoError(t, err)
				return
			}

			var be *errors.BaseError
			require.ErrorAs(t, err, &be)
			assert.True(t, be.IsAllCodeEqual(string(errors.InvalidConfigError)))
			assert.Equal(t, tc.fields, be.Fields())
		})
	}
}

func TestWindowConfig_Resolve(t *testing.T) {
	testCases := []struct {
		name     string
		cfg      WindowConfig
		interval interval.Interval
		window   int
		field    string
	}{
		{name: "buckets", cfg: WindowConfig{Interval: "1s", Window: 6}, interval: interval.Interval1s, window: 6},
		{name: "duration wins", cfg: WindowConfig{Interval: "1s", Window: 6, WindowDuration: time.Minute}, interval: interval.Interval1s, window: 60},
		{name: "custom interval", cfg: WindowConfig{Interval: "2s", WindowDuration: 5 * time.Second}, interval: interval.Interval{Name: "2s", Duration: 2 * time.Second}, window: 2},
		{name: "bad interval", cfg: WindowConfig{Interval: "soon"}, field: "ROC_INTERVAL"},
		{name: "negative window", cfg: WindowConfig{Interval: "1s", Window: -1}, field: "ROC_WINDOW"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			iv, window, err := tc.cfg.Resolve("ROC_")
			if tc.field != "" {
				var details *errors.ErrorDetails
				require.ErrorAs(t, err, &details)
				assert.Equal(t, tc.field, details.Field)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.interval, iv)
			assert.Equal(t, tc.window, window)
		})
	}
}

func TestParse_CommandDefaults(t *testing.T) {
	t.Setenv("PEAK_MAX_STDDEV", "0.5")

	target := struct {
		Peak StdDevPeakConfig `envPrefix:"PEAK_"`
	}{Peak: DefaultStdDevPeak()}
	require.NoError(t, Parse(&target))

	assert.Equal(t, "100ms", target.Peak.Interval)
	assert.Equal(t, 1, target.Peak.Window)
	assert.True(t, target.Peak.SkipGapFills)
	assert.Equal(t, 0.5, target.Peak.MaxStdDev)
}
