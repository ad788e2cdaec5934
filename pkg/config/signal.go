package config

import (
	"time"

	"github.com/muhammadchandra19/market-signal/pkg/errors"
	"github.com/muhammadchandra19/market-signal/pkg/interval"
)

// WindowConfig sets the bucket interval and the trailing window length. The
// window is given either in buckets or as a duration; the duration wins.
type WindowConfig struct {
	Interval       string        `env:"INTERVAL"`
	Window         int           `env:"WINDOW"`
	WindowDuration time.Duration `env:"WINDOW_DURATION"`
}

// Resolve returns the interval and the window in preceding buckets.
func (w WindowConfig) Resolve(prefix string) (interval.Interval, int, error) {
	iv, err := interval.GetInterval(w.Interval)
	if err != nil {
		return interval.Interval{}, 0, invalid(err.Error(), prefix+"INTERVAL")
	}

	if w.WindowDuration > 0 {
		return iv, iv.WindowBuckets(w.WindowDuration), nil
	}
	if w.Window < 0 {
		return interval.Interval{}, 0, invalid("window must not be negative", prefix+"WINDOW")
	}
	return iv, w.Window, nil
}

// AggregateConfig configures cmd/aggregate.
type AggregateConfig struct {
	Interval string `env:"INTERVAL" envDefault:"1s"`
	// Table defaults to the bar read prefix joined with the symbol.
	Table       string `env:"TABLE"`
	ParquetPath string `env:"PARQUET_PATH"`
}

// ROCConfig configures cmd/roc.
type ROCConfig struct {
	WindowConfig
	MaxROC             float64 `env:"MAX_ROC" envDefault:"0.004"`
	PriceDiffThreshold float64 `env:"PRICE_DIFF_THRESHOLD" envDefault:"0.005"`
	AllowEmpty         bool    `env:"ALLOW_EMPTY"`
}

// StdDevConfig configures cmd/stddev.
type StdDevConfig struct {
	WindowConfig
	MaxStdDev          float64 `env:"MAX_STDDEV"`
	PriceDiffThreshold float64 `env:"PRICE_DIFF_THRESHOLD"`
	SkipGapFills       bool    `env:"SKIP_GAP_FILLS"`
	AllowEmpty         bool    `env:"ALLOW_EMPTY"`
}

// StdDevPeakConfig configures cmd/stddev-peak. Peaks are reported raw, so
// there is no merge distance.
type StdDevPeakConfig struct {
	WindowConfig
	MaxStdDev    float64 `env:"MAX_STDDEV"`
	SkipGapFills bool    `env:"SKIP_GAP_FILLS"`
}

// DensityConfig configures cmd/density.
type DensityConfig struct {
	WindowConfig
	Mode string `env:"MODE" envDefault:"bursty"`
	// Threshold is a fixed density cut used when ThresholdSigma is zero.
	Threshold          float64 `env:"THRESHOLD"`
	ThresholdSigma     float64 `env:"THRESHOLD_SIGMA" envDefault:"3"`
	MinTrades          int64   `env:"MIN_TRADES" envDefault:"2"`
	PriceDiffThreshold float64 `env:"PRICE_DIFF_THRESHOLD" envDefault:"0.005"`
	AllowEmpty         bool    `env:"ALLOW_EMPTY"`
}

// DefaultROC returns the cmd/roc defaults before the environment is applied.
func DefaultROC() ROCConfig {
	return ROCConfig{WindowConfig: WindowConfig{Interval: "1m"}}
}

// DefaultStdDev returns the cmd/stddev defaults.
func DefaultStdDev() StdDevConfig {
	return StdDevConfig{
		WindowConfig:       WindowConfig{Interval: "10ms", Window: 6},
		MaxStdDev:          0.01,
		PriceDiffThreshold: 0.01,
		SkipGapFills:       true,
	}
}

// DefaultStdDevPeak returns the cmd/stddev-peak defaults.
func DefaultStdDevPeak() StdDevPeakConfig {
	return StdDevPeakConfig{
		WindowConfig: WindowConfig{Interval: "100ms", Window: 1},
		MaxStdDev:    0.04,
		SkipGapFills: true,
	}
}

// DefaultDensity returns the cmd/density defaults.
func DefaultDensity() DensityConfig {
	return DensityConfig{WindowConfig: WindowConfig{Interval: "5s"}}
}

// ValidateThreshold rejects a negative relative price distance.
func ValidateThreshold(threshold float64, field string) error {
	if threshold < 0 {
		return invalid("price diff threshold must not be negative", field)
	}
	return nil
}

// InvalidConfig builds an invalid_config_error detail for field.
func InvalidConfig(message, field string) *errors.ErrorDetails {
	return invalid(message, field)
}
