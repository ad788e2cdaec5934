package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/muhammadchandra19/market-signal/pkg/errors"
	"github.com/muhammadchandra19/market-signal/pkg/questdb"
	"github.com/muhammadchandra19/market-signal/pkg/redis"
)

// Sink names.
const (
	SinkLog   = "log"
	SinkKafka = "kafka"
	SinkRedis = "redis"
)

// Source names.
const (
	SourceTrades = "trades"
	SourceBars   = "bars"
)

// Config represents the settings shared by every command.
type Config struct {
	App         AppConfig         `envPrefix:"APP_"`
	QuestDB     questdb.Config    `envPrefix:"QUESTDB_"`
	Redis       redis.Config      `envPrefix:"REDIS_"`
	RedisStream RedisStreamConfig `envPrefix:"REDIS_STREAM_"`
	Kafka       KafkaConfig       `envPrefix:"KAFKA_"`
	Scan        ScanConfig        `envPrefix:"SCAN_"`
	Output      OutputConfig      `envPrefix:"OUTPUT_"`
}

// AppConfig represents the application configuration.
type AppConfig struct {
	Name        string `env:"NAME" envDefault:"market-signal"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	// LogFile enables a rotating log file next to stdout.
	LogFile string `env:"LOG_FILE"`
	// MetricsAddr serves /metrics and /health when set, e.g. ":9090".
	MetricsAddr string `env:"METRICS_ADDR"`
}

// ScanConfig selects the trade range and how it is read.
type ScanConfig struct {
	Symbol string `env:"SYMBOL" envDefault:"BTC"`
	// Start and End are RFC 3339 timestamps. A zero value leaves that side open.
	Start       time.Time `env:"START"`
	End         time.Time `env:"END"`
	ChunkSize   int       `env:"CHUNK_SIZE" envDefault:"100000"`
	Parallelism int       `env:"PARALLELISM" envDefault:"1"`
	// MaxResumes retries a scan that failed on the store from where it stopped.
	MaxResumes    int           `env:"MAX_RESUMES" envDefault:"3"`
	ResumeBackoff time.Duration `env:"RESUME_BACKOFF" envDefault:"2s"`
	// Source is "trades" to aggregate on the fly or "bars" to read stored bars.
	Source        string `env:"SOURCE" envDefault:"trades"`
	BarReadPrefix string `env:"BAR_READ_PREFIX" envDefault:"bars_"`
}

// OutputConfig selects where result lines go.
type OutputConfig struct {
	Sink string `env:"SINK" envDefault:"log"`
}

// KafkaConfig represents the kafka sink configuration.
type KafkaConfig struct {
	Brokers      []string      `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	Topic        string        `env:"TOPIC" envDefault:"market-signals"`
	BatchTimeout time.Duration `env:"BATCH_TIMEOUT" envDefault:"100ms"`
}

// RedisStreamConfig represents the redis stream sink configuration.
type RedisStreamConfig struct {
	Name string `env:"NAME" envDefault:"signals"`
	// MaxLen caps the stream approximately. Zero keeps every entry.
	MaxLen int64 `env:"MAX_LEN" envDefault:"100000"`
}

// Load loads the shared configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := Parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse fills target from the environment, reading .env first if present.
func Parse(target any) error {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := env.Parse(target); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	return nil
}

// Validate reports every invalid shared setting at once.
func (c *Config) Validate() error {
	be := errors.NewBaseError()

	if err := questdb.ValidateIdentifier(c.Scan.Symbol); err != nil {
		be.AddErrorDetails(invalid("symbol must match [A-Za-z0-9_]+", "SCAN_SYMBOL"))
	}
	if c.Scan.ChunkSize <= 0 {
		be.AddErrorDetails(invalid("chunk size must be positive", "SCAN_CHUNK_SIZE"))
	}
	if c.Scan.Parallelism <= 0 {
		be.AddErrorDetails(invalid("parallelism must be positive", "SCAN_PARALLELISM"))
	}
	if c.Scan.MaxResumes < 0 {
		be.AddErrorDetails(invalid("max resumes must not be negative", "SCAN_MAX_RESUMES"))
	}
	if !c.Scan.Start.IsZero() && !c.Scan.End.IsZero() && !c.Scan.Start.Before(c.Scan.End) {
		be.AddErrorDetails(invalid("start must be before end", "SCAN_START"))
	}
	if c.Scan.Source != SourceTrades && c.Scan.Source != SourceBars {
		be.AddErrorDetails(invalid("source must be trades or bars", "SCAN_SOURCE"))
	}

	switch c.Output.Sink {
	case SinkLog, SinkKafka, SinkRedis:
	default:
		be.AddErrorDetails(invalid("sink must be log, kafka or redis", "OUTPUT_SINK"))
	}

	if be.HasDetails() {
		return be
	}
	return nil
}

func invalid(message, field string) *errors.ErrorDetails {
	return errors.NewErrorDetails(message, string(errors.InvalidConfigError), field)
}
