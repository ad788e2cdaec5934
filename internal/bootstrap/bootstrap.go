package bootstrap

import (
	"context"
	"net/http"
	"os"
	"time"

	signalv1 "github.com/muhammadchandra19/market-signal/internal/domain/signal/v1"
	"github.com/muhammadchandra19/market-signal/internal/metrics"
	"github.com/muhammadchandra19/market-signal/pkg/config"
	"github.com/muhammadchandra19/market-signal/pkg/errors"
	"github.com/muhammadchandra19/market-signal/pkg/httplib/healthcheck"
	"github.com/muhammadchandra19/market-signal/pkg/logger"
	"github.com/muhammadchandra19/market-signal/pkg/questdb"
)

// Bootstrap holds the wired dependencies of one command.
type Bootstrap struct {
	Config     *config.Config
	Logger     logger.Interface
	Repository Repository
	Sink       signalv1.Sink
	Metrics    *metrics.Scan

	QuestDB questdb.QuestDBClient
	server  *http.Server
}

// New connects to the stores, builds the sink and starts the metrics server
// when an address is configured.
func New(ctx context.Context, cfg *config.Config) (*Bootstrap, error) {
	log, err := newLogger(cfg.App)
	if err != nil {
		return nil, err
	}

	client, err := questdb.NewClient(ctx, cfg.QuestDB)
	if err != nil {
		return nil, errors.WrapTracer(err, "failed to connect to questdb")
	}

	b := &Bootstrap{
		Config:  cfg,
		Logger:  log,
		QuestDB: client,
		Metrics: metrics.NewScan(),
	}

	b.registerRepository()
	if err := b.registerSink(ctx); err != nil {
		client.Close()
		return nil, err
	}
	b.serveMetrics()

	return b, nil
}

func newLogger(app config.AppConfig) (*logger.Logger, error) {
	opts := []logger.Options{logger.WithLoggingLevel(logger.ParseLevel(app.LogLevel))}
	if app.LogFile != "" {
		opts = append(opts, logger.WithRotatingFile(app.LogFile, 100, 5))
	}

	log, err := logger.NewLogger(opts...)
	if err != nil {
		return nil, err
	}

	return log.WithFields(
		logger.NewField("app", app.Name),
		logger.NewField("env", app.Environment),
	), nil
}

func (b *Bootstrap) serveMetrics() {
	if b.Config.App.MetricsAddr == "" {
		return
	}

	hc := healthcheck.HealthCheck{
		Checks:  map[string]healthcheck.Checker{"questdb": b.QuestDB.Ping},
		Timeout: 2 * time.Second,
	}
	b.server = &http.Server{
		Addr:              b.Config.App.MetricsAddr,
		Handler:           hc.Handler(b.Metrics.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		b.Logger.Info("metrics server listening", logger.NewField("addr", b.Config.App.MetricsAddr))
		if err := b.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			b.Logger.Error(errors.WrapTracer(err, "metrics server stopped"))
		}
	}()
}

func (b *Bootstrap) recorder() metrics.Recorder {
	if b.Metrics == nil {
		return metrics.Nop{}
	}
	return b.Metrics
}

// Close releases everything New acquired.
func (b *Bootstrap) Close() {
	if b.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = b.server.Shutdown(ctx)
	}

	if b.Sink != nil {
		if err := b.Sink.Close(); err != nil {
			b.Logger.Error(errors.WrapTracer(err, "failed to close sink"))
		}
	}

	if b.QuestDB != nil {
		b.QuestDB.Close()
	}

	_ = b.Logger.Sync()
}

// Exit logs err and terminates the process with a non-zero status.
func Exit(log logger.Interface, err error) {
	log.Error(errors.TracerFromError(err))
	_ = log.Sync()
	os.Exit(1)
}
