package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/muhammadchandra19/market-signal/internal/bootstrap"
	"github.com/muhammadchandra19/market-signal/pkg/config"
	"github.com/muhammadchandra19/market-signal/pkg/interval"
	"github.com/muhammadchandra19/market-signal/pkg/logger"
)

// Aggregates trades_<SYMBOL> into gap-filled bars and stores them in QuestDB,
// optionally mirroring them into a parquet file.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cmd := struct {
		Aggregate config.AggregateConfig `envPrefix:"AGGREGATE_"`
	}{}
	if err := config.Parse(&cmd); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	iv, err := interval.GetInterval(cmd.Aggregate.Interval)
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	b, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to bootstrap: %v", err)
	}
	defer b.Close()

	if cmd.Aggregate.Table != "" {
		b.UseBarTable(cmd.Aggregate.Table)
	}

	if err := b.RunAggregate(ctx, iv, cmd.Aggregate.ParquetPath); err != nil {
		b.Close()
		bootstrap.Exit(b.Logger, err)
	}

	b.Logger.Info("aggregation finished", logger.NewField("interval", iv.Name))
}
