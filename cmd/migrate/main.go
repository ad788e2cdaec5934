package main

import (
	"context"
	"flag"
	"log"

	"github.com/muhammadchandra19/market-signal/internal/infrastructure/questdb/migrations"
	"github.com/muhammadchandra19/market-signal/pkg/config"
	"github.com/muhammadchandra19/market-signal/pkg/logger"
	"github.com/muhammadchandra19/market-signal/pkg/migration"
	"github.com/muhammadchandra19/market-signal/pkg/questdb"
)

// Creates or drops the trade and bar tables of SCAN_SYMBOL.
func main() {
	var (
		direction = flag.String("direction", "up", "Migration direction: up or down")
		steps     = flag.Int("steps", 0, "Number of steps to migrate (0 = all)")
	)
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.NewLogger(logger.WithLoggingLevel(logger.ParseLevel(cfg.App.LogLevel)))
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zlog.Sync()

	questdbClient, err := questdb.NewClient(ctx, cfg.QuestDB)
	if err != nil {
		log.Fatalf("Failed to initialize QuestDB client: %v", err)
	}
	defer questdbClient.Close()

	runner := migration.NewRunner(questdbClient, migrations.FS, migration.Config{
		Vars: map[string]string{
			"SYMBOL":    cfg.Scan.Symbol,
			"BAR_TABLE": cfg.Scan.BarReadPrefix + cfg.Scan.Symbol,
		},
		Scope: cfg.Scan.Symbol,
	}, zlog)

	if err := runner.EnsureMigrationTable(ctx); err != nil {
		log.Fatalf("Failed to create migration table: %v", err)
	}

	var count int
	switch *direction {
	case "up":
		count, err = runner.MigrateUp(ctx, *steps)
	case "down":
		count, err = runner.MigrateDown(ctx, *steps)
	default:
		log.Fatalf("Invalid direction: %s. Use 'up' or 'down'", *direction)
	}
	if err != nil {
		log.Fatalf("Failed to migrate %s: %v", *direction, err)
	}

	zlog.Info("migration completed",
		logger.NewField("direction", *direction),
		logger.NewField("count", count),
		logger.NewField("symbol", cfg.Scan.Symbol),
	)
}
