package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/muhammadchandra19/market-signal/internal/bootstrap"
	signalUc "github.com/muhammadchandra19/market-signal/internal/usecase/signal"
	"github.com/muhammadchandra19/market-signal/pkg/config"
)

// Prints quiet price levels: buckets whose rolling stddev of mean price stays
// below STDDEV_MAX_STDDEV, keeping the quietest per neighborhood.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cmd := struct {
		StdDev config.StdDevConfig `envPrefix:"STDDEV_"`
	}{StdDev: config.DefaultStdDev()}
	if err := config.Parse(&cmd); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	iv, window, err := cmd.StdDev.Resolve("STDDEV_")
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if err := config.ValidateThreshold(cmd.StdDev.PriceDiffThreshold, "STDDEV_PRICE_DIFF_THRESHOLD"); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	b, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to bootstrap: %v", err)
	}
	defer b.Close()

	sig := signalUc.NewStdDevSignal(signalUc.StdDevOptions{
		Mode:               signalUc.StdDevBelow,
		Window:             window,
		MaxStdDev:          cmd.StdDev.MaxStdDev,
		PriceDiffThreshold: cmd.StdDev.PriceDiffThreshold,
		SkipGapFills:       cmd.StdDev.SkipGapFills,
		AllowEmpty:         cmd.StdDev.AllowEmpty,
	}, b.Logger)

	if err := b.RunSignal(ctx, "stddev", iv, sig); err != nil {
		b.Close()
		bootstrap.Exit(b.Logger, err)
	}
}
