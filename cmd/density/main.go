package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/muhammadchandra19/market-signal/internal/bootstrap"
	signalv1 "github.com/muhammadchandra19/market-signal/internal/domain/signal/v1"
	signalUc "github.com/muhammadchandra19/market-signal/internal/usecase/signal"
	"github.com/muhammadchandra19/market-signal/pkg/config"
)

// Prints price levels with unusual trade density, ln(trades / |rate of
// change|). DENSITY_MODE=bursty keeps the densest buckets, quiet the thinnest.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cmd := struct {
		Density config.DensityConfig `envPrefix:"DENSITY_"`
	}{Density: config.DefaultDensity()}
	if err := config.Parse(&cmd); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// stored bars carry no trade count
	if cfg.Scan.Source == config.SourceBars {
		log.Fatalf("Invalid config: %v", config.InvalidConfig("density needs the trades source", "SCAN_SOURCE"))
	}

	iv, window, err := cmd.Density.Resolve("DENSITY_")
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	mode, err := signalv1.ParseMode(cmd.Density.Mode)
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if err := config.ValidateThreshold(cmd.Density.PriceDiffThreshold, "DENSITY_PRICE_DIFF_THRESHOLD"); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	b, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to bootstrap: %v", err)
	}
	defer b.Close()

	sig := signalUc.NewDensitySignal(signalUc.DensityOptions{
		Mode:               mode,
		Window:             window,
		Threshold:          cmd.Density.Threshold,
		ThresholdSigma:     cmd.Density.ThresholdSigma,
		MinTrades:          cmd.Density.MinTrades,
		PriceDiffThreshold: cmd.Density.PriceDiffThreshold,
		AllowEmpty:         cmd.Density.AllowEmpty,
	}, b.Logger)

	if err := b.RunSignal(ctx, "density", iv, sig); err != nil {
		b.Close()
		bootstrap.Exit(b.Logger, err)
	}
}
