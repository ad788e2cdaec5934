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

// Prints every bucket whose rolling stddev of mean price exceeds
// PEAK_MAX_STDDEV, in time order.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cmd := struct {
		Peak config.StdDevPeakConfig `envPrefix:"PEAK_"`
	}{Peak: config.DefaultStdDevPeak()}
	if err := config.Parse(&cmd); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	iv, window, err := cmd.Peak.Resolve("PEAK_")
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	b, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to bootstrap: %v", err)
	}
	defer b.Close()

	sig := signalUc.NewStdDevSignal(signalUc.StdDevOptions{
		Mode:         signalUc.StdDevAbove,
		Window:       window,
		MaxStdDev:    cmd.Peak.MaxStdDev,
		SkipGapFills: cmd.Peak.SkipGapFills,
	}, b.Logger)

	if err := b.RunSignal(ctx, "stddev-peak", iv, sig); err != nil {
		b.Close()
		bootstrap.Exit(b.Logger, err)
	}
}
