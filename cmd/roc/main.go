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

// Prints price levels where bars barely moved, ordered by price, with the
// total seconds spent there.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cmd := struct {
		ROC config.ROCConfig `envPrefix:"ROC_"`
	}{ROC: config.DefaultROC()}
	if err := config.Parse(&cmd); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	iv, window, err := cmd.ROC.Resolve("ROC_")
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if err := config.ValidateThreshold(cmd.ROC.PriceDiffThreshold, "ROC_PRICE_DIFF_THRESHOLD"); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	b, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to bootstrap: %v", err)
	}
	defer b.Close()

	sig := signalUc.NewROCSignal(signalUc.ROCOptions{
		Window:             window,
		MaxROC:             cmd.ROC.MaxROC,
		PriceDiffThreshold: cmd.ROC.PriceDiffThreshold,
		AllowEmpty:         cmd.ROC.AllowEmpty,
	}, b.Logger)

	if err := b.RunSignal(ctx, "roc", iv, sig); err != nil {
		b.Close()
		bootstrap.Exit(b.Logger, err)
	}
}
