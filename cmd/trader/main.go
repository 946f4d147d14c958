package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gamma-omg/meanrev/internal/config"
	"github.com/gamma-omg/meanrev/internal/platform/alpaca"
)

func main() {
	cfg, err := config.ReadFromFile(os.Getenv("CONFIG"))
	if err != nil {
		log.Fatal(err)
	}

	cfgAlpaca, ok := cfg.PlatformRef.Platform.(config.Alpaca)
	if !ok {
		log.Fatal("trader requires an alpaca platform config")
	}

	logger := slog.Default()

	t, err := alpaca.NewPaperTrader(logger, cfgAlpaca, cfg.Strategies)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := t.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
