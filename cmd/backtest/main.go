package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gamma-omg/meanrev/internal/backtest"
	"github.com/gamma-omg/meanrev/internal/config"
	"github.com/gamma-omg/meanrev/internal/market"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.ReadFromFile(os.Getenv("CONFIG"))
	if err != nil {
		log.Fatal(err)
	}

	cfgBt, ok := cfg.PlatformRef.Platform.(config.Backtest)
	if !ok {
		log.Fatal("backtest requires a backtest platform config")
	}

	logger := slog.Default()
	report := backtest.NewJsonReportBuilder(logger)

	g, _ := errgroup.WithContext(context.Background())
	for symbol, strat := range cfg.Strategies {
		symbol, strat := symbol, strat
		path, ok := cfgBt.Data[symbol]
		if !ok {
			log.Fatalf("no data file configured for symbol %s", symbol)
		}

		g.Go(func() error {
			bars, err := market.ReadBarsWithFilter(path, func(b market.Bar) bool {
				return b.Time.After(cfgBt.Start) && b.Time.Before(cfgBt.End)
			})
			if err != nil {
				return err
			}

			eng, err := backtest.NewEngine(logger, symbol, strat)
			if err != nil {
				return err
			}

			res, err := eng.Run(bars)
			if errors.Is(err, backtest.ErrNoData) {
				logger.Warn("no bars in configured range", "symbol", symbol)
				return nil
			}
			if err != nil {
				return fmt.Errorf("backtest failed for %s: %w", symbol, err)
			}

			report.SubmitResult(res)

			if cfg.PlotDir != "" {
				plotPath := filepath.Join(cfg.PlotDir, symbol+".png")
				if err := backtest.SavePlot(plotPath, bars, res); err != nil {
					return err
				}
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}

	if err := report.WriteToFile(cfg.Report); err != nil {
		log.Fatal(err)
	}
}
