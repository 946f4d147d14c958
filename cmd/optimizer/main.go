package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/gamma-omg/meanrev/internal/backtest"
	"github.com/gamma-omg/meanrev/internal/config"
	"github.com/gamma-omg/meanrev/internal/market"
)

func main() {
	cfg, err := config.ReadFromFile(os.Getenv("CONFIG"))
	if err != nil {
		log.Fatal(err)
	}

	cfgBt, ok := cfg.PlatformRef.Platform.(config.Backtest)
	if !ok {
		log.Fatal("optimizer requires a backtest platform config")
	}

	logger := slog.Default()

	data := make(map[string][]market.Bar, len(cfg.Strategies))
	for symbol := range cfg.Strategies {
		path, ok := cfgBt.Data[symbol]
		if !ok {
			log.Fatalf("no data file configured for symbol %s", symbol)
		}

		bars, err := market.ReadBarsWithFilter(path, func(b market.Bar) bool {
			return b.Time.After(cfgBt.Start) && b.Time.Before(cfgBt.End)
		})
		if err != nil {
			log.Fatal(err)
		}

		data[symbol] = bars
	}

	results, err := backtest.GridSearch(context.Background(), logger, data, cfg.Strategies, cfg.Optimizer)
	if err != nil {
		log.Fatal(err)
	}

	best := results[0]
	logger.Info("best parameters",
		slog.Int("window", best.Window),
		slog.Float64("std_dev_mult", best.StdDevMult),
		slog.Float64("mean_sharpe", best.MeanSharpe),
		slog.Float64("mean_return", best.MeanReturn),
		slog.Float64("mean_win_rate", best.MeanWinRate),
		slog.Int("total_trades", best.TotalTrades))

	for _, r := range results {
		logger.Info("grid combination",
			slog.Int("window", r.Window),
			slog.Float64("std_dev_mult", r.StdDevMult),
			slog.Float64("mean_sharpe", r.MeanSharpe),
			slog.Float64("mean_return", r.MeanReturn))
	}
}
