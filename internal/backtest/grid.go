package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/gamma-omg/meanrev/internal/config"
	"github.com/gamma-omg/meanrev/internal/market"
	"golang.org/x/sync/errgroup"
)

// GridResult is the aggregate outcome of one window/multiplier combination
// across all symbols in the grid search.
type GridResult struct {
	Window      int
	StdDevMult  float64
	MeanSharpe  float64
	MeanReturn  float64
	MeanWinRate float64
	TotalTrades int
}

// GridSearch backtests every window/multiplier combination over the given
// per-symbol bar data and returns the combinations sorted by mean Sharpe
// ratio, best first. Runs are independent pure invocations: every one gets
// its own engine and simulator, so they execute in parallel up to the given
// limit. Symbols whose data window is empty are skipped, not fatal.
func GridSearch(ctx context.Context, log *slog.Logger, data map[string][]market.Bar,
	strategies map[string]config.Strategy, opt config.Optimizer) ([]GridResult, error) {

	if len(opt.Windows) == 0 || len(opt.StdDevMults) == 0 {
		return nil, errors.New("optimizer requires at least one window and one std_dev_mult")
	}

	limit := opt.Parallelism
	if limit <= 0 {
		limit = 1
	}

	results := make([]GridResult, len(opt.Windows)*len(opt.StdDevMults))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for wi, window := range opt.Windows {
		for mi, mult := range opt.StdDevMults {
			window, mult := window, mult
			slot := wi*len(opt.StdDevMults) + mi

			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}

				gr, err := runCombination(log, data, strategies, window, mult)
				if err != nil {
					return err
				}

				results[slot] = gr
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MeanSharpe > results[j].MeanSharpe
	})

	return results, nil
}

func runCombination(log *slog.Logger, data map[string][]market.Bar,
	strategies map[string]config.Strategy, window int, mult float64) (GridResult, error) {

	gr := GridResult{Window: window, StdDevMult: mult}

	runs := 0
	for symbol, cfg := range strategies {
		cfg.Window = window
		cfg.StdDevMult = mult

		eng, err := NewEngine(log, symbol, cfg)
		if err != nil {
			return gr, fmt.Errorf("grid combination w=%d k=%g: %w", window, mult, err)
		}

		res, err := eng.Run(data[symbol])
		if errors.Is(err, ErrNoData) {
			continue
		}
		if err != nil {
			return gr, fmt.Errorf("grid run failed for %s: %w", symbol, err)
		}

		gr.MeanSharpe += res.Metrics.SharpeRatio
		gr.MeanReturn += res.Metrics.TotalReturn
		gr.MeanWinRate += res.Metrics.WinRate
		gr.TotalTrades += res.Metrics.TotalTrades
		runs++
	}

	if runs > 0 {
		gr.MeanSharpe /= float64(runs)
		gr.MeanReturn /= float64(runs)
		gr.MeanWinRate /= float64(runs)
	}

	return gr, nil
}
