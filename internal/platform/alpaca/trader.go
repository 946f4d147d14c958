package alpaca

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/gamma-omg/meanrev/internal/config"
	"github.com/gamma-omg/meanrev/internal/indicator"
	"github.com/gamma-omg/meanrev/internal/strategy"
	"github.com/shopspring/decimal"
)

// PaperTrader periodically re-evaluates the mean-reversion signal for each
// configured symbol against recent Alpaca daily bars and mirrors it with
// market orders on the paper account. The account is long-only, so short
// entries are logged and skipped.
type PaperTrader struct {
	log        *slog.Logger
	cfg        config.Alpaca
	strategies map[string]config.Strategy
	trading    *alpaca.Client
	data       *marketdata.Client
}

func NewPaperTrader(log *slog.Logger, cfg config.Alpaca, strategies map[string]config.Strategy) (*PaperTrader, error) {
	for symbol, s := range strategies {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("invalid strategy config for %s: %w", symbol, err)
		}
	}

	return &PaperTrader{
		log:        log,
		cfg:        cfg,
		strategies: strategies,
		trading: alpaca.NewClient(alpaca.ClientOpts{
			BaseURL:   cfg.BaseUrl,
			APIKey:    cfg.ApiKey,
			APISecret: cfg.Secret,
		}),
		data: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    cfg.ApiKey,
			APISecret: cfg.Secret,
		}),
	}, nil
}

func (t *PaperTrader) Run(ctx context.Context) error {
	interval := t.cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		for symbol, cfg := range t.strategies {
			if err := t.evaluate(symbol, cfg); err != nil {
				t.log.Error("failed to evaluate symbol", "symbol", symbol, "error", err)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (t *PaperTrader) evaluate(symbol string, cfg config.Strategy) error {
	closes, err := t.recentCloses(symbol, cfg.Window+1)
	if err != nil {
		return fmt.Errorf("failed to get recent bars: %w", err)
	}

	sig := LatestSignal(closes, cfg)
	if sig == strategy.SigNone {
		return nil
	}

	open, err := t.hasOpenPosition(symbol)
	if err != nil {
		return fmt.Errorf("failed to check open positions: %w", err)
	}

	switch sig {
	case strategy.SigEnterLong:
		if open {
			t.log.Info("entry signal with open position, holding", "symbol", symbol)
			return nil
		}
		return t.enterLong(symbol, cfg, closes[len(closes)-1])
	case strategy.SigEnterShort:
		t.log.Info("short entry skipped: paper account is long-only", "symbol", symbol)
	case strategy.SigExit:
		if !open {
			return nil
		}
		return t.exit(symbol)
	}

	return nil
}

func (t *PaperTrader) enterLong(symbol string, cfg config.Strategy, price float64) error {
	acc, err := t.trading.GetAccount()
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}

	budget := acc.BuyingPower.Mul(decimal.NewFromFloat(cfg.MaxPositionFraction))
	qty := budget.Div(decimal.NewFromFloat(price)).Floor()
	if !qty.IsPositive() {
		t.log.Info("buy signal skipped: budget below one share", "symbol", symbol)
		return nil
	}

	ord, err := t.trading.PlaceOrder(alpaca.PlaceOrderRequest{
		Side:        alpaca.Buy,
		Symbol:      symbol,
		Qty:         &qty,
		Type:        alpaca.Market,
		TimeInForce: alpaca.Day,
	})
	if err != nil {
		return fmt.Errorf("failed to place order: %w", err)
	}

	t.log.Info("buy order placed",
		slog.String("symbol", symbol),
		slog.String("qty", qty.String()),
		slog.String("order_id", ord.ID))
	return nil
}

func (t *PaperTrader) exit(symbol string) error {
	ord, err := t.trading.ClosePosition(symbol, alpaca.ClosePositionRequest{
		Percentage: decimal.NewFromInt(100),
	})
	if err != nil {
		return fmt.Errorf("failed to close position: %w", err)
	}

	t.log.Info("position closed",
		slog.String("symbol", symbol),
		slog.String("order_id", ord.ID))
	return nil
}

func (t *PaperTrader) hasOpenPosition(symbol string) (bool, error) {
	positions, err := t.trading.GetPositions()
	if err != nil {
		return false, fmt.Errorf("failed to get positions: %w", err)
	}

	for _, p := range positions {
		if p.Symbol == symbol {
			return true, nil
		}
	}

	return false, nil
}

func (t *PaperTrader) recentCloses(symbol string, count int) ([]float64, error) {
	// Daily bars, so reach back far enough to cover weekends and holidays.
	start := time.Now().AddDate(0, 0, -count*2-7)

	bars, err := t.data.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get bars for %s: %w", symbol, err)
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	if len(closes) > count {
		closes = closes[len(closes)-count:]
	}

	return closes, nil
}

// LatestSignal computes the signal for the newest bar of a trailing close
// series. It needs window+1 closes to detect a crossing on the last bar.
func LatestSignal(closes []float64, cfg config.Strategy) strategy.Signal {
	signals := strategy.Signals(closes, indicator.Bollinger(closes, cfg.Window, cfg.StdDevMult))
	if len(signals) == 0 {
		return strategy.SigNone
	}

	return signals[len(signals)-1]
}
