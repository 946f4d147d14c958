package backtest

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gamma-omg/meanrev/internal/config"
	"github.com/gamma-omg/meanrev/internal/indicator"
	"github.com/gamma-omg/meanrev/internal/market"
	"github.com/gamma-omg/meanrev/internal/strategy"
	"github.com/shopspring/decimal"
)

// ErrNoData reports that a run had no bars to work with. Callers can branch
// on it to tell an empty data window apart from a failed computation.
var ErrNoData = errors.New("no bar data")

// Result is the complete outcome of one backtest run.
type Result struct {
	Symbol         string
	Trades         []market.Trade
	EquityCurve    []market.EquityPoint
	Bands          []indicator.Band
	Metrics        Metrics
	SkippedBars    int
	InitialCapital decimal.Decimal
	FinalCapital   decimal.Decimal
}

// Engine runs a single-symbol mean-reversion backtest: close prices are
// turned into Bollinger bands, bands into crossing signals, signals into a
// simulated position with an equity curve, and the curve into metrics.
type Engine struct {
	log    *slog.Logger
	symbol string
	cfg    config.Strategy
}

func NewEngine(log *slog.Logger, symbol string, cfg config.Strategy) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest config: %w", err)
	}

	return &Engine{
		log:    log,
		symbol: symbol,
		cfg:    cfg,
	}, nil
}

// Run executes one deterministic pass over bars. The bars are consumed read
// only and must be sorted ascending by time; out-of-order bars are counted
// as data-quality skips rather than aborting the run.
func (e *Engine) Run(bars []market.Bar) (Result, error) {
	if len(bars) == 0 {
		return Result{}, ErrNoData
	}

	closes := market.Closes(bars)
	bands := indicator.Bollinger(closes, e.cfg.Window, e.cfg.StdDevMult)
	signals := strategy.Signals(closes, bands)

	sim := NewSimulator(e.log, e.symbol, e.cfg.InitialCapital, e.cfg.MaxPositionFraction)
	for i, bar := range bars {
		sim.Step(bar, signals[i])
	}

	if e.cfg.CloseOnFinish {
		sim.ForceClose()
	}

	curve := sim.EquityCurve()
	res := Result{
		Symbol:         e.symbol,
		Trades:         sim.Trades(),
		EquityCurve:    curve,
		Bands:          bands,
		Metrics:        Evaluate(curve, sim.Trades()),
		SkippedBars:    sim.SkippedBars(),
		InitialCapital: decimal.NewFromFloat(e.cfg.InitialCapital),
		FinalCapital:   sim.Capital(),
	}

	if res.SkippedBars > 0 {
		e.log.Warn("run finished with data-quality skips",
			slog.String("symbol", e.symbol),
			slog.Int("skipped_bars", res.SkippedBars),
			slog.Int("total_bars", len(bars)))
	}

	return res, nil
}
