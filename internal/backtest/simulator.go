package backtest

import (
	"log/slog"
	"time"

	"github.com/gamma-omg/meanrev/internal/market"
	"github.com/gamma-omg/meanrev/internal/strategy"
	"github.com/shopspring/decimal"
)

// Simulator owns position and capital state for a single backtest run.
// Construct a fresh one per run; instances are not safe for concurrent use.
// Entry signals while a position is already open are ignored, including the
// opposite direction: only SigExit closes a position.
type Simulator struct {
	log         *slog.Logger
	symbol      string
	maxFraction decimal.Decimal
	capital     decimal.Decimal

	side       market.Side
	qty        decimal.Decimal
	entryPrice decimal.Decimal
	entryTime  time.Time

	lastTime  time.Time
	lastPrice decimal.Decimal

	trades  []market.Trade
	curve   []market.EquityPoint
	skipped int
}

func NewSimulator(log *slog.Logger, symbol string, initialCapital, maxFraction float64) *Simulator {
	return &Simulator{
		log:         log,
		symbol:      symbol,
		maxFraction: decimal.NewFromFloat(maxFraction),
		capital:     decimal.NewFromFloat(initialCapital),
		side:        market.Flat,
	}
}

// Step advances the simulation by one bar. Bars failing the quality check
// (non-positive close or a timestamp not after the previous bar) are skipped
// for position logic, counted, and carry forward the last equity value.
func (s *Simulator) Step(bar market.Bar, sig strategy.Signal) {
	if !s.validBar(bar) {
		s.skipped++
		s.log.Warn("skipping bad bar",
			slog.String("symbol", s.symbol),
			slog.Time("time", bar.Time),
			slog.String("close", bar.Close.String()))
		s.curve = append(s.curve, market.EquityPoint{Time: bar.Time, Equity: s.lastEquity()})
		return
	}

	s.lastTime = bar.Time
	s.lastPrice = bar.Close

	switch {
	case s.side == market.Flat && sig == strategy.SigEnterLong:
		s.open(market.Long, bar)
	case s.side == market.Flat && sig == strategy.SigEnterShort:
		s.open(market.Short, bar)
	case s.side != market.Flat && sig == strategy.SigExit:
		s.close(bar.Close, bar.Time)
	}

	s.curve = append(s.curve, market.EquityPoint{Time: bar.Time, Equity: s.equity(bar.Close)})
}

// ForceClose liquidates any open position at the last valid bar's close.
// Realized and unrealized pnl coincide there, so the equity curve is
// unchanged and only the trade log grows.
func (s *Simulator) ForceClose() {
	if s.side == market.Flat {
		return
	}

	s.close(s.lastPrice, s.lastTime)
}

func (s *Simulator) Trades() []market.Trade            { return s.trades }
func (s *Simulator) EquityCurve() []market.EquityPoint { return s.curve }
func (s *Simulator) SkippedBars() int                  { return s.skipped }
func (s *Simulator) Capital() decimal.Decimal          { return s.capital }

func (s *Simulator) open(side market.Side, bar market.Bar) {
	qty := s.capital.Mul(s.maxFraction).Div(bar.Close).Floor()
	if !qty.IsPositive() {
		s.log.Debug("entry signal skipped: budget below one share",
			slog.String("symbol", s.symbol),
			slog.String("close", bar.Close.String()))
		return
	}

	s.side = side
	s.qty = qty
	s.entryPrice = bar.Close
	s.entryTime = bar.Time
}

func (s *Simulator) close(price decimal.Decimal, ts time.Time) {
	pnl := s.unrealized(price)
	s.capital = s.capital.Add(pnl)

	t := market.Trade{
		Symbol:     s.symbol,
		Side:       s.side,
		EntryTime:  s.entryTime,
		ExitTime:   ts,
		EntryPrice: s.entryPrice,
		ExitPrice:  price,
		Qty:        s.qty,
		Pnl:        pnl,
	}
	s.trades = append(s.trades, t)

	pct := 0.0
	if !s.entryPrice.IsZero() {
		pct, _ = price.Div(s.entryPrice).Float64()
	}
	s.log.Info("trade closed",
		slog.String("symbol", s.symbol),
		slog.String("side", t.Side.String()),
		slog.String("pnl", pnl.String()),
		slog.Float64("exit_to_entry", pct),
		slog.Time("entry_time", t.EntryTime),
		slog.Time("exit_time", t.ExitTime))

	s.side = market.Flat
	s.qty = decimal.Zero
	s.entryPrice = decimal.Zero
	s.entryTime = time.Time{}
}

func (s *Simulator) equity(price decimal.Decimal) decimal.Decimal {
	return s.capital.Add(s.unrealized(price))
}

func (s *Simulator) unrealized(price decimal.Decimal) decimal.Decimal {
	switch s.side {
	case market.Long:
		return price.Sub(s.entryPrice).Mul(s.qty)
	case market.Short:
		return s.entryPrice.Sub(price).Mul(s.qty)
	default:
		return decimal.Zero
	}
}

func (s *Simulator) lastEquity() decimal.Decimal {
	if len(s.curve) == 0 {
		return s.capital
	}

	return s.curve[len(s.curve)-1].Equity
}

func (s *Simulator) validBar(bar market.Bar) bool {
	if !bar.Close.IsPositive() {
		return false
	}
	if !s.lastTime.IsZero() && !bar.Time.After(s.lastTime) {
		return false
	}

	return true
}
