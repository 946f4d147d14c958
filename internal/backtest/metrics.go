package backtest

import (
	"math"

	"github.com/gamma-omg/meanrev/internal/market"
)

const tradingDaysPerYear = 252

// Metrics summarizes one backtest run. Arithmetic edge cases resolve to 0
// instead of erroring: win rate with no closed trades, Sharpe with a
// zero-volatility return series.
type Metrics struct {
	TotalReturn   float64 `json:"total_return"`
	WinRate       float64 `json:"win_rate"`
	MaxDrawdown   float64 `json:"max_drawdown"`
	SharpeRatio   float64 `json:"sharpe_ratio"`
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
}

// Evaluate computes summary statistics from an equity curve and trade log.
// It is a pure function of its inputs.
func Evaluate(curve []market.EquityPoint, trades []market.Trade) Metrics {
	m := Metrics{TotalTrades: len(trades)}
	for _, t := range trades {
		if t.Pnl.IsPositive() {
			m.WinningTrades++
		}
	}
	if len(trades) > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(len(trades))
	}

	equity := make([]float64, len(curve))
	for i, p := range curve {
		equity[i], _ = p.Equity.Float64()
	}

	m.TotalReturn = totalReturn(equity)
	m.MaxDrawdown = maxDrawdown(equity)
	m.SharpeRatio = sharpeRatio(barReturns(equity))

	return m
}

func totalReturn(equity []float64) float64 {
	if len(equity) == 0 || equity[0] == 0 {
		return 0
	}

	return equity[len(equity)-1]/equity[0] - 1
}

// maxDrawdown is the largest fractional decline from a running equity peak,
// reported as a positive number in [0, 1]. Equity at or below zero, which a
// short position running against the account can produce, counts as a full
// drawdown.
func maxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}

	peak := equity[0]
	maxDD := 0.0
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - e) / peak; dd > maxDD {
			maxDD = dd
		}
	}

	return math.Min(maxDD, 1)
}

func barReturns(equity []float64) []float64 {
	if len(equity) < 2 {
		return nil
	}

	rets := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 {
			rets = append(rets, 0)
			continue
		}
		rets = append(rets, equity[i]/equity[i-1]-1)
	}

	return rets
}

// sharpeRatio annualizes mean/std of per-bar returns by sqrt(252). The
// standard deviation uses the sample (N-1) convention, consistent with the
// band calculation.
func sharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	sum := 0.0
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	ss := 0.0
	for _, r := range returns {
		d := r - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(len(returns)-1))
	if std == 0 {
		return 0
	}

	return mean / std * math.Sqrt(tradingDaysPerYear)
}
