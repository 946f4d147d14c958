package backtest

import (
	"io"
	"log/slog"
	"time"

	"github.com/gamma-omg/meanrev/internal/market"
	"github.com/shopspring/decimal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func barsFromCloses(closes []float64) []market.Bar {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Time:  start.AddDate(0, 0, i),
			Close: decimal.NewFromFloat(c),
		}
	}

	return bars
}

func curveFromEquity(equity []float64) []market.EquityPoint {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	curve := make([]market.EquityPoint, len(equity))
	for i, e := range equity {
		curve[i] = market.EquityPoint{
			Time:   start.AddDate(0, 0, i),
			Equity: decimal.NewFromFloat(e),
		}
	}

	return curve
}
