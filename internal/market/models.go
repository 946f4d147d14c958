package market

import (
	"time"

	"github.com/shopspring/decimal"
)

type Bar struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

type Side int

const (
	Flat Side = iota
	Long
	Short
)

func (s Side) String() string {
	switch s {
	case Flat:
		return "flat"
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "unknown"
	}
}

// Trade is one completed open/close cycle. Records are appended when a
// position closes and never mutated afterwards.
type Trade struct {
	Symbol     string
	Side       Side
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice decimal.Decimal
	ExitPrice  decimal.Decimal
	Qty        decimal.Decimal
	Pnl        decimal.Decimal
}

// EquityPoint is the mark-to-market account value at one bar, including
// unrealized pnl of any open position.
type EquityPoint struct {
	Time   time.Time
	Equity decimal.Decimal
}

// Closes extracts close prices as float64 for indicator math.
func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i], _ = b.Close.Float64()
	}

	return closes
}
