package strategy

import (
	"fmt"

	"github.com/gamma-omg/meanrev/internal/indicator"
)

type Signal int

const (
	SigNone Signal = iota
	SigEnterLong
	SigEnterShort
	SigExit
)

func (s Signal) String() string {
	switch s {
	case SigNone:
		return "NONE"
	case SigEnterLong:
		return "ENTER_LONG"
	case SigEnterShort:
		return "ENTER_SHORT"
	case SigExit:
		return "EXIT"
	default:
		return fmt.Sprintf("SIG_%d", s)
	}
}

// Signals derives one mean-reversion signal per bar from close prices and
// their Bollinger bands. Signals are crossing based: they fire only on the
// bar where price moves across a band, not on every bar spent beyond it.
//
//   - SigEnterLong when close crosses below the lower band
//   - SigEnterShort when close crosses above the upper band
//   - SigExit when close crosses the middle band in either direction;
//     an exit crossing wins over an entry crossing on the same bar
//
// Bars without a valid band yield SigNone. On the first bar with a valid
// band the previous bar has no band of its own, so entries compare the
// previous close against the current band; exit crossings are suppressed
// there since no position can predate the window.
func Signals(closes []float64, bands []indicator.Band) []Signal {
	signals := make([]Signal, len(closes))
	for i := 1; i < len(closes); i++ {
		if !bands[i].Valid {
			continue
		}

		cur, prev := closes[i], closes[i-1]

		ref := bands[i]
		prevValid := bands[i-1].Valid
		if prevValid {
			ref = bands[i-1]
		}

		exitUp := prevValid && cur > bands[i].Middle && prev <= ref.Middle
		exitDown := prevValid && cur < bands[i].Middle && prev >= ref.Middle

		switch {
		case exitUp || exitDown:
			signals[i] = SigExit
		case cur < bands[i].Lower && prev >= ref.Lower:
			signals[i] = SigEnterLong
		case cur > bands[i].Upper && prev <= ref.Upper:
			signals[i] = SigEnterShort
		}
	}

	return signals
}
