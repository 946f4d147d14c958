package indicator

import "math"

// Band is one Bollinger band sample. Valid is false while the trailing
// window is not yet full, so the first window-1 entries of a band series
// never carry values.
type Band struct {
	Middle float64
	Upper  float64
	Lower  float64
	Valid  bool
}

// Bollinger computes rolling volatility bands middle ± mult*std over a
// trailing window of close prices. The standard deviation uses the sample
// (N-1) convention, matching the rolling std the strategy was tuned with.
//
// The result always has the same length as closes. A window larger than the
// input or smaller than 2 yields a series with no valid entries. Windows
// containing non-finite prices stay invalid instead of poisoning the bands.
func Bollinger(closes []float64, window int, mult float64) []Band {
	bands := make([]Band, len(closes))
	if window < 2 || window > len(closes) {
		return bands
	}

	for i := window - 1; i < len(closes); i++ {
		win := closes[i-window+1 : i+1]

		sum := 0.0
		finite := true
		for _, v := range win {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				finite = false
				break
			}
			sum += v
		}
		if !finite {
			continue
		}

		mean := sum / float64(window)
		ss := 0.0
		for _, v := range win {
			d := v - mean
			ss += d * d
		}
		std := math.Sqrt(ss / float64(window-1))

		bands[i] = Band{
			Middle: mean,
			Upper:  mean + mult*std,
			Lower:  mean - mult*std,
			Valid:  true,
		}
	}

	return bands
}
