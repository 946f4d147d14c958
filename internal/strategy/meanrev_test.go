package strategy

import (
	"testing"

	"github.com/gamma-omg/meanrev/internal/indicator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantThenDrop() []float64 {
	closes := make([]float64, 0, 22)
	for i := 0; i < 19; i++ {
		closes = append(closes, 100)
	}
	return append(closes, 94, 93, 101)
}

func TestSignals_EnterLongFiresOnCrossing(t *testing.T) {
	closes := constantThenDrop()
	signals := Signals(closes, indicator.Bollinger(closes, 20, 2))

	require.Len(t, signals, len(closes))

	// fires once at the crossing bar, not again while price stays below
	assert.Equal(t, SigEnterLong, signals[19])
	assert.Equal(t, SigNone, signals[20])
	assert.Equal(t, SigExit, signals[21])

	for i := 0; i < 19; i++ {
		assert.Equal(t, SigNone, signals[i], "bar %d", i)
	}
}

func TestSignals_EnterShortFiresOnCrossing(t *testing.T) {
	closes := make([]float64, 0, 22)
	for i := 0; i < 19; i++ {
		closes = append(closes, 100)
	}
	closes = append(closes, 106, 107, 99)

	signals := Signals(closes, indicator.Bollinger(closes, 20, 2))

	assert.Equal(t, SigEnterShort, signals[19])
	assert.Equal(t, SigNone, signals[20])
	assert.Equal(t, SigExit, signals[21])
}

func TestSignals_ZeroWidthBandNeverEnters(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}

	signals := Signals(closes, indicator.Bollinger(closes, 20, 2))
	for i, s := range signals {
		assert.Equal(t, SigNone, s, "bar %d", i)
	}
}

func TestSignals_ExitTakesPrecedenceOverEntry(t *testing.T) {
	// bar 3 crosses the middle band down and the lower band in one move
	closes := []float64{10, 10, 10, 8}

	signals := Signals(closes, indicator.Bollinger(closes, 3, 0.5))

	assert.Equal(t, SigExit, signals[3])
}

func TestSignals_NoneWhileBandUndefined(t *testing.T) {
	closes := []float64{10, 4, 17}

	signals := Signals(closes, indicator.Bollinger(closes, 5, 2))
	for i, s := range signals {
		assert.Equal(t, SigNone, s, "bar %d", i)
	}
}

func TestSignals_MiddleCrossBothDirections(t *testing.T) {
	// price oscillates across the middle band
	closes := []float64{10, 10.2, 9.8, 10.1, 9.6, 10.3}

	bands := indicator.Bollinger(closes, 3, 3)
	signals := Signals(closes, bands)

	var exits int
	for _, s := range signals {
		if s == SigExit {
			exits++
		}
	}
	assert.GreaterOrEqual(t, exits, 2)
}

func TestSignal_String(t *testing.T) {
	assert.Equal(t, "NONE", SigNone.String())
	assert.Equal(t, "ENTER_LONG", SigEnterLong.String())
	assert.Equal(t, "ENTER_SHORT", SigEnterShort.String())
	assert.Equal(t, "EXIT", SigExit.String())
}
