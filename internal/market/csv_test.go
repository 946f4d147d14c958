package market

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCsv = `timestamp,open,high,low,close,volume
1704153600,470.5,472.1,469.0,471.2,1000
1704240000,471.2,473.8,470.9,473.5,1500
1704326400,473.5,474.0,468.2,469.1,2000
`

func TestReadBars(t *testing.T) {
	bars, err := readBars(strings.NewReader(sampleCsv), func(b Bar) bool { return true })
	require.NoError(t, err)
	require.Len(t, bars, 3)

	first := bars[0]
	assert.True(t, first.Time.Equal(time.Unix(1704153600, 0)))
	assert.True(t, decimal.RequireFromString("470.5").Equal(first.Open))
	assert.True(t, decimal.RequireFromString("472.1").Equal(first.High))
	assert.True(t, decimal.RequireFromString("469.0").Equal(first.Low))
	assert.True(t, decimal.RequireFromString("471.2").Equal(first.Close))
	assert.True(t, decimal.NewFromInt(1000).Equal(first.Volume))
}

func TestReadBars_Filter(t *testing.T) {
	cutoff := time.Unix(1704240000, 0)

	bars, err := readBars(strings.NewReader(sampleCsv), func(b Bar) bool {
		return !b.Time.Before(cutoff)
	})
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Time.Equal(cutoff))
}

func TestReadBars_EmptyAfterHeader(t *testing.T) {
	bars, err := readBars(strings.NewReader("timestamp,open,high,low,close,volume\n"),
		func(b Bar) bool { return true })

	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestReadBars_MissingHeader(t *testing.T) {
	_, err := readBars(strings.NewReader(""), func(b Bar) bool { return true })
	assert.Error(t, err)
}

func TestReadBars_BadPrice(t *testing.T) {
	csv := "timestamp,open,high,low,close,volume\n1704153600,abc,1,1,1,1\n"

	_, err := readBars(strings.NewReader(csv), func(b Bar) bool { return true })
	assert.Error(t, err)
}

func TestWriteBars_RoundTrip(t *testing.T) {
	bars := []Bar{
		{
			Time:   time.Unix(1704153600, 0),
			Open:   decimal.RequireFromString("470.5"),
			High:   decimal.RequireFromString("472.1"),
			Low:    decimal.RequireFromString("469.0"),
			Close:  decimal.RequireFromString("471.2"),
			Volume: decimal.NewFromInt(1000),
		},
		{
			Time:   time.Unix(1704240000, 0),
			Open:   decimal.RequireFromString("471.2"),
			High:   decimal.RequireFromString("473.8"),
			Low:    decimal.RequireFromString("470.9"),
			Close:  decimal.RequireFromString("473.5"),
			Volume: decimal.NewFromInt(1500),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBars(&buf, bars))

	restored, err := readBars(&buf, func(b Bar) bool { return true })
	require.NoError(t, err)
	require.Len(t, restored, len(bars))

	for i := range bars {
		assert.True(t, bars[i].Time.Equal(restored[i].Time), "time at %d", i)
		assert.True(t, bars[i].Close.Equal(restored[i].Close), "close at %d", i)
		assert.True(t, bars[i].Volume.Equal(restored[i].Volume), "volume at %d", i)
	}
}

func TestCloses(t *testing.T) {
	bars := []Bar{
		{Close: decimal.RequireFromString("100.5")},
		{Close: decimal.RequireFromString("101.25")},
	}

	closes := Closes(bars)
	require.Len(t, closes, 2)
	assert.InDelta(t, 100.5, closes[0], 1e-9)
	assert.InDelta(t, 101.25, closes[1], 1e-9)

	assert.Empty(t, Closes(nil))
}

func TestSide_String(t *testing.T) {
	assert.Equal(t, "flat", Flat.String())
	assert.Equal(t, "long", Long.String())
	assert.Equal(t, "short", Short.String())
}
