package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	yml := `
strategies:
  SPY:
    window: 30
    std_dev_mult: 2.0
    max_position_fraction: 0.25
    initial_capital: 50000
    close_on_finish: true
  QQQ:
    initial_capital: 10000
report: out/report.json
plot_dir: out/plots
optimizer:
  windows: [10, 20, 30]
  std_dev_mults: [1.5, 2.0, 2.5]
  parallelism: 4
platform:
  backtest:
    data:
      SPY: data/spy.csv
      QQQ: data/qqq.csv
    start: 2023-01-01T00:00:00Z
    end: 2024-01-01T00:00:00Z
`

	cfg, err := Read(strings.NewReader(yml))
	require.NoError(t, err)

	spy := cfg.Strategies["SPY"]
	assert.Equal(t, 30, spy.Window)
	assert.InDelta(t, 2.0, spy.StdDevMult, 1e-9)
	assert.InDelta(t, 0.25, spy.MaxPositionFraction, 1e-9)
	assert.InDelta(t, 50000, spy.InitialCapital, 1e-9)
	assert.True(t, spy.CloseOnFinish)

	assert.Equal(t, "out/report.json", cfg.Report)
	assert.Equal(t, "out/plots", cfg.PlotDir)
	assert.Equal(t, []int{10, 20, 30}, cfg.Optimizer.Windows)
	assert.Equal(t, []float64{1.5, 2.0, 2.5}, cfg.Optimizer.StdDevMults)
	assert.Equal(t, 4, cfg.Optimizer.Parallelism)

	bt, ok := cfg.PlatformRef.Platform.(Backtest)
	require.True(t, ok)
	assert.Equal(t, "data/spy.csv", bt.Data["SPY"])
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), bt.Start)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), bt.End)
}

func TestRead_StrategyDefaults(t *testing.T) {
	yml := `
strategies:
  QQQ:
    initial_capital: 10000
`

	cfg, err := Read(strings.NewReader(yml))
	require.NoError(t, err)

	qqq := cfg.Strategies["QQQ"]
	assert.Equal(t, DefaultWindow, qqq.Window)
	assert.InDelta(t, DefaultStdDevMult, qqq.StdDevMult, 1e-9)
	assert.InDelta(t, DefaultMaxPositionFraction, qqq.MaxPositionFraction, 1e-9)
	assert.False(t, qqq.CloseOnFinish)
}

func TestRead_InvalidStrategy(t *testing.T) {
	tbl := []struct {
		name string
		yml  string
	}{
		{
			name: "window_too_small",
			yml: `
strategies:
  SPY:
    window: 1
    initial_capital: 10000`,
		},
		{
			name: "negative_std_dev_mult",
			yml: `
strategies:
  SPY:
    std_dev_mult: -1
    initial_capital: 10000`,
		},
		{
			name: "fraction_above_one",
			yml: `
strategies:
  SPY:
    max_position_fraction: 1.5
    initial_capital: 10000`,
		},
		{
			name: "missing_capital",
			yml: `
strategies:
  SPY:
    window: 20`,
		},
	}

	for _, c := range tbl {
		t.Run(c.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(c.yml))
			assert.Error(t, err)
		})
	}
}

func TestRead_AlpacaPlatform(t *testing.T) {
	yml := `
strategies:
  SPY:
    initial_capital: 10000
platform:
  alpaca:
    base_url: https://paper-api.alpaca.markets
    api_key: key
    secret: secret
    interval: 5m
`

	cfg, err := Read(strings.NewReader(yml))
	require.NoError(t, err)

	a, ok := cfg.PlatformRef.Platform.(Alpaca)
	require.True(t, ok)
	assert.Equal(t, "https://paper-api.alpaca.markets", a.BaseUrl)
	assert.Equal(t, "key", a.ApiKey)
	assert.Equal(t, "secret", a.Secret)
	assert.Equal(t, 5*time.Minute, a.Interval)
}

func TestRead_InvalidInterval(t *testing.T) {
	yml := `
platform:
  alpaca:
    interval: soon
`

	_, err := Read(strings.NewReader(yml))
	assert.Error(t, err)
}

func TestRead_UnknownPlatform(t *testing.T) {
	yml := `
platform:
  robinhood:
    api_key: key
`

	_, err := Read(strings.NewReader(yml))
	assert.Error(t, err)
}

func TestRead_MalformedYaml(t *testing.T) {
	_, err := Read(strings.NewReader("strategies: ["))
	assert.Error(t, err)
}
