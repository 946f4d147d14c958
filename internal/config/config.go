package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Strategies  map[string]Strategy `yaml:"strategies"`
	Report      string              `yaml:"report"`
	PlotDir     string              `yaml:"plot_dir"`
	Optimizer   Optimizer           `yaml:"optimizer"`
	PlatformRef PlatformReference   `yaml:"platform"`
}

func Read(r io.Reader) (*Config, error) {
	var cfg Config
	d := yaml.NewDecoder(r)
	err := d.Decode(&cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	for symbol, s := range cfg.Strategies {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("invalid strategy config for %s: %w", symbol, err)
		}
	}

	return &cfg, nil
}

func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

const (
	DefaultWindow              = 20
	DefaultStdDevMult          = 2.5
	DefaultMaxPositionFraction = 0.5
)

type Strategy struct {
	Window              int     `yaml:"window"`
	StdDevMult          float64 `yaml:"std_dev_mult"`
	MaxPositionFraction float64 `yaml:"max_position_fraction"`
	InitialCapital      float64 `yaml:"initial_capital"`
	CloseOnFinish       bool    `yaml:"close_on_finish"`
}

func (s *Strategy) UnmarshalYAML(value *yaml.Node) error {
	type raw Strategy
	r := raw{
		Window:              DefaultWindow,
		StdDevMult:          DefaultStdDevMult,
		MaxPositionFraction: DefaultMaxPositionFraction,
	}
	if err := value.Decode(&r); err != nil {
		return fmt.Errorf("failed parsing strategy config: %w", err)
	}

	*s = Strategy(r)
	return nil
}

// Validate rejects a malformed strategy before any computation starts.
func (s Strategy) Validate() error {
	if s.Window < 2 {
		return fmt.Errorf("window must be at least 2, got %d", s.Window)
	}
	if s.StdDevMult <= 0 {
		return fmt.Errorf("std_dev_mult must be positive, got %g", s.StdDevMult)
	}
	if s.MaxPositionFraction <= 0 || s.MaxPositionFraction > 1 {
		return fmt.Errorf("max_position_fraction must be in (0, 1], got %g", s.MaxPositionFraction)
	}
	if s.InitialCapital <= 0 {
		return fmt.Errorf("initial_capital must be positive, got %g", s.InitialCapital)
	}

	return nil
}

type Optimizer struct {
	Windows     []int     `yaml:"windows"`
	StdDevMults []float64 `yaml:"std_dev_mults"`
	Parallelism int       `yaml:"parallelism"`
}

// platform configs

type PlatformReference struct {
	Platform Platform
}

type Platform interface{}

type Backtest struct {
	Data  map[string]string `yaml:"data"`
	Start time.Time         `yaml:"start"`
	End   time.Time         `yaml:"end"`
}

type Alpaca struct {
	BaseUrl  string
	ApiKey   string
	Secret   string
	Interval time.Duration
}

func (a *Alpaca) UnmarshalYAML(value *yaml.Node) error {
	type raw struct {
		BaseUrl  string `yaml:"base_url"`
		ApiKey   string `yaml:"api_key"`
		Secret   string `yaml:"secret"`
		Interval string `yaml:"interval"`
	}

	var r raw
	if err := value.Decode(&r); err != nil {
		return fmt.Errorf("failed parsing Alpaca config: %w", err)
	}

	a.BaseUrl = r.BaseUrl
	a.ApiKey = r.ApiKey
	a.Secret = r.Secret
	if r.Interval != "" {
		d, err := time.ParseDuration(r.Interval)
		if err != nil {
			return fmt.Errorf("invalid evaluation interval: %w", err)
		}
		a.Interval = d
	}

	return nil
}

func (w *PlatformReference) UnmarshalYAML(value *yaml.Node) error {
	if len(value.Content) == 0 {
		return nil
	}

	if value.Kind != yaml.MappingNode || len(value.Content) != 2 {
		return errors.New("invalid platform yaml format")
	}

	key := value.Content[0].Value
	switch key {
	case "backtest":
		var bt Backtest
		if err := value.Content[1].Decode(&bt); err != nil {
			return fmt.Errorf("failed parsing backtest platform config: %w", err)
		}
		w.Platform = bt
	case "alpaca":
		var alpaca Alpaca
		if err := value.Content[1].Decode(&alpaca); err != nil {
			return fmt.Errorf("failed parsing Alpaca platform config: %w", err)
		}
		w.Platform = alpaca
	default:
		return fmt.Errorf("unknown platform type: %s", key)
	}

	return nil
}
