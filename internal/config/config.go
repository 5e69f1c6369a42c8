package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/odefilter/internal/solver"
)

const (
	DefaultOrder     = 3
	DefaultDt        = 0.01
	DefaultDiffusion = 0.1
	DefaultMaxIter   = 20
	DefaultTol       = 1e-6
)

// Config is the yaml-facing description of one solve run.
type Config struct {
	Problem   string  `yaml:"problem"`
	Order     int     `yaml:"order"`
	Dt        float64 `yaml:"dt"`
	T0        float64 `yaml:"t0"`
	Tmax      float64 `yaml:"tmax"`
	Diffusion float64 `yaml:"diffusion"`
	Init      string  `yaml:"init"`
	Parallel  bool    `yaml:"parallel"`
	MaxIter   int     `yaml:"max_iter"`
	Tol       float64 `yaml:"tol"`
	Jitter    float64 `yaml:"jitter"`

	// InitValue overrides the problem's default initial value when set.
	InitValue []float64 `yaml:"init_value,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Problem:   "logistic",
		Order:     DefaultOrder,
		Dt:        DefaultDt,
		Tmax:      10.0,
		Diffusion: DefaultDiffusion,
		Init:      string(solver.InitConstant),
		MaxIter:   DefaultMaxIter,
		Tol:       DefaultTol,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Options maps the file values onto solver options.
func (c *Config) Options() solver.Options {
	opts := solver.DefaultOptions()
	opts.Order = c.Order
	opts.Diffusion = c.Diffusion
	opts.Init = solver.InitStrategy(c.Init)
	opts.Parallel = c.Parallel
	opts.MaxIter = c.MaxIter
	opts.Tol = c.Tol
	opts.Jitter = c.Jitter
	return opts
}

// Grid materializes the uniform time grid [t0, tmax] with step dt.
func (c *Config) Grid() ([]float64, error) {
	if c.Dt <= 0 {
		return nil, fmt.Errorf("config: dt must be positive, got %g", c.Dt)
	}
	if c.Tmax <= c.T0 {
		return nil, fmt.Errorf("config: tmax must exceed t0, got [%g, %g]", c.T0, c.Tmax)
	}
	n := int((c.Tmax-c.T0)/c.Dt + 0.5)
	if n < 1 {
		n = 1
	}
	ts := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		ts[i] = c.T0 + float64(i)*c.Dt
	}
	ts[n] = c.Tmax
	return ts, nil
}
