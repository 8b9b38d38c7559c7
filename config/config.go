// Package config loads engine settings from YAML, .env and RATES_*
// environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/rateslib/curve"
	"github.com/meenmo/rateslib/montecarlo"
	"github.com/meenmo/rateslib/solver"
)

// Config holds every tunable of the pricing engines. It is passed explicitly;
// there is no package-level active configuration.
type Config struct {
	Solver     SolverConfig     `yaml:"solver"`
	Bootstrap  BootstrapConfig  `yaml:"bootstrap"`
	Model      ModelConfig      `yaml:"model"`
	MonteCarlo MonteCarloConfig `yaml:"monte_carlo"`
	Log        LogConfig        `yaml:"log"`
	Server     ServerConfig     `yaml:"server"`
}

// SolverConfig bounds the bracketed root searches (bootstrap, fair rates).
type SolverConfig struct {
	// Lower and Upper bracket the unknown rate.
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`

	// Tolerance is the absolute tolerance on the root.
	Tolerance float64 `yaml:"tolerance"`

	MaxIterations int `yaml:"max_iterations"`
}

// BootstrapConfig controls curve calibration.
type BootstrapConfig struct {
	// Fallback is "market-rate" (use the quote as the zero rate and warn) or
	// "error" (fail the bootstrap) when a pillar's root is not bracketed.
	Fallback string `yaml:"fallback"`

	// RefineSweeps caps the Gauss-Seidel passes after the sequential pass.
	// Negative disables refinement.
	RefineSweeps int `yaml:"refine_sweeps"`

	// RefineTolerance is the max |NPV| per unit notional that stops refinement.
	RefineTolerance float64 `yaml:"refine_tolerance"`

	// MaxSamples caps the sample points a bootstrap request may return.
	MaxSamples int `yaml:"max_samples"`
}

// ModelConfig supplies Hull-White parameters when a request omits them.
type ModelConfig struct {
	MeanReversion float64 `yaml:"mean_reversion"`
	Sigma         float64 `yaml:"sigma"`
}

// MonteCarloConfig controls range accrual simulation. The Max* fields bound
// what a single request may ask for.
type MonteCarloConfig struct {
	Paths               int     `yaml:"paths"`
	Seed                uint64  `yaml:"seed"`
	Workers             int     `yaml:"workers"` // 0: GOMAXPROCS
	ObservationsPerYear int     `yaml:"observations_per_year"`
	MinBondPrice        float64 `yaml:"min_bond_price"`

	MaxPaths               int `yaml:"max_paths"`
	MaxObservationsPerYear int `yaml:"max_observations_per_year"`
	// MaxGridCells caps paths × simulated grid points, the size of the
	// factor matrix.
	MaxGridCells int `yaml:"max_grid_cells"`
}

// LogConfig controls log format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr                   string `yaml:"addr"`
	Mode                   string `yaml:"mode"` // gin mode: release | debug | test
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// Default returns the production defaults.
func Default() Config {
	return Config{
		Solver: SolverConfig{
			Lower:         -0.05,
			Upper:         0.15,
			Tolerance:     1e-14,
			MaxIterations: 200,
		},
		Bootstrap: BootstrapConfig{
			Fallback:        "market-rate",
			RefineSweeps:    25,
			RefineTolerance: 1e-12,
			MaxSamples:      10_000,
		},
		Model: ModelConfig{
			MeanReversion: 0.03,
			Sigma:         0.01,
		},
		MonteCarlo: MonteCarloConfig{
			Paths:               10000,
			Seed:                42,
			ObservationsPerYear: 252,
			MinBondPrice:        1e-12,

			MaxPaths:               1_000_000,
			MaxObservationsPerYear: 2_520,
			MaxGridCells:           50_000_000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:                   ":8080",
			Mode:                   "release",
			ShutdownTimeoutSeconds: 10,
		},
	}
}

// Load reads .env if present, overlays the YAML file at path on the
// defaults, then applies RATES_* environment overrides. An empty path skips
// the file.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	setDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that have no safe default.
func (c Config) Validate() error {
	if !(c.Solver.Lower < c.Solver.Upper) {
		return fmt.Errorf("config: solver bracket [%g, %g] is empty", c.Solver.Lower, c.Solver.Upper)
	}
	if _, err := curve.ParseFallbackPolicy(c.Bootstrap.Fallback); err != nil {
		return fmt.Errorf("config: bootstrap fallback: %w", err)
	}
	switch c.Server.Mode {
	case "", "debug", "release", "test":
	default:
		return fmt.Errorf("config: server mode %q is not debug, release or test", c.Server.Mode)
	}
	if c.MonteCarlo.MaxPaths > 0 && c.MonteCarlo.Paths > c.MonteCarlo.MaxPaths {
		return fmt.Errorf("config: monte_carlo paths %d above max_paths %d", c.MonteCarlo.Paths, c.MonteCarlo.MaxPaths)
	}
	if c.Model.Sigma < 0 || c.Model.MeanReversion < 0 {
		return fmt.Errorf("config: model a=%g sigma=%g must be non-negative", c.Model.MeanReversion, c.Model.Sigma)
	}
	return nil
}

type envOverride struct {
	key   string
	apply func(string) error
}

func applyEnvOverrides(cfg *Config) error {
	overrides := []envOverride{
		{"RATES_LOG_LEVEL", func(v string) error { cfg.Log.Level = v; return nil }},
		{"RATES_LOG_FORMAT", func(v string) error { cfg.Log.Format = v; return nil }},
		{"RATES_SERVER_ADDR", func(v string) error { cfg.Server.Addr = v; return nil }},
		{"RATES_SERVER_MODE", func(v string) error { cfg.Server.Mode = v; return nil }},
		{"RATES_BOOTSTRAP_FALLBACK", func(v string) error { cfg.Bootstrap.Fallback = v; return nil }},
		{"RATES_MC_PATHS", intSetter(&cfg.MonteCarlo.Paths)},
		{"RATES_MC_WORKERS", intSetter(&cfg.MonteCarlo.Workers)},
		{"RATES_MC_MAX_PATHS", intSetter(&cfg.MonteCarlo.MaxPaths)},
		{"RATES_MC_MAX_GRID_CELLS", intSetter(&cfg.MonteCarlo.MaxGridCells)},
		{"RATES_MC_SEED", func(v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			cfg.MonteCarlo.Seed = n
			return err
		}},
		{"RATES_MODEL_MEAN_REVERSION", floatSetter(&cfg.Model.MeanReversion)},
		{"RATES_MODEL_SIGMA", floatSetter(&cfg.Model.Sigma)},
	}
	for _, o := range overrides {
		v, ok := os.LookupEnv(o.key)
		if !ok || v == "" {
			continue
		}
		if err := o.apply(v); err != nil {
			return fmt.Errorf("config: %s=%q: %w", o.key, v, err)
		}
	}
	return nil
}

func intSetter(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err == nil {
			*dst = n
		}
		return err
	}
}

func floatSetter(dst *float64) func(string) error {
	return func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			*dst = f
		}
		return err
	}
}

// setDefaults replaces unusable values with the defaults.
func setDefaults(cfg *Config) {
	def := Default()
	if cfg.Solver.Tolerance <= 0 {
		cfg.Solver.Tolerance = def.Solver.Tolerance
	}
	if cfg.Solver.MaxIterations <= 0 {
		cfg.Solver.MaxIterations = def.Solver.MaxIterations
	}
	if cfg.Bootstrap.Fallback == "" {
		cfg.Bootstrap.Fallback = def.Bootstrap.Fallback
	}
	if cfg.Bootstrap.RefineSweeps == 0 {
		cfg.Bootstrap.RefineSweeps = def.Bootstrap.RefineSweeps
	}
	if cfg.Bootstrap.RefineTolerance <= 0 {
		cfg.Bootstrap.RefineTolerance = def.Bootstrap.RefineTolerance
	}
	if cfg.Bootstrap.MaxSamples <= 0 {
		cfg.Bootstrap.MaxSamples = def.Bootstrap.MaxSamples
	}
	if cfg.MonteCarlo.Paths <= 0 {
		cfg.MonteCarlo.Paths = def.MonteCarlo.Paths
	}
	if cfg.MonteCarlo.MaxPaths <= 0 {
		cfg.MonteCarlo.MaxPaths = def.MonteCarlo.MaxPaths
	}
	if cfg.MonteCarlo.MaxObservationsPerYear <= 0 {
		cfg.MonteCarlo.MaxObservationsPerYear = def.MonteCarlo.MaxObservationsPerYear
	}
	if cfg.MonteCarlo.MaxGridCells <= 0 {
		cfg.MonteCarlo.MaxGridCells = def.MonteCarlo.MaxGridCells
	}
	if cfg.MonteCarlo.ObservationsPerYear <= 0 {
		cfg.MonteCarlo.ObservationsPerYear = def.MonteCarlo.ObservationsPerYear
	}
	if cfg.MonteCarlo.MinBondPrice <= 0 {
		cfg.MonteCarlo.MinBondPrice = def.MonteCarlo.MinBondPrice
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = def.Server.Mode
	}
	if cfg.Server.ShutdownTimeoutSeconds <= 0 {
		cfg.Server.ShutdownTimeoutSeconds = def.Server.ShutdownTimeoutSeconds
	}
}

// SolverOptions converts the solver section.
func (c Config) SolverOptions() solver.Options {
	return solver.Options{
		Lower:         c.Solver.Lower,
		Upper:         c.Solver.Upper,
		Tolerance:     c.Solver.Tolerance,
		MaxIterations: c.Solver.MaxIterations,
	}
}

// BootstrapOptions converts the solver and bootstrap sections.
func (c Config) BootstrapOptions(logger *slog.Logger) (curve.BootstrapOptions, error) {
	policy, err := curve.ParseFallbackPolicy(c.Bootstrap.Fallback)
	if err != nil {
		return curve.BootstrapOptions{}, err
	}
	return curve.BootstrapOptions{
		Solver:          c.SolverOptions(),
		Fallback:        policy,
		RefineSweeps:    c.Bootstrap.RefineSweeps,
		RefineTolerance: c.Bootstrap.RefineTolerance,
		Logger:          logger,
	}, nil
}

// MonteCarloOptions converts the monte_carlo section.
func (c Config) MonteCarloOptions() montecarlo.Config {
	return montecarlo.Config{
		Paths:   c.MonteCarlo.Paths,
		Seed:    c.MonteCarlo.Seed,
		Workers: c.MonteCarlo.Workers,
	}
}
