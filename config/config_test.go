package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/meenmo/rateslib/curve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_EmptyPathGivesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAMLOverlaysDefaults(t *testing.T) {
	path := writeYAML(t, `
solver:
  upper: 0.25
bootstrap:
  fallback: error
monte_carlo:
  paths: 500
  seed: 7
log:
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, -0.05, cfg.Solver.Lower)
	assert.Equal(t, 0.25, cfg.Solver.Upper)
	assert.Equal(t, 500, cfg.MonteCarlo.Paths)
	assert.Equal(t, uint64(7), cfg.MonteCarlo.Seed)
	assert.Equal(t, 252, cfg.MonteCarlo.ObservationsPerYear)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)

	opts, err := cfg.BootstrapOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, curve.FallbackError, opts.Fallback)
	assert.Equal(t, 0.25, opts.Solver.Upper)
	assert.Equal(t, 25, opts.RefineSweeps)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RATES_MC_PATHS", "1234")
	t.Setenv("RATES_MC_SEED", "99")
	t.Setenv("RATES_LOG_LEVEL", "debug")
	t.Setenv("RATES_MODEL_SIGMA", "0.015")

	cfg, err := Load(writeYAML(t, "monte_carlo:\n  paths: 10\n"))
	require.NoError(t, err)
	assert.Equal(t, 1234, cfg.MonteCarlo.Paths)
	assert.Equal(t, uint64(99), cfg.MonteCarlo.Seed)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 0.015, cfg.Model.Sigma)

	mc := cfg.MonteCarloOptions()
	assert.Equal(t, 1234, mc.Paths)
	assert.Equal(t, uint64(99), mc.Seed)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeYAML(t, "solver: [1, 2"))
	require.Error(t, err)

	_, err = Load(writeYAML(t, "solver:\n  lower: 0.2\n  upper: 0.1\n"))
	require.Error(t, err)

	_, err = Load(writeYAML(t, "bootstrap:\n  fallback: ignore\n"))
	require.Error(t, err)

	_, err = Load(writeYAML(t, "monte_carlo:\n  paths: 5000\n  max_paths: 1000\n"))
	require.Error(t, err)

	t.Setenv("RATES_MC_PATHS", "many")
	_, err = Load("")
	require.Error(t, err)
}

func TestLoad_SimulationLimits(t *testing.T) {
	t.Setenv("RATES_MC_MAX_GRID_CELLS", "1000000")

	cfg, err := Load(writeYAML(t, "monte_carlo:\n  max_paths: 50000\n  max_observations_per_year: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 50_000, cfg.MonteCarlo.MaxPaths)
	assert.Equal(t, Default().MonteCarlo.MaxObservationsPerYear, cfg.MonteCarlo.MaxObservationsPerYear)
	assert.Equal(t, 1_000_000, cfg.MonteCarlo.MaxGridCells)
	assert.Equal(t, Default().Bootstrap.MaxSamples, cfg.Bootstrap.MaxSamples)
}
