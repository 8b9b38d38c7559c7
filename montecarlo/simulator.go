// Package montecarlo simulates the Hull-White centred factor x(t) with the
// exact Ornstein-Uhlenbeck transition.
package montecarlo

import (
	"fmt"
	"math"
	"runtime"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/rateslib/errs"
	"github.com/meenmo/rateslib/hullwhite"
)

// Config controls a simulation run.
type Config struct {
	Paths   int    `json:"paths" yaml:"paths"`
	Seed    uint64 `json:"seed" yaml:"seed"`
	Workers int    `json:"workers,omitempty" yaml:"workers,omitempty"` // 0: GOMAXPROCS
}

// DefaultConfig returns 10,000 paths with seed 42.
func DefaultConfig() Config {
	return Config{Paths: 10000, Seed: 42}
}

// PathSet holds simulated factor values, one row per scenario and one column
// per grid time.
type PathSet struct {
	times []float64
	x     *mat.Dense
}

// Times returns a copy of the observation grid.
func (p *PathSet) Times() []float64 { return append([]float64(nil), p.times...) }

// Paths is the number of scenarios.
func (p *PathSet) Paths() int {
	r, _ := p.x.Dims()
	return r
}

// At returns x for scenario s at grid index j.
func (p *PathSet) At(s, j int) float64 { return p.x.At(s, j) }

// Row returns a copy of scenario s.
func (p *PathSet) Row(s int) []float64 {
	return append([]float64(nil), p.x.RawRowView(s)...)
}

// Matrix exposes the paths read-only.
func (p *PathSet) Matrix() mat.Matrix { return p.x }

// Simulate draws cfg.Paths scenarios of x on grid, starting from x(0) = 0.
// grid must be non-negative and strictly increasing; its first step is
// taken from t = 0.
//
// Scenario s draws from its own generator seeded from (cfg.Seed, s), so the
// result does not depend on cfg.Workers or goroutine scheduling.
func Simulate(m *hullwhite.Model, grid []float64, cfg Config) (*PathSet, error) {
	if m == nil {
		return nil, fmt.Errorf("montecarlo.Simulate: nil model: %w", errs.ErrInvalidInput)
	}
	if cfg.Paths <= 0 {
		return nil, fmt.Errorf("montecarlo.Simulate: paths %d must be positive: %w", cfg.Paths, errs.ErrInvalidInput)
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("montecarlo.Simulate: empty grid: %w", errs.ErrInvalidInput)
	}

	steps := len(grid)
	decay := make([]float64, steps)
	stdDev := make([]float64, steps)
	prev := 0.0
	for j, t := range grid {
		if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 || (j > 0 && t <= prev) {
			return nil, fmt.Errorf("montecarlo.Simulate: grid not strictly increasing from 0 at %d (%g): %w", j, t, errs.ErrInvalidInput)
		}
		dt := t - prev
		decay[j] = m.Decay(dt)
		stdDev[j] = m.StepStdDev(dt)
		prev = t
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, cfg.Paths)

	ps := &PathSet{
		times: append([]float64(nil), grid...),
		x:     mat.NewDense(cfg.Paths, steps, nil),
	}

	var g errgroup.Group
	g.SetLimit(workers)
	chunk := (cfg.Paths + workers - 1) / workers
	for lo := 0; lo < cfg.Paths; lo += chunk {
		hi := min(lo+chunk, cfg.Paths)
		g.Go(func() error {
			for s := lo; s < hi; s++ {
				simulatePath(ps.x.RawRowView(s), decay, stdDev, scenarioSeed(cfg.Seed, s))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ps, nil
}

func simulatePath(row, decay, stdDev []float64, seed uint64) {
	rng := rand.New(rand.NewSource(seed))
	x := 0.0
	for j := range row {
		x = x*decay[j] + stdDev[j]*rng.NormFloat64()
		row[j] = x
	}
}

// scenarioSeed derives an independent stream seed per scenario with the
// SplitMix64 finaliser.
func scenarioSeed(seed uint64, scenario int) uint64 {
	z := seed + uint64(scenario+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
