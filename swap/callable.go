package swap

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/meenmo/rateslib/curve"
	"github.com/meenmo/rateslib/errs"
	"github.com/meenmo/rateslib/hullwhite"
	"github.com/meenmo/rateslib/schedule"
	"github.com/meenmo/rateslib/solver"
	"github.com/meenmo/rateslib/utils"
)

// callTolerance matches tree levels to call times.
const callTolerance = 1e-10

// CallableSwap receives a fixed rate against the curve's forward rate on a
// schedule, and can be cancelled by the counterparty on any call time.
//
// Valuation runs on a Hull-White tree built over the schedule. The terminal
// level carries the final period's net cashflow; every earlier level adds the
// net cashflow of the period starting there to its discounted continuation.
type CallableSwap struct {
	Notional  float64
	FixedRate float64
	Schedule  schedule.Schedule
	CallTimes []float64
	DayCount  utils.DayCount // empty means ACT/365
	Curve     *curve.Curve
	Model     *hullwhite.Model
}

// Decomposition splits a price into the vanilla swap and the embedded option.
// Option is Total - Vanilla: non-positive for a callable swap, non-negative
// for a puttable one.
type Decomposition struct {
	Vanilla float64 `json:"vanilla"`
	Option  float64 `json:"option"`
	Total   float64 `json:"total"`
}

// exercise maps a node's held value to its value after the exerciser acts.
type exercise func(held float64) float64

func callExercise(held float64) float64 { return min(held, 0) }

func putExercise(held float64) float64 { return max(held, 0) }

// Price values the swap with the call right.
func (s CallableSwap) Price() (float64, error) {
	return s.value(callExercise)
}

// Decompose returns the vanilla value, the option value and their total.
func (s CallableSwap) Decompose() (Decomposition, error) {
	return s.decompose(callExercise)
}

// VanillaPV values the swap without any call right by summing net cashflows
// weighted with the tree's state prices.
func (s CallableSwap) VanillaPV() (float64, error) {
	tr, cfs, err := s.lattice()
	if err != nil {
		return 0, err
	}
	sp := tr.StatePrices()
	last := tr.Levels() - 1

	var pv float64
	for i := 0; i < last; i++ {
		pv += cfs[i] * floats.Sum(sp[i])
	}
	pv += cfs[last-1] * floats.Sum(sp[last])
	return pv, nil
}

// FairRate solves for the fixed rate that makes the callable swap worth zero.
func (s CallableSwap) FairRate() (float64, error) {
	return s.fairRate(callExercise)
}

func (s CallableSwap) decompose(ex exercise) (Decomposition, error) {
	total, err := s.value(ex)
	if err != nil {
		return Decomposition{}, err
	}
	vanilla, err := s.VanillaPV()
	if err != nil {
		return Decomposition{}, err
	}
	return Decomposition{Vanilla: vanilla, Option: total - vanilla, Total: total}, nil
}

func (s CallableSwap) fairRate(ex exercise) (float64, error) {
	if err := s.validate(); err != nil {
		return 0, err
	}
	var inner error
	res, err := solver.Brent(func(k float64) float64 {
		trial := s
		trial.FixedRate = k
		v, err := trial.value(ex)
		if err != nil {
			inner = err
			return math.NaN()
		}
		return v
	}, solver.DefaultOptions())
	if inner != nil {
		return 0, inner
	}
	if err != nil {
		return 0, fmt.Errorf("swap.FairRate: %w", err)
	}
	return res.Root, nil
}

func (s CallableSwap) value(ex exercise) (float64, error) {
	tr, cfs, err := s.lattice()
	if err != nil {
		return 0, err
	}
	times := tr.Times()
	last := tr.Levels() - 1

	terminal := make([]float64, last+1)
	for j := range terminal {
		terminal[j] = cfs[last-1]
	}
	return tr.Rollback(terminal, func(level, _ int, cont float64) float64 {
		held := cont + cfs[level]
		if s.isCallTime(times[level]) {
			return ex(held)
		}
		return held
	})
}

// lattice builds the tree over the schedule and the net cashflow of each
// period (fixed minus floating, per the day count).
func (s CallableSwap) lattice() (*hullwhite.Tree, []float64, error) {
	if err := s.validate(); err != nil {
		return nil, nil, err
	}
	times := s.Schedule.Times()
	tr, err := hullwhite.NewTree(s.Model, s.Curve, times)
	if err != nil {
		return nil, nil, err
	}

	cfs := make([]float64, len(times)-1)
	for i := range cfs {
		t1, t2 := times[i], times[i+1]
		dt, err := utils.AccrualFraction(t1, t2, s.DayCount)
		if err != nil {
			return nil, nil, err
		}
		fwd, err := s.Curve.ForwardRate(t1, t2)
		if err != nil {
			return nil, nil, err
		}
		cfs[i] = s.Notional*s.FixedRate*dt - s.Notional*fwd*dt
	}
	return tr, cfs, nil
}

func (s CallableSwap) isCallTime(t float64) bool {
	for _, c := range s.CallTimes {
		if math.Abs(t-c) < callTolerance {
			return true
		}
	}
	return false
}

func (s CallableSwap) validate() error {
	if s.Curve == nil || s.Model == nil {
		return fmt.Errorf("swap.CallableSwap: nil curve or model: %w", errs.ErrInvalidInput)
	}
	if s.Schedule.IsZero() {
		return fmt.Errorf("swap.CallableSwap: empty schedule: %w", errs.ErrInvalidInput)
	}
	if !finite(s.Notional) || !finite(s.FixedRate) {
		return fmt.Errorf("swap.CallableSwap: notional %g, fixed rate %g: %w", s.Notional, s.FixedRate, errs.ErrInvalidInput)
	}
	if _, err := utils.ParseDayCount(string(s.DayCount)); err != nil {
		return err
	}
	maturity := s.Schedule.Maturity()
	for _, c := range s.CallTimes {
		if !finite(c) || c < 0 || c > maturity+callTolerance {
			return fmt.Errorf("swap.CallableSwap: call time %g outside [0, %g]: %w", c, maturity, errs.ErrInvalidInput)
		}
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
