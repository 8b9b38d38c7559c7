package swap

import (
	"fmt"
	"math"
	"runtime"
	"slices"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/meenmo/rateslib/curve"
	"github.com/meenmo/rateslib/errs"
	"github.com/meenmo/rateslib/hullwhite"
	"github.com/meenmo/rateslib/montecarlo"
	"github.com/meenmo/rateslib/schedule"
	"github.com/meenmo/rateslib/utils"
)

const (
	defaultObservationsPerYear = 252
	defaultMinBondPrice        = 1e-12
	observationTolerance       = 1e-12
)

// RangeAccrualSwap is the range accrual leg of a swap: each period pays
// Notional·Coupon·Δt_i·A_i, where A_i is the fraction of observations on
// which the projected index fixes inside [Lower, Upper].
//
// The index is simulated with the Hull-White factor on the projection curve
// and cashflows are discounted on DiscountCurve.
type RangeAccrualSwap struct {
	Notional float64
	Coupon   float64
	Lower    float64 // may be -Inf
	Upper    float64 // may be +Inf
	// IndexTenor is the index rate's tenor in years. Zero uses each period's length.
	IndexTenor float64
	Schedule   schedule.Schedule
	// ObservationsPerYear spaces fixings inside a period. Zero means 252.
	ObservationsPerYear int
	DayCount            utils.DayCount // empty means ACT/365
	DiscountCurve       *curve.Curve
	ProjectionCurve     *curve.Curve
	Model               *hullwhite.Model
	MC                  montecarlo.Config
	// MinBondPrice floors simulated bond prices before they are inverted.
	// Zero means 1e-12.
	MinBondPrice float64
}

// AccrualPeriod reports one coupon period.
type AccrualPeriod struct {
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
	Observations   int     `json:"observations"`
	Accrual        float64 `json:"accrual"` // A_i
	YearFraction   float64 `json:"year_fraction"`
	Cashflow       float64 `json:"cashflow"`
	DiscountFactor float64 `json:"discount_factor"`
	PV             float64 `json:"pv"`
}

// RangeAccrualResult is a full Monte Carlo valuation.
type RangeAccrualResult struct {
	PV       float64         `json:"pv"`
	StdError float64         `json:"std_error"`
	Paths    int             `json:"paths"`
	Periods  []AccrualPeriod `json:"periods"`
}

// observation is one fixing: the grid column it reads and the deterministic
// parts of the index bond price P(t, t+δ).
type observation struct {
	col      int
	ratio    float64 // P0(t+δ)/P0(t)
	b        float64 // B(t, t+δ)
	convex   float64 // ½·B²·Var(t)
	invTenor float64 // 1/δ
}

// Price returns the present value of the range accrual leg.
func (s RangeAccrualSwap) Price() (float64, error) {
	res, err := s.Evaluate()
	if err != nil {
		return 0, err
	}
	return res.PV, nil
}

// Evaluate simulates the factor on the union of all observation times and
// returns the PV with per-period accrual fractions and its standard error.
//
// In-range indicators are counted as integers per scenario, so the result is
// identical for any MC.Workers.
func (s RangeAccrualSwap) Evaluate() (RangeAccrualResult, error) {
	s, err := s.withDefaults()
	if err != nil {
		return RangeAccrualResult{}, err
	}

	times := s.Schedule.Times()
	nPeriods := len(times) - 1
	obsTimes := make([][]float64, nPeriods)
	var all []float64
	for i := range nPeriods {
		obsTimes[i] = observationTimes(times[i], times[i+1], s.ObservationsPerYear)
		all = append(all, obsTimes[i]...)
	}
	grid := unionGrid(all)

	paths, err := montecarlo.Simulate(s.Model, grid, s.MC)
	if err != nil {
		return RangeAccrualResult{}, err
	}

	obs := make([][]observation, nPeriods)
	for i := range nPeriods {
		tenor := s.IndexTenor
		if tenor == 0 {
			tenor = times[i+1] - times[i]
		}
		obs[i] = make([]observation, len(obsTimes[i]))
		for k, t := range obsTimes[i] {
			b := s.Model.B(t, t+tenor)
			obs[i][k] = observation{
				col:      gridIndex(grid, t),
				ratio:    s.ProjectionCurve.DiscountFactor(t+tenor) / s.ProjectionCurve.DiscountFactor(t),
				b:        b,
				convex:   0.5 * b * b * s.Model.Variance(t),
				invTenor: 1 / tenor,
			}
		}
	}

	counts, err := s.countInRange(paths, obs)
	if err != nil {
		return RangeAccrualResult{}, err
	}

	res := RangeAccrualResult{Paths: paths.Paths(), Periods: make([]AccrualPeriod, nPeriods)}
	weights := make([]float64, nPeriods) // PV of the period at A_i = 1, per observation
	for i := range nPeriods {
		dt, err := utils.AccrualFraction(times[i], times[i+1], s.DayCount)
		if err != nil {
			return RangeAccrualResult{}, err
		}
		var in int
		for _, row := range counts {
			in += row[i]
		}
		nobs := len(obs[i])
		a := float64(in) / float64(paths.Paths()*nobs)
		df := s.DiscountCurve.DiscountFactor(times[i+1])
		cf := s.Notional * s.Coupon * dt * a

		res.Periods[i] = AccrualPeriod{
			Start:          times[i],
			End:            times[i+1],
			Observations:   nobs,
			Accrual:        a,
			YearFraction:   dt,
			Cashflow:       cf,
			DiscountFactor: df,
			PV:             cf * df,
		}
		res.PV += cf * df
		weights[i] = s.Notional * s.Coupon * dt * df / float64(nobs)
	}

	if res.Paths > 1 {
		pvs := make([]float64, len(counts))
		for p, row := range counts {
			for i, c := range row {
				pvs[p] += weights[i] * float64(c)
			}
		}
		_, sd := stat.MeanStdDev(pvs, nil)
		res.StdError = sd / math.Sqrt(float64(res.Paths))
	}
	return res, nil
}

// countInRange returns, per scenario and period, how many observations fixed
// inside the range.
func (s RangeAccrualSwap) countInRange(paths *montecarlo.PathSet, obs [][]observation) ([][]int, error) {
	n := paths.Paths()
	counts := make([][]int, n)

	workers := s.MC.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, n)
	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			for p := lo; p < hi; p++ {
				row := paths.Row(p)
				c := make([]int, len(obs))
				for i, period := range obs {
					for _, o := range period {
						if l := s.indexRate(o, row[o.col]); s.Lower <= l && l <= s.Upper {
							c[i]++
						}
					}
				}
				counts[p] = c
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

// indexRate is the simply compounded rate (1/P - 1)/δ implied by the
// affine bond price at factor value x.
func (s RangeAccrualSwap) indexRate(o observation, x float64) float64 {
	p := o.ratio * math.Exp(-o.b*x-o.convex)
	p = max(p, s.MinBondPrice)
	return (1/p - 1) * o.invTenor
}

func (s RangeAccrualSwap) withDefaults() (RangeAccrualSwap, error) {
	if s.DiscountCurve == nil || s.ProjectionCurve == nil || s.Model == nil {
		return s, fmt.Errorf("swap.RangeAccrualSwap: nil curve or model: %w", errs.ErrInvalidInput)
	}
	if s.Schedule.IsZero() {
		return s, fmt.Errorf("swap.RangeAccrualSwap: empty schedule: %w", errs.ErrInvalidInput)
	}
	if !finite(s.Notional) || !finite(s.Coupon) {
		return s, fmt.Errorf("swap.RangeAccrualSwap: notional %g, coupon %g: %w", s.Notional, s.Coupon, errs.ErrInvalidInput)
	}
	if math.IsNaN(s.Lower) || math.IsNaN(s.Upper) || s.Lower > s.Upper {
		return s, fmt.Errorf("swap.RangeAccrualSwap: range [%g, %g]: %w", s.Lower, s.Upper, errs.ErrInvalidInput)
	}
	if !finite(s.IndexTenor) || s.IndexTenor < 0 {
		return s, fmt.Errorf("swap.RangeAccrualSwap: index tenor %g: %w", s.IndexTenor, errs.ErrInvalidInput)
	}
	if s.ObservationsPerYear < 0 {
		return s, fmt.Errorf("swap.RangeAccrualSwap: observations per year %d: %w", s.ObservationsPerYear, errs.ErrInvalidInput)
	}
	if s.MC.Paths <= 0 {
		return s, fmt.Errorf("swap.RangeAccrualSwap: paths %d must be positive: %w", s.MC.Paths, errs.ErrInvalidInput)
	}
	if _, err := utils.ParseDayCount(string(s.DayCount)); err != nil {
		return s, err
	}
	if s.ObservationsPerYear == 0 {
		s.ObservationsPerYear = defaultObservationsPerYear
	}
	if !(s.MinBondPrice > 0) {
		s.MinBondPrice = defaultMinBondPrice
	}
	return s, nil
}

// observationTimes returns start + k/perYear for k = 0, 1, ... up to and
// including end. A fixing at time zero is known today and carries no
// optionality, so it is left out of the average; a period too short to hold
// any other fixing observes at its end.
func observationTimes(start, end float64, perYear int) []float64 {
	step := 1 / float64(perYear)
	var out []float64
	for k := 0; ; k++ {
		t := start + float64(k)*step
		if t >= end+observationTolerance {
			break
		}
		if t <= observationTolerance {
			continue
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		out = append(out, end)
	}
	return out
}

// unionGrid sorts times and merges those closer than observationTolerance.
func unionGrid(times []float64) []float64 {
	sorted := slices.Clone(times)
	slices.Sort(sorted)
	out := sorted[:0]
	for _, t := range sorted {
		if len(out) > 0 && t-out[len(out)-1] < observationTolerance {
			continue
		}
		out = append(out, t)
	}
	return out
}

func gridIndex(grid []float64, t float64) int {
	return sort.SearchFloat64s(grid, t-observationTolerance)
}
