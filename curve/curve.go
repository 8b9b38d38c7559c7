// Package curve builds zero-coupon curves from pillar rates and bootstraps
// them from par OIS quotes.
package curve

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/interp"

	"github.com/meenmo/rateslib/errs"
)

// Curve maps maturity (years) to a continuously compounded zero rate.
//
// Between pillars the rate follows a monotone piecewise cubic Hermite
// interpolant; outside the pillar range it is flat. A Curve is immutable.
type Curve struct {
	name   string
	times  []float64
	rates  []float64
	interp interp.Predictor
}

type pillar struct {
	t, r float64
}

// New builds a curve from parallel maturities and zero rates. Inputs are
// copied and sorted by maturity.
func New(maturities, zeroRates []float64, name string) (*Curve, error) {
	if len(maturities) != len(zeroRates) {
		return nil, fmt.Errorf("curve.New: %d maturities vs %d rates: %w", len(maturities), len(zeroRates), errs.ErrInvalidInput)
	}
	if len(maturities) < 2 {
		return nil, fmt.Errorf("curve.New: need at least 2 pillars, got %d: %w", len(maturities), errs.ErrInvalidInput)
	}

	pillars := make([]pillar, len(maturities))
	for i := range maturities {
		t, r := maturities[i], zeroRates[i]
		if !isFinite(t) || !isFinite(r) {
			return nil, fmt.Errorf("curve.New: pillar %d (%g, %g) is not finite: %w", i, t, r, errs.ErrInvalidInput)
		}
		if t < 0 {
			return nil, fmt.Errorf("curve.New: negative maturity %g: %w", t, errs.ErrInvalidInput)
		}
		pillars[i] = pillar{t: t, r: r}
	}
	slices.SortFunc(pillars, func(a, b pillar) int { return cmp.Compare(a.t, b.t) })

	c := &Curve{
		name:  name,
		times: make([]float64, len(pillars)),
		rates: make([]float64, len(pillars)),
	}
	for i, p := range pillars {
		if i > 0 && p.t == pillars[i-1].t {
			return nil, fmt.Errorf("curve.New: duplicate maturity %g: %w", p.t, errs.ErrInvalidInput)
		}
		c.times[i] = p.t
		c.rates[i] = p.r
	}

	// Two points: the monotone cubic reduces to the secant.
	var fp interp.FittablePredictor
	if len(c.times) == 2 {
		fp = &interp.PiecewiseLinear{}
	} else {
		fp = &interp.FritschButland{}
	}
	if err := fp.Fit(c.times, c.rates); err != nil {
		return nil, fmt.Errorf("curve.New: fit interpolant: %w", errs.ErrInvalidInput)
	}
	c.interp = fp
	return c, nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Name returns the curve label (e.g. "EUR-OIS").
func (c *Curve) Name() string {
	return c.name
}

// Pillars returns copies of the sorted pillar maturities and rates.
func (c *Curve) Pillars() (times, rates []float64) {
	return slices.Clone(c.times), slices.Clone(c.rates)
}

// ZeroRate returns the interpolated zero rate at t, flat outside the pillars.
func (c *Curve) ZeroRate(t float64) float64 {
	n := len(c.times)
	if t <= c.times[0] {
		return c.rates[0]
	}
	if t >= c.times[n-1] {
		return c.rates[n-1]
	}
	if i := sort.SearchFloat64s(c.times, t); c.times[i] == t {
		return c.rates[i]
	}
	return c.interp.Predict(t)
}

// DiscountFactor returns exp(-r(t)·t), exactly 1 at t = 0.
func (c *Curve) DiscountFactor(t float64) float64 {
	if t == 0 {
		return 1.0
	}
	return math.Exp(-c.ZeroRate(t) * t)
}

// ForwardRate returns the continuously compounded forward between t1 and t2.
// When t1 == t2 it degenerates to the zero rate at t1.
func (c *Curve) ForwardRate(t1, t2 float64) (float64, error) {
	if t2 < t1 {
		return 0, fmt.Errorf("curve.ForwardRate: t2 %g before t1 %g: %w", t2, t1, errs.ErrInvalidInput)
	}
	if t1 == t2 {
		return c.ZeroRate(t1), nil
	}
	df1 := c.DiscountFactor(t1)
	df2 := c.DiscountFactor(t2)
	return -math.Log(df2/df1) / (t2 - t1), nil
}

// SimpleForward returns the simply compounded forward (DF1/DF2 - 1)/(t2 - t1),
// the IBOR-style projection of a period.
func (c *Curve) SimpleForward(t1, t2 float64) (float64, error) {
	if t2 < t1 {
		return 0, fmt.Errorf("curve.SimpleForward: t2 %g before t1 %g: %w", t2, t1, errs.ErrInvalidInput)
	}
	if t1 == t2 {
		return c.ZeroRate(t1), nil
	}
	return (c.DiscountFactor(t1)/c.DiscountFactor(t2) - 1.0) / (t2 - t1), nil
}

// ShortRate is the curve's instantaneous rate at the valuation date, used to
// centre short-rate trees.
func (c *Curve) ShortRate() float64 {
	return c.ZeroRate(0)
}
