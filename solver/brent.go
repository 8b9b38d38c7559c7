// Package solver finds roots of scalar functions inside a bracket without
// derivatives.
package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/meenmo/rateslib/errs"
)

// ErrNoBracket is returned when f(Lower) and f(Upper) share a sign.
var ErrNoBracket = fmt.Errorf("root not bracketed: %w", errs.ErrNumericalFailure)

// Options bounds a bracketed search.
type Options struct {
	Lower         float64
	Upper         float64
	Tolerance     float64 // absolute tolerance on the root
	MaxIterations int
}

// DefaultOptions brackets rates between -5% and 15%.
func DefaultOptions() Options {
	return Options{
		Lower:         -0.05,
		Upper:         0.15,
		Tolerance:     1e-14,
		MaxIterations: 200,
	}
}

// Result describes a converged root.
type Result struct {
	Root       float64
	Residual   float64
	Iterations int
}

// Brent finds x in [opts.Lower, opts.Upper] with f(x) = 0 using Brent's
// method: inverse quadratic interpolation and secant steps, falling back to
// bisection whenever the interpolated step leaves the bracket or shrinks too slowly.
func Brent(f func(float64) float64, opts Options) (Result, error) {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultOptions().MaxIterations
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultOptions().Tolerance
	}
	if !(opts.Lower < opts.Upper) {
		return Result{}, fmt.Errorf("solver.Brent: empty bracket [%g, %g]: %w", opts.Lower, opts.Upper, errs.ErrInvalidInput)
	}

	a, b := opts.Lower, opts.Upper
	fa, fb := f(a), f(b)
	if err := checkFinite(a, fa); err != nil {
		return Result{}, err
	}
	if err := checkFinite(b, fb); err != nil {
		return Result{}, err
	}
	if fa == 0 {
		return Result{Root: a}, nil
	}
	if fb == 0 {
		return Result{Root: b}, nil
	}
	if (fa > 0) == (fb > 0) {
		return Result{}, fmt.Errorf("solver.Brent: f(%g)=%g, f(%g)=%g: %w", a, fa, b, fb, ErrNoBracket)
	}

	c, fc := b, fb
	var d, e float64
	for iter := 1; iter <= opts.MaxIterations; iter++ {
		if (fb > 0) == (fc > 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol := 2*epsilon*math.Abs(b) + 0.5*opts.Tolerance
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol || fb == 0 {
			return Result{Root: b, Residual: fb, Iterations: iter}, nil
		}

		if math.Abs(e) >= tol && math.Abs(fa) > math.Abs(fb) {
			s := fb / fa
			var p, q float64
			if a == c {
				p = 2 * xm * s
				q = 1 - s
			} else {
				q = fa / fc
				r := fb / fc
				p = s * (2*xm*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			if 2*p < math.Min(3*xm*q-math.Abs(tol*q), math.Abs(e*q)) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol {
			b += d
		} else {
			b += math.Copysign(tol, xm)
		}
		fb = f(b)
		if err := checkFinite(b, fb); err != nil {
			return Result{}, err
		}
	}
	return Result{Root: b, Residual: fb, Iterations: opts.MaxIterations},
		fmt.Errorf("solver.Brent: no convergence after %d iterations (x=%g, f=%g): %w",
			opts.MaxIterations, b, fb, errs.ErrNumericalFailure)
}

const epsilon = 2.220446049250313e-16

func checkFinite(x, fx float64) error {
	if math.IsNaN(fx) || math.IsInf(fx, 0) {
		return fmt.Errorf("solver.Brent: f(%g) is not finite: %w", x, errs.ErrNumericalFailure)
	}
	return nil
}

// IsNoBracket reports whether err came from a failed bracket check.
func IsNoBracket(err error) bool {
	return errors.Is(err, ErrNoBracket)
}
