package curve

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/meenmo/rateslib/errs"
	"github.com/meenmo/rateslib/solver"
)

// stubTolerance decides whether a maturity is a whole number of years.
const stubTolerance = 1e-12

// Quote is a par OIS swap rate (decimal) for a maturity in years.
type Quote struct {
	Maturity float64 `json:"maturity" yaml:"maturity"`
	Rate     float64 `json:"rate" yaml:"rate"`
}

// ParQuotes maps maturity (years) to par rate (decimal).
type ParQuotes map[float64]float64

// Sorted returns the quotes ordered by maturity.
func (q ParQuotes) Sorted() []Quote {
	out := make([]Quote, 0, len(q))
	for t, r := range q {
		out = append(out, Quote{Maturity: t, Rate: r})
	}
	slices.SortFunc(out, func(a, b Quote) int { return cmp.Compare(a.Maturity, b.Maturity) })
	return out
}

// FallbackPolicy decides what happens to a pillar whose root is not bracketed.
type FallbackPolicy int

const (
	// FallbackMarketRate uses the quoted par rate as the pillar zero rate and
	// logs a warning.
	FallbackMarketRate FallbackPolicy = iota
	// FallbackError fails the bootstrap.
	FallbackError
)

func (p FallbackPolicy) String() string {
	switch p {
	case FallbackMarketRate:
		return "market-rate"
	case FallbackError:
		return "error"
	default:
		return fmt.Sprintf("FallbackPolicy(%d)", int(p))
	}
}

// ParseFallbackPolicy accepts "market-rate" (or "") and "error".
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch s {
	case "", "market-rate", "market_rate":
		return FallbackMarketRate, nil
	case "error":
		return FallbackError, nil
	}
	return 0, fmt.Errorf("curve.ParseFallbackPolicy: %q: %w", s, errs.ErrInvalidInput)
}

// BootstrapOptions tunes Bootstrap. The zero value is usable.
type BootstrapOptions struct {
	Solver   solver.Options
	Fallback FallbackPolicy
	// RefineSweeps caps the Gauss-Seidel passes run after the sequential
	// pass. Zero means the default; negative disables refinement.
	RefineSweeps    int
	RefineTolerance float64
	Logger          *slog.Logger
}

// DefaultBootstrapOptions returns the options used when fields are left zero.
func DefaultBootstrapOptions() BootstrapOptions {
	return BootstrapOptions{
		Solver:          solver.DefaultOptions(),
		Fallback:        FallbackMarketRate,
		RefineSweeps:    25,
		RefineTolerance: 1e-12,
	}
}

func (o BootstrapOptions) withDefaults() BootstrapOptions {
	def := DefaultBootstrapOptions()
	if o.Solver == (solver.Options{}) {
		o.Solver = def.Solver
	}
	if o.RefineSweeps == 0 {
		o.RefineSweeps = def.RefineSweeps
	}
	if o.RefineTolerance <= 0 {
		o.RefineTolerance = def.RefineTolerance
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// PillarReport describes how one quote was calibrated.
type PillarReport struct {
	Maturity   float64 `json:"maturity"`
	MarketRate float64 `json:"market_rate"`
	ZeroRate   float64 `json:"zero_rate"`
	NPV        float64 `json:"npv"` // on the final curve, per unit notional
	Iterations int     `json:"iterations"`
	FellBack   bool    `json:"fell_back"`
}

// BootstrapReport summarises a bootstrap run.
type BootstrapReport struct {
	Pillars   []PillarReport `json:"pillars"`
	Sweeps    int            `json:"sweeps"`
	MaxAbsNPV float64        `json:"max_abs_npv"`
}

// Bootstrap builds a zero curve whose discount factors reprice every par
// quote to zero NPV.
func Bootstrap(quotes ParQuotes, name string, opts BootstrapOptions) (*Curve, error) {
	c, _, err := BootstrapWithReport(quotes.Sorted(), name, opts)
	return c, err
}

// BootstrapWithReport is Bootstrap with per-pillar diagnostics.
//
// Pillars are solved in maturity order; the t=0 pillar is seeded with the
// first quote's rate. Every candidate is priced on a fresh curve built from
// the pillars solved so far, so no curve is ever modified in place. Since a
// monotone cubic's slope at a pillar depends on its neighbours, a pillar
// added later shifts the interpolated rates between earlier pillars. The
// sequential pass is therefore followed by Gauss-Seidel sweeps that re-solve
// each pillar on the full set until every quote reprices.
func BootstrapWithReport(quotes []Quote, name string, opts BootstrapOptions) (*Curve, BootstrapReport, error) {
	opts = opts.withDefaults()
	qs, err := validateQuotes(quotes)
	if err != nil {
		return nil, BootstrapReport{}, err
	}

	times := make([]float64, 0, len(qs)+1)
	rates := make([]float64, 0, len(qs)+1)
	times = append(times, 0)
	rates = append(rates, qs[0].Rate)

	report := BootstrapReport{Pillars: make([]PillarReport, len(qs))}
	for i, q := range qs {
		times = append(times, q.Maturity)
		rates = append(rates, q.Rate)

		pr, err := solvePillar(times, rates, len(times)-1, q, name, opts)
		if err != nil {
			return nil, BootstrapReport{}, err
		}
		rates[len(rates)-1] = pr.ZeroRate
		report.Pillars[i] = pr
	}

	c, err := New(times, rates, name)
	if err != nil {
		return nil, BootstrapReport{}, err
	}

	for sweep := 1; sweep <= opts.RefineSweeps; sweep++ {
		if maxAbsNPV(c, qs, report.Pillars) <= opts.RefineTolerance {
			break
		}
		report.Sweeps = sweep
		for i, q := range qs {
			if report.Pillars[i].FellBack {
				continue
			}
			pr, err := solvePillar(times, rates, i+1, q, name, opts)
			if err != nil {
				return nil, BootstrapReport{}, err
			}
			// A pillar that bracketed once but not on the refined curve keeps
			// its previous value.
			if pr.FellBack {
				continue
			}
			rates[i+1] = pr.ZeroRate
			report.Pillars[i].Iterations += pr.Iterations
		}
		if c, err = New(times, rates, name); err != nil {
			return nil, BootstrapReport{}, err
		}
	}

	for i, q := range qs {
		report.Pillars[i].ZeroRate = rates[i+1]
		report.Pillars[i].NPV = SwapNPV(c, q.Maturity, q.Rate)
		report.MaxAbsNPV = max(report.MaxAbsNPV, math.Abs(report.Pillars[i].NPV))
	}
	opts.Logger.Debug("curve bootstrapped",
		"curve", name,
		"pillars", len(qs),
		"sweeps", report.Sweeps,
		"max_abs_npv", report.MaxAbsNPV,
	)
	return c, report, nil
}

func validateQuotes(quotes []Quote) ([]Quote, error) {
	if len(quotes) == 0 {
		return nil, fmt.Errorf("curve.Bootstrap: no quotes: %w", errs.ErrInvalidInput)
	}
	qs := slices.Clone(quotes)
	slices.SortFunc(qs, func(a, b Quote) int { return cmp.Compare(a.Maturity, b.Maturity) })
	for i, q := range qs {
		if !isFinite(q.Maturity) || q.Maturity <= 0 {
			return nil, fmt.Errorf("curve.Bootstrap: maturity %g must be positive: %w", q.Maturity, errs.ErrInvalidInput)
		}
		if !isFinite(q.Rate) {
			return nil, fmt.Errorf("curve.Bootstrap: rate %g at %gY is not finite: %w", q.Rate, q.Maturity, errs.ErrInvalidInput)
		}
		if i > 0 && q.Maturity == qs[i-1].Maturity {
			return nil, fmt.Errorf("curve.Bootstrap: duplicate maturity %g: %w", q.Maturity, errs.ErrInvalidInput)
		}
	}
	return qs, nil
}

// solvePillar finds the zero rate at index idx of the pillar set that
// reprices q, holding every other pillar fixed. times and rates are read,
// never written.
func solvePillar(times, rates []float64, idx int, q Quote, name string, opts BootstrapOptions) (PillarReport, error) {
	trial := slices.Clone(rates)
	var buildErr error
	objective := func(r float64) float64 {
		trial[idx] = r
		c, err := New(times, trial, name)
		if err != nil {
			buildErr = err
			return math.NaN()
		}
		return SwapNPV(c, q.Maturity, q.Rate)
	}

	res, err := solver.Brent(objective, opts.Solver)
	if buildErr != nil {
		return PillarReport{}, buildErr
	}
	pr := PillarReport{Maturity: q.Maturity, MarketRate: q.Rate}
	switch {
	case err == nil:
		pr.ZeroRate = res.Root
		pr.Iterations = res.Iterations
		return pr, nil
	case errors.Is(err, errs.ErrNumericalFailure) && opts.Fallback == FallbackMarketRate:
		opts.Logger.Warn("bootstrap root not bracketed, using market rate",
			"curve", name,
			"maturity", q.Maturity,
			"market_rate", q.Rate,
			"lower", opts.Solver.Lower,
			"upper", opts.Solver.Upper,
		)
		pr.ZeroRate = q.Rate
		pr.FellBack = true
		return pr, nil
	default:
		return PillarReport{}, fmt.Errorf("curve.Bootstrap: pillar %gY: %w", q.Maturity, err)
	}
}

// maxAbsNPV is the largest repricing error over pillars that were solved.
// Pillars that fell back to their market rate never reprice and are skipped.
func maxAbsNPV(c *Curve, qs []Quote, pillars []PillarReport) float64 {
	var m float64
	for i, q := range qs {
		if pillars[i].FellBack {
			continue
		}
		m = max(m, math.Abs(SwapNPV(c, q.Maturity, q.Rate)))
	}
	return m
}

// FixedLegAccruals returns the annual fixed-leg payment times up to maturity
// and their accrual fractions, with a short final stub when maturity is not a
// whole number of years.
func FixedLegAccruals(maturity float64) (payTimes, accruals []float64) {
	if maturity <= 0 {
		return nil, nil
	}
	whole := int(math.Floor(maturity + stubTolerance))
	prev := 0.0
	for k := 1; k <= whole; k++ {
		t := float64(k)
		payTimes = append(payTimes, t)
		accruals = append(accruals, t-prev)
		prev = t
	}
	if maturity-prev > stubTolerance {
		payTimes = append(payTimes, maturity)
		accruals = append(accruals, maturity-prev)
	} else if whole > 0 {
		payTimes[whole-1] = maturity
		accruals[whole-1] = maturity - float64(whole-1)
	}
	return payTimes, accruals
}

// SwapNPV values a par OIS swap per unit notional, receiving floating:
// (1 - DF(T)) - K·Σ Δt_i·DF(t_i).
func SwapNPV(c *Curve, maturity, fixedRate float64) float64 {
	payTimes, accruals := FixedLegAccruals(maturity)
	var annuity float64
	for i, t := range payTimes {
		annuity += accruals[i] * c.DiscountFactor(t)
	}
	return (1.0 - c.DiscountFactor(maturity)) - fixedRate*annuity
}
