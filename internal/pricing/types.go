package pricing

import (
	"github.com/meenmo/rateslib/curve"
	"github.com/meenmo/rateslib/swap"
)

// ZeroPillar is a (maturity, zero rate) pair given directly.
type ZeroPillar struct {
	Maturity float64 `json:"maturity" yaml:"maturity"`
	Rate     float64 `json:"rate" yaml:"rate"`
}

// CurveSpec selects a curve. Exactly one source is used, in order: Zeros
// (built directly), Quotes (bootstrapped; keys are tenors such as "2Y"), or
// Name alone (bundled quotes of that name, bootstrapped).
type CurveSpec struct {
	Name   string             `json:"name" yaml:"name"`
	Quotes map[string]float64 `json:"quotes,omitempty" yaml:"quotes,omitempty"`
	Zeros  []ZeroPillar       `json:"zeros,omitempty" yaml:"zeros,omitempty"`
}

// ModelSpec overrides the configured Hull-White parameters.
type ModelSpec struct {
	MeanReversion *float64 `json:"mean_reversion,omitempty" yaml:"mean_reversion,omitempty"`
	Sigma         *float64 `json:"sigma,omitempty" yaml:"sigma,omitempty"`
}

// ScheduleSpec gives explicit year times, a maturity and frequency ("1Y",
// "6M", "3M", "1M"; default "1Y"), or dates. With Effective and Termination
// set, payment dates roll from Effective on Calendar and are converted to
// ACT/365 year times from Valuation (default Effective).
type ScheduleSpec struct {
	Times     []float64 `json:"times,omitempty" yaml:"times,omitempty"`
	Maturity  float64   `json:"maturity,omitempty" yaml:"maturity,omitempty"`
	Frequency string    `json:"frequency,omitempty" yaml:"frequency,omitempty"`

	Valuation   string `json:"valuation,omitempty" yaml:"valuation,omitempty"` // YYYY-MM-DD
	Effective   string `json:"effective,omitempty" yaml:"effective,omitempty"`
	Termination string `json:"termination,omitempty" yaml:"termination,omitempty"`
	Calendar    string `json:"calendar,omitempty" yaml:"calendar,omitempty"`
}

// BootstrapRequest calibrates a curve and samples it.
type BootstrapRequest struct {
	Curve    CurveSpec `json:"curve" yaml:"curve"`
	Fallback string    `json:"fallback,omitempty" yaml:"fallback,omitempty"`
	// SampleTimes are reported with zero rate and discount factor. Empty
	// samples every pillar and each whole year to the last pillar.
	SampleTimes []float64 `json:"sample_times,omitempty" yaml:"sample_times,omitempty"`
}

// CurvePoint is one sampled curve value.
type CurvePoint struct {
	Time           float64 `json:"time"`
	ZeroRate       float64 `json:"zero_rate"`
	DiscountFactor float64 `json:"discount_factor"`
}

// BootstrapResponse carries the calibrated curve.
type BootstrapResponse struct {
	Name    string                 `json:"name"`
	Pillars []ZeroPillar           `json:"pillars"`
	Report  *curve.BootstrapReport `json:"report,omitempty"`
	Samples []CurvePoint           `json:"samples"`
}

// SwapRequest prices a callable or puttable swap.
type SwapRequest struct {
	Notional      float64      `json:"notional" yaml:"notional"`
	FixedRate     float64      `json:"fixed_rate" yaml:"fixed_rate"`
	Schedule      ScheduleSpec `json:"schedule" yaml:"schedule"`
	CallTimes     []float64    `json:"call_times,omitempty" yaml:"call_times,omitempty"`
	DayCount      string       `json:"day_count,omitempty" yaml:"day_count,omitempty"`
	Curve         CurveSpec    `json:"curve" yaml:"curve"`
	Model         ModelSpec    `json:"model,omitempty" yaml:"model,omitempty"`
	SolveFairRate bool         `json:"solve_fair_rate,omitempty" yaml:"solve_fair_rate,omitempty"`
}

// SwapResponse is the tree valuation of an optional swap.
type SwapResponse struct {
	Kind          string             `json:"kind"` // callable | puttable
	Curve         string             `json:"curve"`
	Notional      float64            `json:"notional"`
	FixedRate     float64            `json:"fixed_rate"`
	Decomposition swap.Decomposition `json:"decomposition"`
	FairRate      *float64           `json:"fair_rate,omitempty"`
}

// RangeAccrualRequest prices a range accrual leg. Nil bounds are unbounded.
type RangeAccrualRequest struct {
	Notional            float64      `json:"notional" yaml:"notional"`
	Coupon              float64      `json:"coupon" yaml:"coupon"`
	Lower               *float64     `json:"lower,omitempty" yaml:"lower,omitempty"`
	Upper               *float64     `json:"upper,omitempty" yaml:"upper,omitempty"`
	IndexTenor          string       `json:"index_tenor,omitempty" yaml:"index_tenor,omitempty"`
	Schedule            ScheduleSpec `json:"schedule" yaml:"schedule"`
	ObservationsPerYear int          `json:"observations_per_year,omitempty" yaml:"observations_per_year,omitempty"`
	DayCount            string       `json:"day_count,omitempty" yaml:"day_count,omitempty"`
	DiscountCurve       CurveSpec    `json:"discount_curve" yaml:"discount_curve"`
	ProjectionCurve     CurveSpec    `json:"projection_curve" yaml:"projection_curve"`
	Model               ModelSpec    `json:"model,omitempty" yaml:"model,omitempty"`
	Paths               int          `json:"paths,omitempty" yaml:"paths,omitempty"`
	Seed                *uint64      `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// RangeAccrualResponse is the Monte Carlo valuation of a range accrual leg.
type RangeAccrualResponse struct {
	PV       float64              `json:"pv"`
	StdError float64              `json:"std_error"`
	Paths    int                  `json:"paths"`
	Seed     uint64               `json:"seed"`
	Periods  []swap.AccrualPeriod `json:"periods"`
}
