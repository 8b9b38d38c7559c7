// Package hullwhite implements the one-factor Hull-White short-rate model
// dr = (θ(t) - a·r)dt + σ·dW: closed-form analytics and a recombining rate
// tree for backward induction.
package hullwhite

import (
	"fmt"
	"math"

	"github.com/meenmo/rateslib/errs"
)

// Model holds the mean-reversion speed a and the short-rate volatility σ.
type Model struct {
	a     float64
	sigma float64
}

// New validates and builds a model. a may be zero (no mean reversion);
// σ must be strictly positive.
func New(a, sigma float64) (*Model, error) {
	if math.IsNaN(a) || math.IsInf(a, 0) || a < 0 {
		return nil, fmt.Errorf("hullwhite.New: mean reversion %g: %w", a, errs.ErrInvalidInput)
	}
	if math.IsNaN(sigma) || math.IsInf(sigma, 0) || sigma < 0 {
		return nil, fmt.Errorf("hullwhite.New: sigma %g: %w", sigma, errs.ErrInvalidInput)
	}
	if sigma == 0 {
		return nil, fmt.Errorf("hullwhite.New: sigma is zero: %w", errs.ErrDegenerateParameter)
	}
	return &Model{a: a, sigma: sigma}, nil
}

func (m *Model) A() float64     { return m.a }
func (m *Model) Sigma() float64 { return m.sigma }

// B returns (1 - exp(-a(T-t)))/a, or T-t when a is zero.
func (m *Model) B(t, T float64) float64 {
	tau := T - t
	if m.a == 0 {
		return tau
	}
	return -math.Expm1(-m.a*tau) / m.a
}

// Variance returns Var[r(t)] = σ²(1 - exp(-2at))/(2a), or σ²t when a is zero.
func (m *Model) Variance(t float64) float64 {
	s2 := m.sigma * m.sigma
	if m.a == 0 {
		return s2 * t
	}
	return s2 * -math.Expm1(-2*m.a*t) / (2 * m.a)
}

// Decay is the OU autoregression coefficient exp(-a·dt) over one step.
func (m *Model) Decay(dt float64) float64 {
	return math.Exp(-m.a * dt)
}

// StepStdDev is the standard deviation of the exact OU innovation over dt.
func (m *Model) StepStdDev(dt float64) float64 {
	if m.a == 0 {
		return m.sigma * math.Sqrt(dt)
	}
	return math.Sqrt(m.Variance(dt))
}

// BondPrice is the affine zero-coupon price P(t,T) given the centred factor x
// at t and the initial curve's discount factors p0t = P(0,t), p0T = P(0,T):
//
//	P(t,T) = p0T/p0t · exp(-B(t,T)·x - ½·B(t,T)²·Var(t))
func (m *Model) BondPrice(p0t, p0T, t, T, x float64) float64 {
	b := m.B(t, T)
	return p0T / p0t * math.Exp(-b*x-0.5*b*b*m.Variance(t))
}
