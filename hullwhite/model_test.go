package hullwhite

import (
	"math"
	"testing"

	"github.com/meenmo/rateslib/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(0.03, 0)
	require.ErrorIs(t, err, errs.ErrDegenerateParameter)

	for _, p := range [][2]float64{
		{-0.01, 0.01},
		{0.03, -0.01},
		{math.NaN(), 0.01},
		{0.03, math.Inf(1)},
	} {
		_, err := New(p[0], p[1])
		require.ErrorIs(t, err, errs.ErrInvalidInput, "a=%g sigma=%g", p[0], p[1])
	}

	m, err := New(0, 0.01)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.A())
	assert.Equal(t, 0.01, m.Sigma())
}

func TestModel_ZeroMeanReversionLimit(t *testing.T) {
	t.Parallel()

	exact, err := New(0, 0.01)
	require.NoError(t, err)
	near, err := New(1e-8, 0.01)
	require.NoError(t, err)

	for _, tc := range []struct{ t, T float64 }{{0, 1}, {0.5, 2}, {1, 10}, {0, 30}} {
		assert.Equal(t, tc.T-tc.t, exact.B(tc.t, tc.T))
		assert.InDelta(t, exact.B(tc.t, tc.T), near.B(tc.t, tc.T), 1e-6*(tc.T-tc.t))
	}
	for _, tm := range []float64{0.25, 1, 5, 30} {
		assert.InDelta(t, 0.0001*tm, exact.Variance(tm), 1e-18)
		assert.InEpsilon(t, exact.Variance(tm), near.Variance(tm), 1e-6)
		assert.InEpsilon(t, exact.StepStdDev(tm), near.StepStdDev(tm), 1e-6)
	}
}

func TestModel_ClosedForms(t *testing.T) {
	t.Parallel()

	m, err := New(0.03, 0.01)
	require.NoError(t, err)

	assert.InDelta(t, (1-math.Exp(-0.03))/0.03, m.B(0, 1), 1e-15)
	assert.InDelta(t, 0.0001/(2*0.03)*(1-math.Exp(-2*0.03*5)), m.Variance(5), 1e-18)
	assert.InDelta(t, math.Exp(-0.03*0.5), m.Decay(0.5), 1e-16)
	assert.InDelta(t, math.Sqrt(m.Variance(0.5)), m.StepStdDev(0.5), 1e-18)
	assert.Equal(t, 0.0, m.Variance(0))
}

func TestModel_BondPrice(t *testing.T) {
	t.Parallel()

	m, err := New(0.05, 0.01)
	require.NoError(t, err)

	p0t, p0T := math.Exp(-0.03*1), math.Exp(-0.03*3)
	// At t=0 the factor has no variance and the price is the curve's.
	assert.InDelta(t, p0T, m.BondPrice(1, p0T, 0, 3, 0), 1e-15)

	base := m.BondPrice(p0t, p0T, 1, 3, 0)
	assert.Less(t, base, p0T/p0t)
	assert.Less(t, m.BondPrice(p0t, p0T, 1, 3, 0.01), base)
	assert.Greater(t, m.BondPrice(p0t, p0T, 1, 3, -0.01), base)
}
