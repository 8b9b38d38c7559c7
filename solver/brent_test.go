package solver

import (
	"math"
	"testing"

	"github.com/meenmo/rateslib/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrent_Sqrt2(t *testing.T) {
	t.Parallel()

	res, err := Brent(func(x float64) float64 { return x*x - 2 }, Options{Lower: 0, Upper: 2, Tolerance: 1e-14})
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt2, res.Root, 1e-13)
	assert.Greater(t, res.Iterations, 0)
}

func TestBrent_RateBracket(t *testing.T) {
	t.Parallel()

	// Continuously compounded rate reproducing a 0.9 discount factor at 3Y.
	f := func(r float64) float64 { return math.Exp(-3*r) - 0.9 }
	res, err := Brent(f, DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, -math.Log(0.9)/3, res.Root, 1e-13)
}

func TestBrent_RootAtEndpoint(t *testing.T) {
	t.Parallel()

	res, err := Brent(func(x float64) float64 { return x - 1 }, Options{Lower: 1, Upper: 3})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Root)
}

func TestBrent_NoBracket(t *testing.T) {
	t.Parallel()

	_, err := Brent(func(x float64) float64 { return x*x + 1 }, DefaultOptions())
	require.ErrorIs(t, err, ErrNoBracket)
	require.ErrorIs(t, err, errs.ErrNumericalFailure)
	assert.True(t, IsNoBracket(err))
}

func TestBrent_InvalidBracket(t *testing.T) {
	t.Parallel()

	_, err := Brent(func(x float64) float64 { return x }, Options{Lower: 1, Upper: 1})
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestBrent_NonFinite(t *testing.T) {
	t.Parallel()

	_, err := Brent(func(x float64) float64 { return math.NaN() }, DefaultOptions())
	require.ErrorIs(t, err, errs.ErrNumericalFailure)
}
