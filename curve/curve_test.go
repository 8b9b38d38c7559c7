package curve

import (
	"math"
	"testing"

	"github.com/meenmo/rateslib/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testTimes = []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0}
	testRates = []float64{0.02, 0.025, 0.028, 0.030, 0.035, 0.040}
)

func mustCurve(t *testing.T, times, rates []float64) *Curve {
	t.Helper()
	c, err := New(times, rates, "TEST")
	require.NoError(t, err)
	return c
}

func TestZeroRate_ExactAtPillars(t *testing.T) {
	t.Parallel()

	c := mustCurve(t, testTimes, testRates)
	for i, tm := range testTimes {
		assert.Equal(t, testRates[i], c.ZeroRate(tm), "pillar %g", tm)
	}
}

func TestZeroRate_FlatExtrapolation(t *testing.T) {
	t.Parallel()

	c := mustCurve(t, testTimes, testRates)
	assert.Equal(t, 0.02, c.ZeroRate(0))
	assert.Equal(t, 0.02, c.ZeroRate(0.01))
	assert.Equal(t, 0.04, c.ZeroRate(10.5))
	assert.Equal(t, 0.04, c.ZeroRate(50))
}

func TestZeroRate_NoOvershoot(t *testing.T) {
	t.Parallel()

	times := []float64{0, 1, 2, 3, 5, 7}
	rates := []float64{0.03, 0.04, 0.05, 0.02, 0.021, 0.022}
	c := mustCurve(t, times, rates)
	// Interior intervals: both end slopes come from the monotone limiter.
	for i := 1; i+2 < len(times); i++ {
		lo := math.Min(rates[i], rates[i+1])
		hi := math.Max(rates[i], rates[i+1])
		for k := 1; k < 20; k++ {
			tm := times[i] + (times[i+1]-times[i])*float64(k)/20
			r := c.ZeroRate(tm)
			assert.GreaterOrEqual(t, r, lo-1e-15, "t=%g", tm)
			assert.LessOrEqual(t, r, hi+1e-15, "t=%g", tm)
		}
	}
}

func TestNew_TwoPillarsIsLinear(t *testing.T) {
	t.Parallel()

	c := mustCurve(t, []float64{1, 0}, []float64{0.02, 0.01})
	assert.InDelta(t, 0.015, c.ZeroRate(0.5), 1e-15)
	times, rates := c.Pillars()
	assert.Equal(t, []float64{0, 1}, times)
	assert.Equal(t, []float64{0.01, 0.02}, rates)
}

func TestNew_DoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	times := []float64{2, 1, 3}
	rates := []float64{0.02, 0.01, 0.03}
	c := mustCurve(t, times, rates)
	assert.Equal(t, []float64{2, 1, 3}, times)
	assert.Equal(t, []float64{0.02, 0.01, 0.03}, rates)

	got, _ := c.Pillars()
	got[0] = 99
	assert.Equal(t, 0.01, c.ZeroRate(1))
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		times, rates []float64
	}{
		{"length mismatch", []float64{1, 2}, []float64{0.01}},
		{"single pillar", []float64{1}, []float64{0.01}},
		{"duplicate maturity", []float64{1, 1, 2}, []float64{0.01, 0.02, 0.03}},
		{"negative maturity", []float64{-1, 1}, []float64{0.01, 0.02}},
		{"nan rate", []float64{1, 2}, []float64{math.NaN(), 0.02}},
		{"inf maturity", []float64{1, math.Inf(1)}, []float64{0.01, 0.02}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.times, tc.rates, "bad")
			require.ErrorIs(t, err, errs.ErrInvalidInput)
		})
	}
}

func TestDiscountFactor(t *testing.T) {
	t.Parallel()

	c := mustCurve(t, testTimes, testRates)
	assert.Equal(t, 1.0, c.DiscountFactor(0))

	prev := 1.0
	for tm := 0.05; tm <= 15; tm += 0.05 {
		df := c.DiscountFactor(tm)
		assert.Greater(t, df, 0.0)
		assert.Less(t, df, prev, "t=%g", tm)
		prev = df
	}
	assert.InDelta(t, math.Exp(-0.030*2), c.DiscountFactor(2), 1e-15)
}

func TestForwardRate(t *testing.T) {
	t.Parallel()

	c := mustCurve(t, testTimes, testRates)

	f, err := c.ForwardRate(1, 2)
	require.NoError(t, err)
	assert.InDelta(t, (0.030*2-0.028*1)/1, f, 1e-12)

	same, err := c.ForwardRate(3, 3)
	require.NoError(t, err)
	assert.Equal(t, c.ZeroRate(3), same)

	_, err = c.ForwardRate(2, 1)
	require.ErrorIs(t, err, errs.ErrInvalidInput)

	simple, err := c.SimpleForward(1, 2)
	require.NoError(t, err)
	assert.InDelta(t, math.Exp(f)-1, simple, 1e-12)
	_, err = c.SimpleForward(2, 1)
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestForwardRate_RoundTrip(t *testing.T) {
	t.Parallel()

	boot, err := Bootstrap(oisQuotes, "EUR-OIS", quietOptions())
	require.NoError(t, err)

	grid := []float64{0, 0.05, 0.1, 0.3, 0.5, 0.75, 1, 1.5, 2, 3, 4.2, 5, 7, 10, 12.5, 20}
	for _, c := range []*Curve{mustCurve(t, testTimes, testRates), boot} {
		for i, t1 := range grid {
			for _, t2 := range grid[i+1:] {
				f, err := c.ForwardRate(t1, t2)
				require.NoError(t, err)
				want := c.DiscountFactor(t1) * math.Exp(-f*(t2-t1))
				assert.InDelta(t, want, c.DiscountFactor(t2), 1e-14, "%s (%g, %g)", c.Name(), t1, t2)
			}
		}
	}
}

func TestShortRate(t *testing.T) {
	t.Parallel()

	c := mustCurve(t, testTimes, testRates)
	assert.Equal(t, 0.02, c.ShortRate())
	assert.Equal(t, "TEST", c.Name())
}

func TestTenorToYears(t *testing.T) {
	t.Parallel()

	cases := map[string]float64{
		"1W":   7.0 / 365.0,
		"3M":   0.25,
		"18m":  1.5,
		"10Y":  10,
		"30D":  30.0 / 365.0,
		" 2y ": 2,
		"2.5":  2.5,
	}
	for in, want := range cases {
		got, err := TenorToYears(in)
		require.NoError(t, err, in)
		assert.InDelta(t, want, got, 1e-15, in)
	}

	for _, bad := range []string{"", "Y", "xM", "-1Y", "abc"} {
		_, err := TenorToYears(bad)
		require.ErrorIs(t, err, errs.ErrInvalidInput, bad)
	}
}

func TestQuotesFromTenors(t *testing.T) {
	t.Parallel()

	q, err := QuotesFromTenors(map[string]float64{"6M": 0.03, "1Y": 0.031})
	require.NoError(t, err)
	assert.Equal(t, ParQuotes{0.5: 0.03, 1: 0.031}, q)

	_, err = QuotesFromTenors(map[string]float64{"12M": 0.03, "1Y": 0.031})
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}
