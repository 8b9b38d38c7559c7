package pricing

import (
	"bytes"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/meenmo/rateslib/config"
	"github.com/meenmo/rateslib/errs"
	"github.com/meenmo/rateslib/marketdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(t *testing.T) *Service {
	t.Helper()
	cfg := config.Default()
	cfg.MonteCarlo.Paths = 200
	cfg.MonteCarlo.ObservationsPerYear = 52
	return NewService(cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func ptr[T any](v T) *T { return &v }

func TestBootstrap_ByName(t *testing.T) {
	t.Parallel()

	resp, err := testService(t).Bootstrap(BootstrapRequest{Curve: CurveSpec{Name: marketdata.EUROIS}})
	require.NoError(t, err)
	assert.Equal(t, marketdata.EUROIS, resp.Name)
	require.Len(t, resp.Pillars, 6)
	assert.Equal(t, 0.0, resp.Pillars[0].Maturity)
	require.NotNil(t, resp.Report)
	assert.LessOrEqual(t, resp.Report.MaxAbsNPV, 1e-6)

	// Pillars 0,1,2,3,5,10 plus whole years 4,6,7,8,9.
	assert.Len(t, resp.Samples, 11)
	assert.Equal(t, 1.0, resp.Samples[0].DiscountFactor)
}

func TestBootstrap_TenorQuotesAndSamples(t *testing.T) {
	t.Parallel()

	resp, err := testService(t).Bootstrap(BootstrapRequest{
		Curve:       CurveSpec{Name: "USD-OIS", Quotes: map[string]float64{"6M": 0.045, "1Y": 0.044, "2Y": 0.041}},
		SampleTimes: []float64{0.25, 1.5},
	})
	require.NoError(t, err)
	assert.Equal(t, "USD-OIS", resp.Name)
	require.Len(t, resp.Samples, 2)
	assert.InDelta(t, math.Exp(-resp.Samples[1].ZeroRate*1.5), resp.Samples[1].DiscountFactor, 1e-15)
}

func TestBootstrap_FallbackPolicyFromRequest(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	svc := NewService(config.Default(), nil, slog.New(slog.NewTextHandler(&logs, nil)))
	spec := CurveSpec{Name: "WILD", Quotes: map[string]float64{"1Y": 0.5}}

	resp, err := svc.Bootstrap(BootstrapRequest{Curve: spec})
	require.NoError(t, err)
	assert.True(t, resp.Report.Pillars[0].FellBack)
	assert.Contains(t, logs.String(), "level=WARN")

	_, err = svc.Bootstrap(BootstrapRequest{Curve: spec, Fallback: "error"})
	require.ErrorIs(t, err, errs.ErrNumericalFailure)

	_, err = svc.Bootstrap(BootstrapRequest{Curve: spec, Fallback: "shrug"})
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestBootstrap_CurveErrors(t *testing.T) {
	t.Parallel()

	svc := testService(t)
	_, err := svc.Bootstrap(BootstrapRequest{Curve: CurveSpec{Name: "GBP-SONIA"}})
	require.ErrorIs(t, err, ErrUnknownCurve)
	require.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = svc.Bootstrap(BootstrapRequest{})
	require.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = svc.Bootstrap(BootstrapRequest{Curve: CurveSpec{Quotes: map[string]float64{"2Q": 0.03}}})
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestCallableAndPuttable(t *testing.T) {
	t.Parallel()

	svc := testService(t)
	req := SwapRequest{
		Notional:      1_000_000,
		FixedRate:     0.035,
		Schedule:      ScheduleSpec{Maturity: 5},
		CallTimes:     []float64{1, 2, 3, 4},
		Curve:         CurveSpec{Name: marketdata.EUROIS},
		SolveFairRate: true,
	}
	call, err := svc.Callable(req)
	require.NoError(t, err)
	assert.Equal(t, "callable", call.Kind)
	assert.LessOrEqual(t, call.Decomposition.Option, 1e-9)
	require.NotNil(t, call.FairRate)

	put, err := svc.Puttable(req)
	require.NoError(t, err)
	assert.Equal(t, "puttable", put.Kind)
	assert.GreaterOrEqual(t, put.Decomposition.Option, -1e-9)
	assert.Equal(t, call.Decomposition.Vanilla, put.Decomposition.Vanilla)
}

func TestCallable_ModelOverride(t *testing.T) {
	t.Parallel()

	svc := testService(t)
	req := SwapRequest{
		Notional:  1_000_000,
		FixedRate: 0.035,
		Schedule:  ScheduleSpec{Maturity: 5, Frequency: "6M"},
		Curve:     CurveSpec{Name: marketdata.EUROIS},
		Model:     ModelSpec{Sigma: ptr(0.0)},
	}
	_, err := svc.Callable(req)
	require.ErrorIs(t, err, errs.ErrDegenerateParameter)

	req.Model = ModelSpec{MeanReversion: ptr(-1.0)}
	_, err = svc.Callable(req)
	require.ErrorIs(t, err, errs.ErrInvalidInput)

	req.Model = ModelSpec{}
	req.Schedule = ScheduleSpec{Times: []float64{0, 1, 1}}
	_, err = svc.Callable(req)
	require.ErrorIs(t, err, errs.ErrInvalidInput)

	req.Schedule = ScheduleSpec{Maturity: 5, Frequency: "2W"}
	_, err = svc.Callable(req)
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestRangeAccrual(t *testing.T) {
	t.Parallel()

	svc := testService(t)
	times, rates := marketdata.MockIBORZeros()
	zeros := make([]ZeroPillar, len(times))
	for i := range times {
		zeros[i] = ZeroPillar{Maturity: times[i], Rate: rates[i]}
	}
	req := RangeAccrualRequest{
		Notional:        1_000_000,
		Coupon:          0.05,
		Schedule:        ScheduleSpec{Maturity: 1, Frequency: "3M"},
		IndexTenor:      "3M",
		DiscountCurve:   CurveSpec{Name: marketdata.EUROIS},
		ProjectionCurve: CurveSpec{Name: marketdata.EURIBOR3M, Zeros: zeros},
		Seed:            ptr(uint64(5)),
	}

	always, err := svc.RangeAccrual(req)
	require.NoError(t, err)
	assert.Equal(t, 200, always.Paths)
	assert.Equal(t, uint64(5), always.Seed)
	for _, p := range always.Periods {
		assert.Equal(t, 1.0, p.Accrual)
	}

	req.Lower, req.Upper = ptr(0.02), ptr(0.04)
	banded, err := svc.RangeAccrual(req)
	require.NoError(t, err)
	assert.LessOrEqual(t, banded.PV, always.PV)

	again, err := svc.RangeAccrual(req)
	require.NoError(t, err)
	assert.Equal(t, banded, again)

	req.Lower, req.Upper = ptr(0.05), ptr(0.01)
	_, err = svc.RangeAccrual(req)
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestDefaultSampleTimes(t *testing.T) {
	t.Parallel()

	got, err := defaultSampleTimes([]float64{0, 2.5, 3}, 100)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 2.5, 3}, got)

	_, err = defaultSampleTimes([]float64{0, 1e9}, 10_000)
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestBootstrap_SampleLimit(t *testing.T) {
	t.Parallel()

	svc := testService(t)
	_, err := svc.Bootstrap(BootstrapRequest{Curve: CurveSpec{Zeros: []ZeroPillar{{Maturity: 1, Rate: 0.03}, {Maturity: 1e7, Rate: 0.03}}}})
	require.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = svc.Bootstrap(BootstrapRequest{
		Curve:       CurveSpec{Name: marketdata.EUROIS},
		SampleTimes: make([]float64, svc.cfg.Bootstrap.MaxSamples+1),
	})
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestRangeAccrual_SimulationLimits(t *testing.T) {
	t.Parallel()

	svc := testService(t)
	req := RangeAccrualRequest{
		Notional:        1_000_000,
		Coupon:          0.05,
		Schedule:        ScheduleSpec{Maturity: 1, Frequency: "3M"},
		DiscountCurve:   CurveSpec{Name: marketdata.EUROIS},
		ProjectionCurve: CurveSpec{Name: marketdata.EURIBOR3M},
	}
	lim := svc.cfg.MonteCarlo

	big := req
	big.Paths = lim.MaxPaths + 1
	_, err := svc.RangeAccrual(big)
	require.ErrorIs(t, err, errs.ErrInvalidInput)

	dense := req
	dense.ObservationsPerYear = lim.MaxObservationsPerYear + 1
	_, err = svc.RangeAccrual(dense)
	require.ErrorIs(t, err, errs.ErrInvalidInput)

	long := req
	long.Paths = lim.MaxPaths
	long.Schedule = ScheduleSpec{Maturity: 100, Frequency: "1Y"}
	_, err = svc.RangeAccrual(long)
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestBuildSchedule_Dated(t *testing.T) {
	t.Parallel()

	s, err := buildSchedule(ScheduleSpec{
		Effective:   "2025-01-29",
		Termination: "2028-01-29",
		Calendar:    "TARGET",
	})
	require.NoError(t, err)

	// 2028-01-29 is a Saturday and rolls to Monday 2028-01-31.
	want := []float64{0, 1, 2, 1097.0 / 365.0}
	assert.InDeltaSlice(t, want, s.Times(), 1e-12)

	s, err = buildSchedule(ScheduleSpec{
		Valuation:   "2025-04-29",
		Effective:   "2025-01-29",
		Termination: "2027-01-29",
		Frequency:   "6M",
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.Times()[0])
	assert.InDelta(t, 91.0/365.0, s.Times()[1], 1e-12)

	for _, spec := range []ScheduleSpec{
		{Effective: "2025-01-29"},
		{Effective: "2025-01-29", Termination: "2027-01-29", Calendar: "MARS"},
		{Effective: "2025-13-01", Termination: "2027-01-29"},
		{Effective: "2027-01-29", Termination: "2025-01-29"},
	} {
		_, err := buildSchedule(spec)
		assert.ErrorIs(t, err, errs.ErrInvalidInput, "%+v", spec)
	}
}
