// Package pricing turns requests into curves, models and prices. The CLI and
// the HTTP server share it.
package pricing

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/meenmo/rateslib/calendar"
	"github.com/meenmo/rateslib/config"
	"github.com/meenmo/rateslib/curve"
	"github.com/meenmo/rateslib/errs"
	"github.com/meenmo/rateslib/hullwhite"
	"github.com/meenmo/rateslib/marketdata"
	"github.com/meenmo/rateslib/schedule"
	"github.com/meenmo/rateslib/swap"
	"github.com/meenmo/rateslib/utils"
)

// ErrUnknownCurve is returned when a curve is referenced by a name the quote
// source does not know.
var ErrUnknownCurve = fmt.Errorf("unknown curve: %w", errs.ErrInvalidInput)

// Service prices requests with a fixed configuration.
type Service struct {
	cfg    config.Config
	quotes marketdata.QuoteSource
	logger *slog.Logger
}

// NewService builds a Service. A nil quotes source serves the bundled quotes;
// a nil logger uses slog.Default().
func NewService(cfg config.Config, quotes marketdata.QuoteSource, logger *slog.Logger) *Service {
	if quotes == nil {
		quotes = marketdata.DefaultSource()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cfg: cfg, quotes: quotes, logger: logger}
}

// Bootstrap calibrates the requested curve and samples it.
func (s *Service) Bootstrap(req BootstrapRequest) (BootstrapResponse, error) {
	cfg := s.cfg
	if req.Fallback != "" {
		cfg.Bootstrap.Fallback = req.Fallback
	}
	c, report, err := s.buildCurve(req.Curve, cfg)
	if err != nil {
		return BootstrapResponse{}, err
	}

	times, rates := c.Pillars()
	resp := BootstrapResponse{
		Name:    c.Name(),
		Pillars: make([]ZeroPillar, len(times)),
		Report:  report,
	}
	for i := range times {
		resp.Pillars[i] = ZeroPillar{Maturity: times[i], Rate: rates[i]}
	}

	samples := req.SampleTimes
	if len(samples) == 0 {
		if samples, err = defaultSampleTimes(times, s.cfg.Bootstrap.MaxSamples); err != nil {
			return BootstrapResponse{}, err
		}
	}
	if err := checkLimit("pricing.Bootstrap: samples", len(samples), s.cfg.Bootstrap.MaxSamples); err != nil {
		return BootstrapResponse{}, err
	}
	for _, t := range samples {
		if math.IsNaN(t) || t < 0 {
			return BootstrapResponse{}, fmt.Errorf("pricing.Bootstrap: sample time %g: %w", t, errs.ErrInvalidInput)
		}
		resp.Samples = append(resp.Samples, CurvePoint{Time: t, ZeroRate: c.ZeroRate(t), DiscountFactor: c.DiscountFactor(t)})
	}
	return resp, nil
}

// Callable prices a callable swap on the Hull-White tree.
func (s *Service) Callable(req SwapRequest) (SwapResponse, error) {
	return s.optionalSwap("callable", req)
}

// Puttable prices a puttable swap on the Hull-White tree.
func (s *Service) Puttable(req SwapRequest) (SwapResponse, error) {
	return s.optionalSwap("puttable", req)
}

// pricer is the tree pricer surface shared by callable and puttable swaps.
type pricer interface {
	Decompose() (swap.Decomposition, error)
	FairRate() (float64, error)
}

func (s *Service) optionalSwap(kind string, req SwapRequest) (SwapResponse, error) {
	start := time.Now()
	c, _, err := s.buildCurve(req.Curve, s.cfg)
	if err != nil {
		return SwapResponse{}, err
	}
	m, err := s.buildModel(req.Model)
	if err != nil {
		return SwapResponse{}, err
	}
	sched, err := buildSchedule(req.Schedule)
	if err != nil {
		return SwapResponse{}, err
	}
	dc, err := utils.ParseDayCount(req.DayCount)
	if err != nil {
		return SwapResponse{}, err
	}

	base := swap.CallableSwap{
		Notional:  req.Notional,
		FixedRate: req.FixedRate,
		Schedule:  sched,
		CallTimes: req.CallTimes,
		DayCount:  dc,
		Curve:     c,
		Model:     m,
	}
	var p pricer = base
	if kind == "puttable" {
		p = swap.PuttableSwap{CallableSwap: base}
	}

	dec, err := p.Decompose()
	if err != nil {
		return SwapResponse{}, err
	}
	resp := SwapResponse{
		Kind:          kind,
		Curve:         c.Name(),
		Notional:      req.Notional,
		FixedRate:     req.FixedRate,
		Decomposition: dec,
	}
	if req.SolveFairRate {
		k, err := p.FairRate()
		if err != nil {
			return SwapResponse{}, err
		}
		resp.FairRate = &k
	}

	s.logger.Info("swap priced",
		"kind", kind,
		"curve", c.Name(),
		"periods", sched.Periods(),
		"calls", len(req.CallTimes),
		"total", dec.Total,
		"elapsed", time.Since(start),
	)
	return resp, nil
}

// RangeAccrual prices a range accrual leg by Monte Carlo.
func (s *Service) RangeAccrual(req RangeAccrualRequest) (RangeAccrualResponse, error) {
	start := time.Now()
	disc, _, err := s.buildCurve(req.DiscountCurve, s.cfg)
	if err != nil {
		return RangeAccrualResponse{}, err
	}
	proj, _, err := s.buildCurve(req.ProjectionCurve, s.cfg)
	if err != nil {
		return RangeAccrualResponse{}, err
	}
	m, err := s.buildModel(req.Model)
	if err != nil {
		return RangeAccrualResponse{}, err
	}
	sched, err := buildSchedule(req.Schedule)
	if err != nil {
		return RangeAccrualResponse{}, err
	}
	dc, err := utils.ParseDayCount(req.DayCount)
	if err != nil {
		return RangeAccrualResponse{}, err
	}

	var tenor float64
	if req.IndexTenor != "" {
		if tenor, err = curve.TenorToYears(req.IndexTenor); err != nil {
			return RangeAccrualResponse{}, err
		}
	}

	mc := s.cfg.MonteCarloOptions()
	if req.Paths > 0 {
		mc.Paths = req.Paths
	}
	if req.Seed != nil {
		mc.Seed = *req.Seed
	}
	obsPerYear := s.cfg.MonteCarlo.ObservationsPerYear
	if req.ObservationsPerYear > 0 {
		obsPerYear = req.ObservationsPerYear
	}
	if err := s.checkSimulationSize(mc.Paths, obsPerYear, sched); err != nil {
		return RangeAccrualResponse{}, err
	}

	ra := swap.RangeAccrualSwap{
		Notional:            req.Notional,
		Coupon:              req.Coupon,
		Lower:               math.Inf(-1),
		Upper:               math.Inf(1),
		IndexTenor:          tenor,
		Schedule:            sched,
		ObservationsPerYear: obsPerYear,
		DayCount:            dc,
		DiscountCurve:       disc,
		ProjectionCurve:     proj,
		Model:               m,
		MC:                  mc,
		MinBondPrice:        s.cfg.MonteCarlo.MinBondPrice,
	}
	if req.Lower != nil {
		ra.Lower = *req.Lower
	}
	if req.Upper != nil {
		ra.Upper = *req.Upper
	}

	res, err := ra.Evaluate()
	if err != nil {
		return RangeAccrualResponse{}, err
	}
	s.logger.Info("range accrual priced",
		"paths", res.Paths,
		"seed", mc.Seed,
		"periods", len(res.Periods),
		"pv", res.PV,
		"std_error", res.StdError,
		"elapsed", time.Since(start),
	)
	return RangeAccrualResponse{
		PV:       res.PV,
		StdError: res.StdError,
		Paths:    res.Paths,
		Seed:     mc.Seed,
		Periods:  res.Periods,
	}, nil
}

// buildCurve resolves a CurveSpec. The report is nil for curves built from
// zero pillars.
func (s *Service) buildCurve(spec CurveSpec, cfg config.Config) (*curve.Curve, *curve.BootstrapReport, error) {
	if len(spec.Zeros) > 0 {
		times := make([]float64, len(spec.Zeros))
		rates := make([]float64, len(spec.Zeros))
		for i, z := range spec.Zeros {
			times[i], rates[i] = z.Maturity, z.Rate
		}
		c, err := curve.New(times, rates, spec.Name)
		return c, nil, err
	}

	var quotes curve.ParQuotes
	switch {
	case len(spec.Quotes) > 0:
		q, err := curve.QuotesFromTenors(spec.Quotes)
		if err != nil {
			return nil, nil, err
		}
		quotes = q
	case spec.Name != "":
		q, ok := s.quotes.ParQuotes(spec.Name)
		if !ok {
			return nil, nil, fmt.Errorf("pricing: curve %q: %w", spec.Name, ErrUnknownCurve)
		}
		quotes = q
	default:
		return nil, nil, fmt.Errorf("pricing: curve needs zeros, quotes or a name: %w", errs.ErrInvalidInput)
	}

	opts, err := cfg.BootstrapOptions(s.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("pricing: %w", err)
	}
	c, report, err := curve.BootstrapWithReport(quotes.Sorted(), spec.Name, opts)
	if err != nil {
		return nil, nil, err
	}
	return c, &report, nil
}

func (s *Service) buildModel(spec ModelSpec) (*hullwhite.Model, error) {
	a, sigma := s.cfg.Model.MeanReversion, s.cfg.Model.Sigma
	if spec.MeanReversion != nil {
		a = *spec.MeanReversion
	}
	if spec.Sigma != nil {
		sigma = *spec.Sigma
	}
	return hullwhite.New(a, sigma)
}

func buildSchedule(spec ScheduleSpec) (schedule.Schedule, error) {
	if len(spec.Times) > 0 {
		return schedule.New(spec.Times)
	}
	freq := spec.Frequency
	if freq == "" {
		freq = "1Y"
	}
	f, err := schedule.ParseFrequency(freq)
	if err != nil {
		return schedule.Schedule{}, err
	}
	if spec.Effective == "" && spec.Termination == "" {
		return schedule.Regular(spec.Maturity, f)
	}
	return datedSchedule(spec, f)
}

func datedSchedule(spec ScheduleSpec, f schedule.Frequency) (schedule.Schedule, error) {
	effective, err := parseDate("effective", spec.Effective)
	if err != nil {
		return schedule.Schedule{}, err
	}
	termination, err := parseDate("termination", spec.Termination)
	if err != nil {
		return schedule.Schedule{}, err
	}
	valuation := effective
	if spec.Valuation != "" {
		if valuation, err = parseDate("valuation", spec.Valuation); err != nil {
			return schedule.Schedule{}, err
		}
	}
	cal, err := calendar.Parse(spec.Calendar)
	if err != nil {
		return schedule.Schedule{}, err
	}
	dates, err := schedule.Dated(effective, termination, f, cal)
	if err != nil {
		return schedule.Schedule{}, err
	}
	return schedule.FromDates(valuation, dates, utils.Act365)
}

func parseDate(field, s string) (time.Time, error) {
	d, err := utils.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule %s %q: %w", field, s, errs.ErrInvalidInput)
	}
	return d, nil
}

// checkSimulationSize rejects requests whose factor matrix would exceed the
// configured bounds. The grid holds at most maturity·obsPerYear points plus
// one per schedule date.
func (s *Service) checkSimulationSize(paths, obsPerYear int, sched schedule.Schedule) error {
	lim := s.cfg.MonteCarlo
	if err := checkLimit("pricing.RangeAccrual: paths", paths, lim.MaxPaths); err != nil {
		return err
	}
	if err := checkLimit("pricing.RangeAccrual: observations per year", obsPerYear, lim.MaxObservationsPerYear); err != nil {
		return err
	}
	if lim.MaxGridCells <= 0 {
		return nil
	}
	columns := math.Ceil(sched.Maturity()*float64(obsPerYear)) + float64(sched.Len())
	if cells := float64(paths) * columns; cells > float64(lim.MaxGridCells) {
		return fmt.Errorf("pricing.RangeAccrual: %d paths over %.0f grid points exceed %d cells: %w",
			paths, columns, lim.MaxGridCells, errs.ErrInvalidInput)
	}
	return nil
}

// checkLimit fails when got exceeds a positive limit.
func checkLimit(what string, got, limit int) error {
	if limit > 0 && got > limit {
		return fmt.Errorf("%s %d above limit %d: %w", what, got, limit, errs.ErrInvalidInput)
	}
	return nil
}

// defaultSampleTimes returns the pillars plus every whole year up to the
// last pillar, refusing spans that would produce more than limit points.
func defaultSampleTimes(pillars []float64, limit int) ([]float64, error) {
	last := pillars[len(pillars)-1]
	if limit > 0 && last+float64(len(pillars)) > float64(limit) {
		return nil, fmt.Errorf("pricing.Bootstrap: last pillar %gY gives more than %d samples: %w", last, limit, errs.ErrInvalidInput)
	}
	out := slices.Clone(pillars)
	for y := 1.0; y <= last; y++ {
		out = append(out, y)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}
