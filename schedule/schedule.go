// Package schedule holds payment/observation time grids expressed in years
// from the valuation date.
package schedule

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/meenmo/rateslib/calendar"
	"github.com/meenmo/rateslib/errs"
	"github.com/meenmo/rateslib/utils"
)

// timeTolerance absorbs floating-point drift when matching year times.
const timeTolerance = 1e-10

// Schedule is an ordered set of payment times, strictly increasing and starting at 0.
type Schedule struct {
	times []float64
}

// New validates and copies times.
func New(times []float64) (Schedule, error) {
	if len(times) < 2 {
		return Schedule{}, fmt.Errorf("schedule.New: need at least 2 times, got %d: %w", len(times), errs.ErrInvalidInput)
	}
	if times[0] != 0 {
		return Schedule{}, fmt.Errorf("schedule.New: first time must be 0, got %g: %w", times[0], errs.ErrInvalidInput)
	}
	for i, t := range times {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return Schedule{}, fmt.Errorf("schedule.New: time %d is not finite: %w", i, errs.ErrInvalidInput)
		}
		if i > 0 && t <= times[i-1] {
			return Schedule{}, fmt.Errorf("schedule.New: times not strictly increasing at %d (%g <= %g): %w", i, t, times[i-1], errs.ErrInvalidInput)
		}
	}
	return Schedule{times: slices.Clone(times)}, nil
}

// Regular builds 0, δ, 2δ, ... up to maturity, with a short final stub when
// maturity is not a whole number of periods.
func Regular(maturity float64, f Frequency) (Schedule, error) {
	if !f.valid() {
		return Schedule{}, fmt.Errorf("schedule.Regular: unsupported frequency %d: %w", int(f), errs.ErrInvalidInput)
	}
	if !(maturity > 0) || math.IsInf(maturity, 0) {
		return Schedule{}, fmt.Errorf("schedule.Regular: maturity must be positive, got %g: %w", maturity, errs.ErrInvalidInput)
	}
	step := f.YearFraction()
	times := []float64{0}
	for k := 1; ; k++ {
		t := float64(k) * step
		if t >= maturity-timeTolerance {
			break
		}
		times = append(times, t)
	}
	times = append(times, maturity)
	return New(times)
}

// FromDates converts dated payment dates to year times from valuation. The
// valuation date itself becomes time 0; dates on or before valuation are rejected.
func FromDates(valuation time.Time, dates []time.Time, dc utils.DayCount) (Schedule, error) {
	times := make([]float64, 0, len(dates)+1)
	times = append(times, 0)
	for _, d := range dates {
		if !d.After(valuation) {
			return Schedule{}, fmt.Errorf("schedule.FromDates: date %s not after valuation %s: %w",
				d.Format("2006-01-02"), valuation.Format("2006-01-02"), errs.ErrInvalidInput)
		}
		times = append(times, utils.YearFraction(valuation, d, dc))
	}
	return New(times)
}

// Dated rolls forward from effective by f and returns business-day adjusted
// payment dates up to and including maturity. The unadjusted date drives the
// roll so adjustments do not accumulate.
func Dated(effective, maturity time.Time, f Frequency, cal calendar.CalendarID) ([]time.Time, error) {
	if !maturity.After(effective) {
		return nil, fmt.Errorf("schedule.Dated: maturity %s not after effective %s: %w",
			maturity.Format("2006-01-02"), effective.Format("2006-01-02"), errs.ErrInvalidInput)
	}
	if !f.valid() {
		return nil, fmt.Errorf("schedule.Dated: unsupported frequency %d: %w", int(f), errs.ErrInvalidInput)
	}
	var dates []time.Time
	for i := 1; ; i++ {
		next := utils.AddMonth(effective, int(f)*i)
		if !next.Before(maturity) {
			break
		}
		dates = append(dates, calendar.Adjust(cal, next))
	}
	dates = append(dates, calendar.Adjust(cal, maturity))
	return dates, nil
}

// Times returns a copy of the schedule's times.
func (s Schedule) Times() []float64 {
	return slices.Clone(s.times)
}

// Len returns the number of times, including 0.
func (s Schedule) Len() int {
	return len(s.times)
}

// At returns the i-th time.
func (s Schedule) At(i int) float64 {
	return s.times[i]
}

// Maturity returns the last time.
func (s Schedule) Maturity() float64 {
	return s.times[len(s.times)-1]
}

// Periods returns the number of accrual periods.
func (s Schedule) Periods() int {
	return len(s.times) - 1
}

// IsZero reports whether s was never constructed.
func (s Schedule) IsZero() bool {
	return len(s.times) == 0
}

// Contains reports whether t matches a schedule time within tolerance.
func (s Schedule) Contains(t float64) bool {
	i, found := slices.BinarySearch(s.times, t)
	if found {
		return true
	}
	if i < len(s.times) && math.Abs(s.times[i]-t) < timeTolerance {
		return true
	}
	return i > 0 && math.Abs(s.times[i-1]-t) < timeTolerance
}
