package utils

import (
	"fmt"
	"time"

	"github.com/meenmo/rateslib/errs"
)

// DayCount names an accrual convention.
type DayCount string

const (
	Act365  DayCount = "ACT/365"
	Act365F DayCount = "ACT/365F"
	Act360  DayCount = "ACT/360"
	Dc30360 DayCount = "30/360"
)

// ParseDayCount maps a convention string to a DayCount. Empty means ACT/365.
func ParseDayCount(s string) (DayCount, error) {
	switch DayCount(s) {
	case "":
		return Act365, nil
	case Act365, Act365F, Act360, Dc30360:
		return DayCount(s), nil
	case "30E/360":
		return Dc30360, nil
	default:
		return "", fmt.Errorf("ParseDayCount: unknown convention %q: %w", s, errs.ErrInvalidInput)
	}
}

// YearFraction computes year fraction between two dates using the specified day count convention.
// Supported conventions: ACT/360, ACT/365F, ACT/365, 30/360 (30E/360 ISDA).
func YearFraction(start, end time.Time, convention DayCount) float64 {
	switch convention {
	case Act360:
		return Days(start, end) / 360.0
	case Dc30360:
		d1 := min(start.Day(), 30)
		d2 := min(end.Day(), 30)
		y1, m1 := start.Year(), int(start.Month())
		y2, m2 := end.Year(), int(end.Month())
		return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
	default:
		return Days(start, end) / 365.0
	}
}

// AccrualFraction converts a period between two year times (ACT/365 axis,
// 1.0 == one year) to the accrual fraction of the given convention.
//
// 30/360 on a year axis has no calendar days to cap, so it is approximated
// by the 365/360 scaling.
func AccrualFraction(t1, t2 float64, convention DayCount) (float64, error) {
	if t2 < t1 {
		return 0, fmt.Errorf("AccrualFraction: end %g before start %g: %w", t2, t1, errs.ErrInvalidInput)
	}
	dt := t2 - t1
	switch convention {
	case "", Act365, Act365F:
		return dt, nil
	case Act360, Dc30360:
		return dt * 365.0 / 360.0, nil
	default:
		return 0, fmt.Errorf("AccrualFraction: unknown convention %q: %w", convention, errs.ErrInvalidInput)
	}
}
