package schedule

import (
	"fmt"
	"strings"

	"github.com/meenmo/rateslib/errs"
)

// Frequency enumerates payment/observation frequencies in months.
type Frequency int

const (
	Annual     Frequency = 12
	SemiAnnual Frequency = 6
	Quarterly  Frequency = 3
	Monthly    Frequency = 1
)

// YearFraction returns the length of one period in years.
func (f Frequency) YearFraction() float64 {
	return float64(f) / 12.0
}

// PerYear returns the number of periods in a year.
func (f Frequency) PerYear() int {
	return 12 / int(f)
}

func (f Frequency) String() string {
	if f == Annual {
		return "1Y"
	}
	return fmt.Sprintf("%dM", int(f))
}

func (f Frequency) valid() bool {
	switch f {
	case Annual, SemiAnnual, Quarterly, Monthly:
		return true
	}
	return false
}

// ParseFrequency accepts tenor labels ("1Y", "12M", "6M", "3M", "1M").
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "1Y", "12M", "ANNUAL":
		return Annual, nil
	case "6M", "SEMIANNUAL":
		return SemiAnnual, nil
	case "3M", "QUARTERLY":
		return Quarterly, nil
	case "1M", "MONTHLY":
		return Monthly, nil
	default:
		return 0, fmt.Errorf("ParseFrequency: unsupported frequency %q: %w", s, errs.ErrInvalidInput)
	}
}
