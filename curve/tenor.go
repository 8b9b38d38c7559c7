package curve

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/meenmo/rateslib/errs"
)

// TenorToYears converts tenor strings like "1W", "3M", "10Y" to year
// fractions on the ACT/365 axis. A bare number is read as years.
func TenorToYears(tenor string) (float64, error) {
	s := strings.TrimSpace(strings.ToUpper(tenor))
	if s == "" {
		return 0, fmt.Errorf("curve.TenorToYears: empty tenor: %w", errs.ErrInvalidInput)
	}

	var unit float64
	switch s[len(s)-1] {
	case 'D':
		unit = 1.0 / 365.0
	case 'W':
		unit = 7.0 / 365.0
	case 'M':
		unit = 1.0 / 12.0
	case 'Y':
		unit = 1.0
	default:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("curve.TenorToYears: %q: %w", tenor, errs.ErrInvalidInput)
		}
		return v, nil
	}

	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("curve.TenorToYears: %q: %w", tenor, errs.ErrInvalidInput)
	}
	return float64(n) * unit, nil
}

// QuotesFromTenors converts a tenor-keyed quote map ("2Y" -> 0.032) into
// year-keyed par quotes.
func QuotesFromTenors(quotes map[string]float64) (ParQuotes, error) {
	out := make(ParQuotes, len(quotes))
	for k, v := range quotes {
		t, err := TenorToYears(k)
		if err != nil {
			return nil, err
		}
		if _, dup := out[t]; dup {
			return nil, fmt.Errorf("curve.QuotesFromTenors: %q duplicates maturity %g: %w", k, t, errs.ErrInvalidInput)
		}
		out[t] = v
	}
	return out, nil
}
