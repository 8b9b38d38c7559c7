// Package marketdata bundles static quote sets for development and tests.
package marketdata

import (
	"maps"
	"slices"
	"strings"

	"github.com/meenmo/rateslib/curve"
)

// Curve names of the bundled quote sets.
const (
	EUROIS    = "EUR-OIS"
	EURIBOR3M = "EUR-IBOR-3M"
)

// QuoteSource supplies par quotes by curve name.
type QuoteSource interface {
	ParQuotes(name string) (curve.ParQuotes, bool)
}

// MapQuoteSource is a static map-backed QuoteSource.
type MapQuoteSource struct {
	quotes map[string]curve.ParQuotes
}

// NewMapQuoteSource copies quotes; names are matched case-insensitively.
func NewMapQuoteSource(quotes map[string]curve.ParQuotes) *MapQuoteSource {
	m := &MapQuoteSource{quotes: make(map[string]curve.ParQuotes, len(quotes))}
	for k, v := range quotes {
		m.quotes[strings.ToUpper(k)] = maps.Clone(v)
	}
	return m
}

func (m *MapQuoteSource) ParQuotes(name string) (curve.ParQuotes, bool) {
	q, ok := m.quotes[strings.ToUpper(name)]
	if !ok {
		return nil, false
	}
	return maps.Clone(q), true
}

// Names lists the available curves in sorted order.
func (m *MapQuoteSource) Names() []string {
	return slices.Sorted(maps.Keys(m.quotes))
}

// DefaultSource serves the bundled EUR OIS and IBOR 3M quotes.
func DefaultSource() *MapQuoteSource {
	return NewMapQuoteSource(map[string]curve.ParQuotes{
		EUROIS:    MockOISQuotes(),
		EURIBOR3M: MockIBORQuotes(),
	})
}

// MockOISQuotes returns EUR OIS par rates by maturity in years.
func MockOISQuotes() curve.ParQuotes {
	return curve.ParQuotes{
		1.0:  0.030,
		2.0:  0.032,
		3.0:  0.034,
		5.0:  0.038,
		10.0: 0.040,
	}
}

// MockIBORQuotes returns EUR IBOR 3M par rates by maturity in years.
func MockIBORQuotes() curve.ParQuotes {
	return curve.ParQuotes{
		0.25: 0.039,
		0.5:  0.0385,
		1.0:  0.0375,
		2.0:  0.038,
		5.0:  0.039,
	}
}

// MockIBORZeros returns illustrative IBOR 3M zero pillars, used directly as
// a projection curve.
func MockIBORZeros() (times, rates []float64) {
	return []float64{0, 1, 2, 3, 5, 10},
		[]float64{0.031, 0.033, 0.035, 0.037, 0.039, 0.041}
}
