// Package errs defines the error taxonomy shared by the curve, model and
// pricing packages. Callers match with errors.Is; every returned error wraps
// exactly one of these sentinels.
package errs

import "errors"

var (
	// ErrInvalidInput marks malformed schedules, mismatched lengths,
	// non-increasing dates and other shape errors detected at construction.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNumericalFailure marks a solver that could not bracket or converge.
	ErrNumericalFailure = errors.New("numerical failure")

	// ErrDegenerateParameter marks model parameters at a degenerate limit
	// the requested computation cannot handle.
	ErrDegenerateParameter = errors.New("degenerate parameter")
)
