package hullwhite

import (
	"fmt"
	"math"

	"github.com/meenmo/rateslib/errs"
)

// ShortRateCurve supplies the rate at the tree root.
type ShortRateCurve interface {
	ShortRate() float64
}

// Tree is a recombining short-rate lattice over a time grid. Level i sits at
// times[i] and holds i+1 states r0 + (2j-i)·sqrt(Var(t_i)), j = 0..i.
//
// Transitions use equal 0.5/0.5 weights to the two children (j and j+1).
// This is not a drift-calibrated trinomial scheme; the weights are fixed.
type Tree struct {
	times []float64
	dt    []float64
	rates [][]float64
}

// NewTree builds the lattice. times must start at 0 and increase strictly.
func NewTree(m *Model, c ShortRateCurve, times []float64) (*Tree, error) {
	if m == nil || c == nil {
		return nil, fmt.Errorf("hullwhite.NewTree: nil model or curve: %w", errs.ErrInvalidInput)
	}
	if len(times) < 2 {
		return nil, fmt.Errorf("hullwhite.NewTree: need at least 2 times, got %d: %w", len(times), errs.ErrInvalidInput)
	}
	if times[0] != 0 {
		return nil, fmt.Errorf("hullwhite.NewTree: grid starts at %g, not 0: %w", times[0], errs.ErrInvalidInput)
	}

	tr := &Tree{
		times: make([]float64, len(times)),
		dt:    make([]float64, len(times)-1),
		rates: make([][]float64, len(times)),
	}
	copy(tr.times, times)

	r0 := c.ShortRate()
	tr.rates[0] = []float64{r0}
	for i := 1; i < len(times); i++ {
		if math.IsNaN(times[i]) || math.IsInf(times[i], 0) || times[i] <= times[i-1] {
			return nil, fmt.Errorf("hullwhite.NewTree: times not strictly increasing at %d: %w", i, errs.ErrInvalidInput)
		}
		tr.dt[i-1] = times[i] - times[i-1]

		dx := math.Sqrt(m.Variance(times[i]))
		level := make([]float64, i+1)
		for j := range level {
			level[j] = r0 + float64(2*j-i)*dx
		}
		tr.rates[i] = level
	}
	return tr, nil
}

// Levels is the number of time levels, including the root.
func (t *Tree) Levels() int { return len(t.times) }

// Level returns a copy of the rates at level i.
func (t *Tree) Level(i int) []float64 {
	return append([]float64(nil), t.rates[i]...)
}

// Times returns a copy of the grid.
func (t *Tree) Times() []float64 {
	return append([]float64(nil), t.times...)
}

// Discount is the one-step discount factor exp(-r·Δt) out of level.
func (t *Tree) Discount(level int, r float64) float64 {
	return math.Exp(-r * t.dt[level])
}

// StepFunc adjusts the discounted continuation value at a node, e.g. to add
// a cashflow or apply an exercise decision.
type StepFunc func(level, node int, continuation float64) float64

// Rollback runs backward induction from terminal values on the last level to
// the root and returns the root value. step may be nil. Each level is fully
// computed before the one above it is touched.
func (t *Tree) Rollback(terminal []float64, step StepFunc) (float64, error) {
	last := len(t.times) - 1
	if len(terminal) != last+1 {
		return 0, fmt.Errorf("hullwhite.Tree.Rollback: %d terminal values for %d nodes: %w", len(terminal), last+1, errs.ErrInvalidInput)
	}

	next := append([]float64(nil), terminal...)
	cur := make([]float64, last)
	for i := last - 1; i >= 0; i-- {
		cur = cur[:i+1]
		for j, r := range t.rates[i] {
			cont := t.Discount(i, r) * 0.5 * (next[j] + next[j+1])
			if step != nil {
				cont = step(i, j, cont)
			}
			cur[j] = cont
		}
		next, cur = cur, next
	}
	return next[0], nil
}

// StatePrices returns the Arrow-Debreu price of reaching each node: the
// root is 1 and every node passes half of its discounted price to each
// child. The value of a node-indexed cashflow c[i][j] is Σ sp[i][j]·c[i][j].
func (t *Tree) StatePrices() [][]float64 {
	sp := make([][]float64, len(t.times))
	sp[0] = []float64{1}
	for i := 0; i+1 < len(t.times); i++ {
		child := make([]float64, i+2)
		for j, r := range t.rates[i] {
			half := 0.5 * sp[i][j] * t.Discount(i, r)
			child[j] += half
			child[j+1] += half
		}
		sp[i+1] = child
	}
	return sp
}
