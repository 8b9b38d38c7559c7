package swap

// PuttableSwap is a CallableSwap whose holder owns the early termination
// right: on a call time the held value is floored at zero.
type PuttableSwap struct {
	CallableSwap
}

// Price values the swap with the put right.
func (s PuttableSwap) Price() (float64, error) {
	return s.value(putExercise)
}

// Decompose returns the vanilla value, the put value and their total.
func (s PuttableSwap) Decompose() (Decomposition, error) {
	return s.decompose(putExercise)
}

// FairRate solves for the fixed rate that makes the puttable swap worth zero.
func (s PuttableSwap) FairRate() (float64, error) {
	return s.fairRate(putExercise)
}
