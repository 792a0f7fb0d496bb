package optimizer

import "gonum.org/v1/gonum/mat"

// ValidatorFunc adapts a plain verdict function into a Strategy so it can
// be attached with WithValidator. It carries no state between iterations.
type ValidatorFunc func(st *State, proposed *mat.Dense) bool

func (f ValidatorFunc) Init(*State) error { return nil }

func (f ValidatorFunc) Validate(st *State, proposed *mat.Dense) bool {
	return f(st, proposed)
}

func (f ValidatorFunc) AfterStep(*State, bool) {}

// NonIncreasingCost vetoes any proposal whose cost exceeds the cost of the
// last accepted coordinates by more than tol. The reference cost advances
// only on accepted steps.
type NonIncreasingCost struct {
	Base
	eval func(y *mat.Dense) float64
	tol  float64

	last float64
	cand float64
}

// NewNonIncreasingCost takes a cost evaluator over coordinates, typically
// cost.Evaluator bound to the run's input matrix.
func NewNonIncreasingCost(eval func(y *mat.Dense) float64, tol float64) *NonIncreasingCost {
	return &NonIncreasingCost{eval: eval, tol: tol}
}

func (v *NonIncreasingCost) Init(st *State) error {
	v.last = v.eval(st.Y)
	return nil
}

func (v *NonIncreasingCost) Validate(st *State, proposed *mat.Dense) bool {
	v.cand = v.eval(proposed)
	return v.cand <= v.last+v.tol
}

func (v *NonIncreasingCost) AfterStep(st *State, accepted bool) {
	if accepted {
		v.last = v.cand
	}
}
