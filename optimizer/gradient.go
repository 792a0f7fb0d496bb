package optimizer

import (
	"gonum.org/v1/gonum/mat"

	"github.com/directorscut82/sneer/cost"
	"github.com/directorscut82/sneer/gradient"
)

// SpringGradient evaluates the points-on-springs gradient of a
// cost/similarity pairing against a fixed input probability matrix. It is
// the gradient strategy behind every supported embedding method; the
// pairing decides which method it is.
//
// The strategy caches its (stiffness, gradient) output on State and reuses
// it while the coordinates have not moved, so a run of rejected steps costs
// no O(N²) re-evaluations.
type SpringGradient struct {
	Base

	fn  cost.Function
	sim cost.Similarity

	p            *mat.Dense
	exaggeration float64
	lookahead    bool

	q, w, pexp *mat.Dense
	pos        *mat.Dense
}

// NewSpringGradient samples the gradient at the current accepted
// coordinates. p is the calibrated input probability matrix.
func NewSpringGradient(fn cost.Function, sim cost.Similarity, p *mat.Dense) *SpringGradient {
	return &SpringGradient{fn: fn, sim: sim, p: p, exaggeration: 1}
}

// NewLookaheadGradient samples the gradient at the coordinates the update
// strategy is already committed to reaching, when it exposes that advance
// through Anticipator. Combined with a momentum update this is Nesterov's
// accelerated gradient; without an anticipating update it degrades to the
// classical strategy.
func NewLookaheadGradient(fn cost.Function, sim cost.Similarity, p *mat.Dense) *SpringGradient {
	g := NewSpringGradient(fn, sim, p)
	g.lookahead = true
	return g
}

// SetInput replaces the input probability matrix, typically after a
// perplexity rebuild. The caller is expected to invalidate the gradient
// cache alongside.
func (g *SpringGradient) SetInput(p *mat.Dense) {
	g.p = p
}

// SetExaggeration scales the input probabilities seen by the stiffness
// formula. 1 disables exaggeration. The reported cost always uses the
// unexaggerated input.
func (g *SpringGradient) SetExaggeration(factor float64) {
	g.exaggeration = factor
}

func (g *SpringGradient) Calculate(st *State) (*mat.Dense, error) {
	if st.gradValid {
		return st.Gradient, nil
	}

	pos := st.Y
	if g.lookahead && st.PendingUpdate != nil {
		if g.pos == nil {
			g.pos = mat.DenseCopyOf(st.Y)
		}
		g.pos.Add(st.Y, st.PendingUpdate)
		pos = g.pos
	}

	n, d := pos.Dims()
	if g.q == nil {
		g.q = mat.NewDense(n, n, nil)
		g.w = mat.NewDense(n, n, nil)
	}
	if st.Stiffness == nil {
		st.Stiffness = mat.NewDense(n, n, nil)
		st.Gradient = mat.NewDense(n, d, nil)
	}

	g.sim.Compute(pos, g.q, g.w)
	st.Cost = g.fn.Cost(g.p, g.q)

	p := g.p
	if g.exaggeration != 1 {
		if g.pexp == nil {
			g.pexp = mat.NewDense(n, n, nil)
		}
		g.pexp.Scale(g.exaggeration, g.p)
		p = g.pexp
	}

	g.fn.Stiffness(p, g.q, g.w, g.sim.Beta(), st.Stiffness)
	if err := gradient.FromStiffness(st.Stiffness, pos, st.Gradient); err != nil {
		return nil, err
	}
	st.gradValid = true
	return st.Gradient, nil
}
