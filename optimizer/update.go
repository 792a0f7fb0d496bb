package optimizer

import "gonum.org/v1/gonum/mat"

// Plain is the memoryless update: direction times step size, nothing
// carried between iterations.
type Plain struct {
	Base
	upd *mat.Dense
}

func NewPlain() *Plain {
	return &Plain{}
}

func (u *Plain) Calculate(st *State, dir, step *mat.Dense) *mat.Dense {
	if u.upd == nil {
		n, d := dir.Dims()
		u.upd = mat.NewDense(n, d, nil)
	}
	u.upd.MulElem(dir, step)
	return u.upd
}

// Momentum blends the gradient step with an exponentially decaying
// velocity. The velocity advances only on accepted steps, so a rejected
// proposal leaves the history exactly as the last accepted step left it.
//
// Momentum implements Anticipator: its pending advance is the pure
// velocity term, which a lookahead gradient strategy applies provisionally
// before sampling.
type Momentum struct {
	Base
	coeff      float64
	finalCoeff float64
	switchAt   int

	velocity *mat.Dense
	proposal *mat.Dense
	scaled   *mat.Dense
	pending  *mat.Dense
}

// NewMomentum ramps the coefficient from initial to final once switchAt
// iterations have completed. Pass switchAt 0 for a constant coefficient.
func NewMomentum(initial, final float64, switchAt int) *Momentum {
	return &Momentum{coeff: initial, finalCoeff: final, switchAt: switchAt}
}

func (u *Momentum) mu(st *State) float64 {
	if u.switchAt > 0 && st.Iteration >= u.switchAt {
		return u.finalCoeff
	}
	return u.coeff
}

// Velocity returns the accumulated velocity of the last accepted step.
func (u *Momentum) Velocity() *mat.Dense {
	return u.velocity
}

func (u *Momentum) Init(st *State) error {
	n, d := st.Y.Dims()
	u.velocity = mat.NewDense(n, d, nil)
	u.proposal = mat.NewDense(n, d, nil)
	u.scaled = mat.NewDense(n, d, nil)
	u.pending = mat.NewDense(n, d, nil)
	return nil
}

func (u *Momentum) Calculate(st *State, dir, step *mat.Dense) *mat.Dense {
	u.proposal.MulElem(dir, step)
	u.scaled.Scale(u.mu(st), u.velocity)
	u.proposal.Add(u.proposal, u.scaled)
	return u.proposal
}

func (u *Momentum) AfterStep(st *State, accepted bool) {
	if accepted {
		u.velocity.Copy(u.proposal)
	}
}

func (u *Momentum) Pending(st *State) *mat.Dense {
	u.pending.Scale(u.mu(st), u.velocity)
	return u.pending
}
