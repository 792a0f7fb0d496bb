package optimizer

import "gonum.org/v1/gonum/mat"

// State is the mutable optimization context owned by the control loop and
// threaded through every strategy. Strategies read it freely; the cache
// validity flag is flipped only by its designated mutators (a successful
// commit, an input-probability rebuild).
type State struct {
	// Y holds the current accepted coordinates (N×D). It changes only when
	// a proposed step survives validation.
	Y *mat.Dense
	// Iteration counts completed pipeline passes, accepted or not.
	Iteration int
	// Accepted and Rejected count validation outcomes.
	Accepted int
	Rejected int
	// Cost is the most recent cost evaluated by the gradient strategy, for
	// diagnostics only.
	Cost float64
	// Stiffness and Gradient form the cached pair produced by the gradient
	// strategy. They are valid only while GradientValid reports true.
	Stiffness *mat.Dense
	Gradient  *mat.Dense
	// PendingUpdate is the provisional momentum advance exposed to
	// lookahead gradient sampling, or nil when no update strategy
	// anticipates.
	PendingUpdate *mat.Dense

	gradValid bool
}

// GradientValid reports whether the cached (stiffness, gradient) pair still
// matches the current coordinates.
func (s *State) GradientValid() bool {
	return s.gradValid
}

// Strategy is the lifecycle shared by every optimizer role. Embed Base to
// pick up no-op defaults for the optional hooks.
type Strategy interface {
	// Init runs once, before iteration zero, to allocate persistent state.
	Init(st *State) error
	// Validate inspects the proposed coordinates and may veto the step.
	// Verdicts from all validators are aggregated before anything commits.
	Validate(st *State, proposed *mat.Dense) bool
	// AfterStep runs once per iteration with the aggregated accept/reject
	// outcome, after the decision is final.
	AfterStep(st *State, accepted bool)
}

// Base provides no-op lifecycle hooks for embedding in strategies.
type Base struct{}

func (Base) Init(*State) error { return nil }

func (Base) Validate(*State, *mat.Dense) bool { return true }

func (Base) AfterStep(*State, bool) {}

// GradientStrategy produces the cost gradient at the position the strategy
// chooses to sample. It may reuse the cached pair on State when the
// position has not moved since the last evaluation.
type GradientStrategy interface {
	Strategy
	Calculate(st *State) (*mat.Dense, error)
}

// DirectionStrategy turns a gradient into a descent direction.
type DirectionStrategy interface {
	Strategy
	Calculate(st *State, grad *mat.Dense) *mat.Dense
}

// StepStrategy produces per-coordinate step sizes for the current
// direction.
type StepStrategy interface {
	Strategy
	Calculate(st *State, dir *mat.Dense) *mat.Dense
}

// UpdateStrategy combines direction and step sizes into the coordinate
// update, typically their elementwise product plus any history term.
type UpdateStrategy interface {
	Strategy
	Calculate(st *State, dir, step *mat.Dense) *mat.Dense
}

// Anticipator is implemented by update strategies that can expose their
// pending history advance before the gradient phase. Lookahead gradient
// sampling provisionally applies it, which is what turns a classical
// momentum update into Nesterov's accelerated scheme.
type Anticipator interface {
	Pending(st *State) *mat.Dense
}

// Scalable is implemented by step strategies whose global scale can be
// retuned, for example by a probability-rebuild patch.
type Scalable interface {
	SetScale(scale float64)
}
