package optimizer

import (
	"context"
	"errors"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNilCoordinates is returned by New when no starting coordinates are
	// provided.
	ErrNilCoordinates = errors.New("optimizer: nil coordinates")

	// ErrNilStrategy is returned by New when one of the four pipeline roles
	// is missing.
	ErrNilStrategy = errors.New("optimizer: nil strategy")
)

type options struct {
	validators []Strategy
	observer   func(st *State, accepted bool)
}

type Option func(*options)

// WithValidator attaches an extra veto hook to the pipeline. Validators
// share the strategy lifecycle, so stateful ones see the aggregated
// outcome of every step.
func WithValidator(v Strategy) Option {
	return func(o *options) {
		o.validators = append(o.validators, v)
	}
}

// WithObserver registers a callback invoked after every completed
// iteration with the post-decision state.
func WithObserver(fn func(st *State, accepted bool)) Option {
	return func(o *options) {
		o.observer = fn
	}
}

// Stats summarizes a run.
type Stats struct {
	Iterations int
	Accepted   int
	Rejected   int
	FinalCost  float64
}

// Optimizer owns the iteration state machine. Each Step runs the pipeline
// once: anticipate, gradient, direction, step size, update, propose,
// validate, commit or discard, after-step. The starting coordinates are
// copied; callers read results through State.
type Optimizer struct {
	st *State

	gradient  GradientStrategy
	direction DirectionStrategy
	step      StepStrategy
	update    UpdateStrategy

	all      []Strategy
	observer func(st *State, accepted bool)

	proposed *mat.Dense
}

func New(y *mat.Dense, g GradientStrategy, d DirectionStrategy, s StepStrategy, u UpdateStrategy, opts ...Option) (*Optimizer, error) {
	if y == nil {
		return nil, ErrNilCoordinates
	}
	if g == nil || d == nil || s == nil || u == nil {
		return nil, ErrNilStrategy
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	opt := &Optimizer{
		st:        &State{Y: mat.DenseCopyOf(y)},
		gradient:  g,
		direction: d,
		step:      s,
		update:    u,
		observer:  o.observer,
	}
	opt.all = append(opt.all, g, d, s, u)
	opt.all = append(opt.all, o.validators...)

	for _, str := range opt.all {
		if err := str.Init(opt.st); err != nil {
			return nil, err
		}
	}
	return opt, nil
}

// State exposes the live optimization state. Mutating the returned
// coordinates directly is the caller's responsibility; pair it with
// InvalidateGradient.
func (o *Optimizer) State() *State {
	return o.st
}

// InvalidateGradient discards the cached (stiffness, gradient) pair,
// forcing the next Step to re-evaluate. Call it after replacing the
// gradient strategy's input probabilities.
func (o *Optimizer) InvalidateGradient() {
	o.st.gradValid = false
}

// Stats reports the counters and the most recently evaluated cost.
func (o *Optimizer) Stats() Stats {
	return Stats{
		Iterations: o.st.Iteration,
		Accepted:   o.st.Accepted,
		Rejected:   o.st.Rejected,
		FinalCost:  o.st.Cost,
	}
}

// Step runs one pipeline pass. A vetoed proposal is not an error: the
// coordinates stand, the rejection counter advances, and every strategy is
// told the aggregated outcome.
func (o *Optimizer) Step() error {
	st := o.st

	st.PendingUpdate = nil
	if a, ok := o.update.(Anticipator); ok {
		st.PendingUpdate = a.Pending(st)
	}

	grad, err := o.gradient.Calculate(st)
	if err != nil {
		return err
	}
	dir := o.direction.Calculate(st, grad)
	step := o.step.Calculate(st, dir)
	upd := o.update.Calculate(st, dir, step)

	if o.proposed == nil {
		n, d := st.Y.Dims()
		o.proposed = mat.NewDense(n, d, nil)
	}
	o.proposed.Add(st.Y, upd)

	// Phase one: collect every verdict before anything commits.
	accepted := true
	for _, s := range o.all {
		if ok := s.Validate(st, o.proposed); !ok {
			accepted = false
		}
	}

	if accepted {
		st.Y.Copy(o.proposed)
		st.Accepted++
		st.gradValid = false
	} else {
		st.Rejected++
	}

	// Phase two: everyone sees the same outcome.
	for _, s := range o.all {
		s.AfterStep(st, accepted)
	}
	st.Iteration++

	if o.observer != nil {
		o.observer(st, accepted)
	}
	return nil
}

// Run executes up to iterations steps, stopping early if the context is
// cancelled.
func (o *Optimizer) Run(ctx context.Context, iterations int) (Stats, error) {
	for i := 0; i < iterations; i++ {
		select {
		case <-ctx.Done():
			return o.Stats(), ctx.Err()
		default:
		}
		if err := o.Step(); err != nil {
			return o.Stats(), err
		}
	}
	return o.Stats(), nil
}
