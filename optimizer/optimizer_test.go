package optimizer

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/directorscut82/sneer/cost"
	"github.com/directorscut82/sneer/kernel"
)

// stressProblem builds a small distance-matching setup: targets taken from
// a reference configuration, starting coordinates from another.
func stressProblem(t *testing.T, n, d int, seed int64) (y, targets *mat.Dense) {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	ref := mat.NewDense(n, d, nil)
	y = mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		for c := 0; c < d; c++ {
			ref.Set(i, c, rng.NormFloat64())
			y.Set(i, c, 0.1*rng.NormFloat64())
		}
	}
	return y, cost.TargetDistances(kernel.SquaredDistances(ref))
}

type countingCost struct {
	cost.Stress
	evals int
}

func (c *countingCost) Cost(p, q *mat.Dense) float64 {
	c.evals++
	return c.Stress.Cost(p, q)
}

func TestNewConfigErrors(t *testing.T) {
	y := mat.NewDense(2, 2, nil)
	g := NewSpringGradient(cost.Stress{}, cost.Distances{}, mat.NewDense(2, 2, nil))

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{
			name: "nil coordinates",
			run: func() error {
				_, err := New(nil, g, NewDescent(), NewFixedStep(0.1), NewPlain())
				return err
			},
			want: ErrNilCoordinates,
		},
		{
			name: "nil gradient strategy",
			run: func() error {
				_, err := New(y, nil, NewDescent(), NewFixedStep(0.1), NewPlain())
				return err
			},
			want: ErrNilStrategy,
		},
		{
			name: "nil update strategy",
			run: func() error {
				_, err := New(y, g, NewDescent(), NewFixedStep(0.1), nil)
				return err
			},
			want: ErrNilStrategy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), tt.want)
		})
	}
}

func TestStepRejectionLeavesCoordinatesUntouched(t *testing.T) {
	y, targets := stressProblem(t, 6, 2, 1)

	opt, err := New(y,
		NewSpringGradient(cost.Stress{}, cost.Distances{}, targets),
		NewDescent(),
		NewFixedStep(0.01),
		NewMomentum(0.5, 0.8, 3),
		WithValidator(ValidatorFunc(func(*State, *mat.Dense) bool { return false })),
	)
	require.NoError(t, err)

	before := mat.DenseCopyOf(opt.State().Y)
	const iters = 7
	for i := 0; i < iters; i++ {
		require.NoError(t, opt.Step())
	}

	st := opt.State()
	assert.True(t, mat.Equal(before, st.Y), "rejected steps must not move coordinates")
	assert.Equal(t, iters, st.Iteration)
	assert.Equal(t, iters, st.Rejected)
	assert.Zero(t, st.Accepted)
}

func TestStepRejectionPreservesGradientCache(t *testing.T) {
	y, targets := stressProblem(t, 6, 2, 2)

	fn := &countingCost{}
	reject := false
	opt, err := New(y,
		NewSpringGradient(fn, cost.Distances{}, targets),
		NewDescent(),
		NewFixedStep(0.001),
		NewPlain(),
		WithValidator(ValidatorFunc(func(*State, *mat.Dense) bool { return !reject })),
	)
	require.NoError(t, err)

	require.NoError(t, opt.Step())
	assert.False(t, opt.State().GradientValid(), "accepted step must invalidate the cache")
	evalsAfterAccept := fn.evals

	reject = true
	require.NoError(t, opt.Step())
	assert.True(t, opt.State().GradientValid())
	evalsAfterFirstReject := fn.evals
	assert.Greater(t, evalsAfterFirstReject, evalsAfterAccept)

	require.NoError(t, opt.Step())
	assert.Equal(t, evalsAfterFirstReject, fn.evals, "rejected steps must reuse the cached gradient")

	opt.InvalidateGradient()
	require.NoError(t, opt.Step())
	assert.Greater(t, fn.evals, evalsAfterFirstReject, "invalidation must force a re-evaluation")
}

func TestMomentumVelocityAdvancesOnlyOnAccept(t *testing.T) {
	y, targets := stressProblem(t, 6, 2, 3)

	mom := NewMomentum(0.5, 0.8, 0)
	reject := false
	opt, err := New(y,
		NewSpringGradient(cost.Stress{}, cost.Distances{}, targets),
		NewDescent(),
		NewFixedStep(0.001),
		mom,
		WithValidator(ValidatorFunc(func(*State, *mat.Dense) bool { return !reject })),
	)
	require.NoError(t, err)

	require.NoError(t, opt.Step())
	require.NoError(t, opt.Step())
	accepted := mat.DenseCopyOf(mom.Velocity())

	reject = true
	require.NoError(t, opt.Step())
	require.NoError(t, opt.Step())
	assert.True(t, mat.Equal(accepted, mom.Velocity()),
		"velocity after a rejection must match the last accepted step")
}

func TestLookaheadWithoutAnticipationMatchesClassical(t *testing.T) {
	run := func(lookahead bool) *mat.Dense {
		y, targets := stressProblem(t, 8, 2, 4)
		g := NewSpringGradient(cost.Stress{}, cost.Distances{}, targets)
		if lookahead {
			g = NewLookaheadGradient(cost.Stress{}, cost.Distances{}, targets)
		}
		opt, err := New(y, g, NewDescent(), NewFixedStep(0.001), NewMomentum(0, 0, 0))
		require.NoError(t, err)
		_, err = opt.Run(context.Background(), 20)
		require.NoError(t, err)
		return opt.State().Y
	}

	assert.True(t, mat.Equal(run(false), run(true)),
		"zero anticipated advance must reduce lookahead to the classical trajectory")
}

func TestAdaptiveGainCommitsOnAcceptOnly(t *testing.T) {
	st := &State{Y: mat.NewDense(1, 2, []float64{0, 0})}
	s := NewAdaptiveGain(0.1)
	require.NoError(t, s.Init(st))

	dir := mat.NewDense(1, 2, []float64{1, -1})

	step := s.Calculate(st, dir)
	assert.InDelta(t, 0.1, step.At(0, 0), 1e-15)
	s.AfterStep(st, true)

	step = s.Calculate(st, dir)
	assert.InDelta(t, 0.1*1.2, step.At(0, 0), 1e-15)
	s.AfterStep(st, false)

	// The rejected growth must not have stuck.
	step = s.Calculate(st, dir)
	assert.InDelta(t, 0.1*1.2, step.At(0, 0), 1e-15)
	s.AfterStep(st, true)

	step = s.Calculate(st, dir)
	assert.InDelta(t, 0.1*1.4, step.At(0, 0), 1e-15)

	flipped := mat.NewDense(1, 2, []float64{-1, 1})
	step = s.Calculate(st, flipped)
	assert.InDelta(t, 0.1*1.2*0.8, step.At(0, 0), 1e-15)
}

func TestBoldDriverRate(t *testing.T) {
	st := &State{Y: mat.NewDense(1, 1, []float64{0})}
	s := NewBoldDriver(1)
	require.NoError(t, s.Init(st))

	s.AfterStep(st, true)
	assert.InDelta(t, 1.1, s.Rate(), 1e-15)

	s.AfterStep(st, false)
	assert.InDelta(t, 0.55, s.Rate(), 1e-15)

	for i := 0; i < 100; i++ {
		s.AfterStep(st, false)
	}
	assert.GreaterOrEqual(t, s.Rate(), 1e-8, "rate must not collapse below its floor")
}

func TestRunNonIncreasingCost(t *testing.T) {
	y, targets := stressProblem(t, 10, 2, 5)

	eval := cost.Evaluator(cost.Stress{}, cost.Distances{}, targets)
	check := cost.Evaluator(cost.Stress{}, cost.Distances{}, targets)

	var costs []float64
	opt, err := New(y,
		NewSpringGradient(cost.Stress{}, cost.Distances{}, targets),
		NewDescent(),
		NewBoldDriver(0.001),
		NewPlain(),
		WithValidator(NewNonIncreasingCost(eval, 0)),
		WithObserver(func(st *State, accepted bool) {
			if accepted {
				costs = append(costs, check(st.Y))
			}
		}),
	)
	require.NoError(t, err)

	stats, err := opt.Run(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, 50, stats.Iterations)
	assert.NotEmpty(t, costs)

	for i := 1; i < len(costs); i++ {
		assert.LessOrEqual(t, costs[i], costs[i-1],
			"accepted cost sequence must be non-increasing")
	}
}

func TestRunContextCancelled(t *testing.T) {
	y, targets := stressProblem(t, 4, 2, 6)
	opt, err := New(y,
		NewSpringGradient(cost.Stress{}, cost.Distances{}, targets),
		NewDescent(), NewFixedStep(0.001), NewPlain())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = opt.Run(ctx, 100)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, opt.State().Iteration)
}
