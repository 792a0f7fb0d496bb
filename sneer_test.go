package sneer

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/directorscut82/sneer/checkpoint"
	"github.com/directorscut82/sneer/cost"
	"github.com/directorscut82/sneer/kernel"
	"github.com/directorscut82/sneer/optimizer"
	"github.com/directorscut82/sneer/perplexity"
)

// twoClusters samples n points split between two well-separated Gaussian
// clusters in dim dimensions.
func twoClusters(n, dim int, seed int64) *mat.Dense {
	rng := rand.New(rand.NewSource(seed))
	x := mat.NewDense(n, dim, nil)
	for i := 0; i < n; i++ {
		center := 0.0
		if i >= n/2 {
			center = 20
		}
		row := x.RawRowView(i)
		for c := range row {
			row[c] = center + rng.NormFloat64()
		}
	}
	return x
}

func TestNewConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		method Method
		opts   []Option
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unknown method",
			method: Method(99),
			check: func(t *testing.T, err error) {
				var em *ErrInvalidMethod
				assert.ErrorAs(t, err, &em)
				assert.Equal(t, Method(99), em.Method)
			},
		},
		{
			name:   "zero output dimension",
			method: TSNE,
			opts:   []Option{WithOutputDims(0)},
			check: func(t *testing.T, err error) {
				var ed *ErrInvalidDimension
				assert.ErrorAs(t, err, &ed)
			},
		},
		{
			name:   "zero iterations",
			method: TSNE,
			opts:   []Option{WithIterations(0)},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrInvalidIterations)
			},
		},
		{
			name:   "negative learning rate",
			method: TSNE,
			opts:   []Option{WithLearningRate(-1)},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrInvalidLearningRate)
			},
		},
		{
			name:   "zero perplexity",
			method: TSNE,
			opts:   []Option{WithPerplexity(0)},
			check: func(t *testing.T, err error) {
				var ep *ErrInvalidPerplexity
				assert.ErrorAs(t, err, &ep)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.method, tt.opts...)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestEmbedNilInput(t *testing.T) {
	emb, err := New(TSNE)
	require.NoError(t, err)

	_, err = emb.Embed(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilInput)

	_, err = emb.EmbedDistances(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilInput)
}

func TestEmbedPerplexityExceedsPoints(t *testing.T) {
	emb, err := New(TSNE, WithPerplexity(30), WithIterations(10))
	require.NoError(t, err)

	// 5 points cap the valid perplexity at 4.
	_, err = emb.Embed(context.Background(), twoClusters(5, 3, 1))
	var ep *ErrInvalidPerplexity
	require.ErrorAs(t, err, &ep)
	assert.Equal(t, 30.0, ep.Perplexity)
}

// costRecorder captures the cost at the accepted coordinates after every
// accepted step.
type costRecorder struct {
	optimizer.Base
	eval  func(y *mat.Dense) float64
	costs []float64
}

func (r *costRecorder) AfterStep(st *optimizer.State, accepted bool) {
	if accepted {
		r.costs = append(r.costs, r.eval(st.Y))
	}
}

func TestStressCostNonIncreasing(t *testing.T) {
	// Five points on a noisy ring, embedded against their own distances.
	ref := mat.NewDense(5, 2, []float64{
		0, 0,
		1, 0.2,
		2.1, 0,
		1, 1.3,
		0.3, 2,
	})
	d2 := kernel.SquaredDistances(ref)
	targets := cost.TargetDistances(d2)

	recorder := &costRecorder{eval: cost.Evaluator(cost.Stress{}, cost.Distances{}, targets)}
	emb, err := New(Stress,
		WithIterations(50),
		WithLearningRate(0.001),
		WithStepPolicy(StepBoldDriver),
		WithValidator(optimizer.NewNonIncreasingCost(
			cost.Evaluator(cost.Stress{}, cost.Distances{}, targets), 0)),
		WithValidator(recorder),
	)
	require.NoError(t, err)

	result, err := emb.EmbedDistances(context.Background(), d2)
	require.NoError(t, err)
	assert.Equal(t, 50, result.Stats.Iterations)
	require.NotEmpty(t, recorder.costs)

	for i := 1; i < len(recorder.costs); i++ {
		assert.LessOrEqual(t, recorder.costs[i], recorder.costs[i-1],
			"accepted cost sequence must be non-increasing")
	}
}

func TestTSNEEmbed(t *testing.T) {
	x := twoClusters(12, 4, 2)

	metrics := &BasicMetricsCollector{}
	emb, err := New(TSNE,
		WithPerplexity(3),
		WithIterations(150),
		WithEarlyExaggeration(4, 50),
		WithMetricsCollector(metrics),
		WithParallelism(2),
	)
	require.NoError(t, err)

	result, err := emb.Embed(context.Background(), x)
	require.NoError(t, err)

	r, c := result.Y.Dims()
	assert.Equal(t, 12, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 150, result.Stats.Iterations)
	assert.False(t, math.IsNaN(result.Stats.FinalCost))
	assert.False(t, math.IsInf(result.Stats.FinalCost, 0))
	assert.Positive(t, result.Stats.Accepted)

	require.NotNil(t, result.Probabilities)
	assert.Equal(t, perplexity.KindJoint, result.Probabilities.Kind)
	assert.Len(t, result.Probabilities.Beta, 12)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.BuildCount)
	assert.Equal(t, int64(150), stats.StepCount)
}

func TestSNEEmbedWithPrecisionMirroring(t *testing.T) {
	x := twoClusters(10, 3, 3)

	emb, err := New(SNE,
		WithPerplexity(3),
		WithIterations(80),
		WithPrecisionMirroring(1),
		WithSeed(7),
	)
	require.NoError(t, err)

	result, err := emb.Embed(context.Background(), x)
	require.NoError(t, err)

	require.NotNil(t, result.Probabilities)
	assert.Equal(t, perplexity.KindRow, result.Probabilities.Kind)
	assert.Len(t, result.Probabilities.Beta, 10)
	assert.False(t, math.IsNaN(result.Stats.FinalCost))
}

func TestEmbedDeterministicForSeed(t *testing.T) {
	x := twoClusters(10, 3, 4)

	run := func() *mat.Dense {
		emb, err := New(TSNE, WithPerplexity(3), WithIterations(40), WithSeed(11))
		require.NoError(t, err)
		result, err := emb.Embed(context.Background(), x)
		require.NoError(t, err)
		return result.Y
	}

	assert.True(t, mat.Equal(run(), run()), "same seed and sequential build must reproduce coordinates")
}

func TestMultiscaleRebuilds(t *testing.T) {
	x := twoClusters(40, 3, 5)

	metrics := &BasicMetricsCollector{}
	emb, err := New(TSNE,
		WithPerplexity(2),
		WithIterations(30),
		WithMultiscale(10),
		WithMetricsCollector(metrics),
	)
	require.NoError(t, err)

	result, err := emb.Embed(context.Background(), x)
	require.NoError(t, err)

	// Targets 8, 4, 2: the initial build plus two rebuilds.
	stats := metrics.GetStats()
	assert.Equal(t, int64(3), stats.BuildCount)
	assert.Equal(t, 3, result.Probabilities.Pass)
}

func TestEmbedCheckpoints(t *testing.T) {
	x := twoClusters(8, 3, 6)
	dir := t.TempDir()

	emb, err := New(TSNE,
		WithPerplexity(2),
		WithIterations(30),
		WithCheckpoint(dir, 10, checkpoint.CompressionLZ4),
	)
	require.NoError(t, err)

	_, err = emb.Embed(context.Background(), x)
	require.NoError(t, err)

	store, err := checkpoint.NewStore(dir, checkpoint.CompressionLZ4)
	require.NoError(t, err)

	snap, err := store.Latest()
	require.NoError(t, err)
	assert.Equal(t, 30, snap.Iteration)
	assert.Equal(t, 8, snap.Rows)
	assert.Equal(t, 2, snap.Dims)
	assert.NotNil(t, snap.ProbabilityMatrix())
}

func TestEmbedContextCancelled(t *testing.T) {
	emb, err := New(Stress, WithIterations(100))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = emb.EmbedDistances(ctx, kernel.SquaredDistances(twoClusters(6, 2, 7)))
	assert.ErrorIs(t, err, context.Canceled)
}
