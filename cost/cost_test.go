package cost

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/directorscut82/sneer/kernel"
)

func randomCoords(rng *rand.Rand, n, d int) *mat.Dense {
	y := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			y.Set(i, j, rng.NormFloat64())
		}
	}
	return y
}

func TestJointStudentTNormalization(t *testing.T) {
	rng := rand.New(rand.NewSource(20))
	y := randomCoords(rng, 7, 2)
	n := 7

	q := mat.NewDense(n, n, nil)
	w := mat.NewDense(n, n, nil)
	JointStudentT{}.Compute(y, q, w)

	var sum float64
	for i := 0; i < n; i++ {
		assert.Zero(t, q.At(i, i))
		for j := 0; j < n; j++ {
			assert.InDelta(t, q.At(j, i), q.At(i, j), 1e-15)
			sum += q.At(i, j)
		}
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestRowGaussianNormalization(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	y := randomCoords(rng, 6, 3)
	n := 6

	s := NewRowGaussian()
	s.SetBeta([]float64{1, 2, 0.5, 1, 1, 3})

	q := mat.NewDense(n, n, nil)
	w := mat.NewDense(n, n, nil)
	s.Compute(y, q, w)

	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < n; j++ {
			sum += q.At(i, j)
		}
		assert.InDelta(t, 1.0, sum, 1e-12, "row %d", i)
	}
}

func TestKLZeroForIdenticalDistributions(t *testing.T) {
	rng := rand.New(rand.NewSource(22))
	y := randomCoords(rng, 5, 2)

	q := mat.NewDense(5, 5, nil)
	w := mat.NewDense(5, 5, nil)
	JointStudentT{}.Compute(y, q, w)

	assert.InDelta(t, 0.0, KLJoint{}.Cost(q, q), 1e-12)
	assert.InDelta(t, 0.0, KLRow{}.Cost(q, q), 1e-12)
}

func TestKLNonNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(23))

	for trial := 0; trial < 10; trial++ {
		p := mat.NewDense(4, 4, nil)
		q := mat.NewDense(4, 4, nil)
		w := mat.NewDense(4, 4, nil)
		JointStudentT{}.Compute(randomCoords(rng, 4, 2), p, w)
		JointStudentT{}.Compute(randomCoords(rng, 4, 2), q, w)

		assert.GreaterOrEqual(t, KLJoint{}.Cost(p, q), 0.0)
	}
}

func TestStressZeroForPerfectEmbedding(t *testing.T) {
	rng := rand.New(rand.NewSource(24))
	y := randomCoords(rng, 6, 2)

	target := TargetDistances(kernel.SquaredDistances(y))
	q := mat.NewDense(6, 6, nil)
	w := mat.NewDense(6, 6, nil)
	Distances{}.Compute(y, q, w)

	assert.InDelta(t, 0.0, Stress{}.Cost(target, q), 1e-18)
}

func TestEvaluator(t *testing.T) {
	rng := rand.New(rand.NewSource(25))
	y := randomCoords(rng, 5, 2)

	p := mat.NewDense(5, 5, nil)
	w := mat.NewDense(5, 5, nil)
	JointStudentT{}.Compute(y, p, w)

	eval := Evaluator(KLJoint{}, JointStudentT{}, p)
	require.InDelta(t, 0.0, eval(y), 1e-12, "cost of the generating coordinates is zero")

	other := randomCoords(rng, 5, 2)
	assert.Greater(t, eval(other), 0.0)
}
