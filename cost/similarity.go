package cost

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/directorscut82/sneer/kernel"
)

// Similarity converts embedding coordinates into the output probability
// matrix q and the raw kernel weights w consumed by a stiffness formula.
// Both destinations are N×N and caller-allocated.
type Similarity interface {
	Name() string
	Compute(y *mat.Dense, q, w *mat.Dense)

	// Beta returns the output-kernel precisions, or nil for unit precision.
	Beta() []float64
}

// JointStudentT is the Student-t output kernel with one degree of freedom,
// normalized over the whole matrix. This is the t-SNE output similarity:
// its heavy tails let moderate input distances spread out in the embedding.
type JointStudentT struct{}

func (JointStudentT) Name() string { return "joint-student-t" }

func (JointStudentT) Beta() []float64 { return nil }

func (JointStudentT) Compute(y *mat.Dense, q, w *mat.Dense) {
	d2 := kernel.SquaredDistances(y)
	n := d2.SymmetricDim()
	var sum float64
	for i := 0; i < n; i++ {
		w.Set(i, i, 0)
		q.Set(i, i, 0)
		for j := i + 1; j < n; j++ {
			v := 1 / (1 + d2.At(i, j))
			w.Set(i, j, v)
			w.Set(j, i, v)
			sum += 2 * v
		}
	}
	if sum < eps {
		sum = eps
	}
	inv := 1 / sum
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			q.Set(i, j, w.At(i, j)*inv)
		}
	}
}

// RowGaussian is the Gaussian output kernel with per-point precisions,
// normalized row by row. This is the classic SNE output similarity. The
// precisions default to 1 and can be replaced by a rebuild hook mirroring
// the calibrated input precisions.
type RowGaussian struct {
	beta []float64
}

// NewRowGaussian creates a RowGaussian with unit precision everywhere.
func NewRowGaussian() *RowGaussian {
	return &RowGaussian{}
}

func (s *RowGaussian) Name() string { return "row-gaussian" }

func (s *RowGaussian) Beta() []float64 { return s.beta }

// SetBeta replaces the per-point output precisions. Nil restores unit
// precision.
func (s *RowGaussian) SetBeta(beta []float64) {
	s.beta = beta
}

func (s *RowGaussian) Compute(y *mat.Dense, q, w *mat.Dense) {
	d2 := kernel.SquaredDistances(y)
	n := d2.SymmetricDim()
	for i := 0; i < n; i++ {
		bi := 1.0
		if s.beta != nil {
			bi = s.beta[i]
		}
		var sum float64
		for j := 0; j < n; j++ {
			if i == j {
				w.Set(i, j, 0)
				continue
			}
			v := math.Exp(-bi * d2.At(i, j))
			w.Set(i, j, v)
			sum += v
		}
		if sum < eps {
			sum = eps
		}
		inv := 1 / sum
		for j := 0; j < n; j++ {
			if i == j {
				q.Set(i, j, 0)
				continue
			}
			q.Set(i, j, w.At(i, j)*inv)
		}
	}
}

// Distances is the identity similarity for distance-matching costs: q holds
// the embedded Euclidean distances and w is left at 1.
type Distances struct{}

func (Distances) Name() string { return "distances" }

func (Distances) Beta() []float64 { return nil }

func (Distances) Compute(y *mat.Dense, q, w *mat.Dense) {
	d2 := kernel.SquaredDistances(y)
	n := d2.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				q.Set(i, j, 0)
				w.Set(i, j, 1)
				continue
			}
			q.Set(i, j, math.Sqrt(d2.At(i, j)))
			w.Set(i, j, 1)
		}
	}
}

// TargetDistances converts a squared-distance matrix into the dense target
// distance matrix expected by the Stress cost.
func TargetDistances(d2 *mat.SymDense) *mat.Dense {
	n := d2.SymmetricDim()
	t := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			t.Set(i, j, math.Sqrt(d2.At(i, j)))
		}
	}
	return t
}
