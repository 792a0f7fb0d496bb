package cost

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// eps floors probabilities and distances before they reach a logarithm or a
// denominator.
const eps = 1e-12

// Function couples a scalar cost with the stiffness formula of its
// gradient. The stiffness matrix K is consumed by the gradient engine as
// K + Kᵗ, so formulas are written for that convention.
type Function interface {
	Name() string

	// Cost evaluates the scalar cost of approximating p by q.
	Cost(p, q *mat.Dense) float64

	// Stiffness fills dst with the per-pair stiffness coefficients. w holds
	// the raw output-kernel weights and beta the output precisions produced
	// alongside q; either may be ignored by formulas that do not need them.
	// beta may be nil, meaning unit precision everywhere.
	Stiffness(p, q, w *mat.Dense, beta []float64, dst *mat.Dense)
}

// klDivergence sums p*log(p/q) over all off-diagonal pairs, with both the
// ratio and the logarithm epsilon-floored.
func klDivergence(p, q *mat.Dense) float64 {
	n, _ := p.Dims()
	var c float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			pij := p.At(i, j)
			if pij < eps {
				continue
			}
			qij := q.At(i, j)
			if qij < eps {
				qij = eps
			}
			c += pij * math.Log(pij/qij)
		}
	}
	return c
}

// KLJoint is the Kullback-Leibler divergence between joint probability
// matrices. Paired with JointStudentT it yields symmetric t-SNE.
type KLJoint struct{}

func (KLJoint) Name() string { return "kl-joint" }

func (KLJoint) Cost(p, q *mat.Dense) float64 {
	return klDivergence(p, q)
}

// Stiffness computes K_ij = (p_ij - q_ij) * w_ij.
func (KLJoint) Stiffness(p, q, w *mat.Dense, beta []float64, dst *mat.Dense) {
	n, _ := p.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				dst.Set(i, j, 0)
				continue
			}
			dst.Set(i, j, (p.At(i, j)-q.At(i, j))*w.At(i, j))
		}
	}
}

// KLRow is the sum of per-row Kullback-Leibler divergences between
// row-stochastic probability matrices. Paired with RowGaussian it yields
// classic SNE.
type KLRow struct{}

func (KLRow) Name() string { return "kl-row" }

func (KLRow) Cost(p, q *mat.Dense) float64 {
	return klDivergence(p, q)
}

// Stiffness computes K_ij = beta_i * (p_ij - q_ij). The output precision
// scales each row's contribution; nil beta means unit precision.
func (KLRow) Stiffness(p, q, w *mat.Dense, beta []float64, dst *mat.Dense) {
	n, _ := p.Dims()
	for i := 0; i < n; i++ {
		bi := 1.0
		if beta != nil {
			bi = beta[i]
		}
		for j := 0; j < n; j++ {
			if i == j {
				dst.Set(i, j, 0)
				continue
			}
			dst.Set(i, j, bi*(p.At(i, j)-q.At(i, j)))
		}
	}
}

// Stress is the metric stress cost: the squared mismatch between target and
// embedded distances, summed over all off-diagonal pairs. Here p carries
// the target distances and q the current embedded distances (see the
// Distances similarity).
type Stress struct{}

func (Stress) Name() string { return "stress" }

func (Stress) Cost(p, q *mat.Dense) float64 {
	n, _ := p.Dims()
	var c float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			diff := p.At(i, j) - q.At(i, j)
			c += diff * diff
		}
	}
	return c
}

// Stiffness computes K_ij = (q_ij - p_ij) / max(q_ij, eps).
func (Stress) Stiffness(p, q, w *mat.Dense, beta []float64, dst *mat.Dense) {
	n, _ := p.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				dst.Set(i, j, 0)
				continue
			}
			d := q.At(i, j)
			if d < eps {
				d = eps
			}
			dst.Set(i, j, (q.At(i, j)-p.At(i, j))/d)
		}
	}
}

// Evaluator binds a cost/similarity pairing to a fixed input matrix and
// returns a scalar cost over coordinates. The closure owns its scratch
// buffers and is not safe for concurrent use.
func Evaluator(f Function, s Similarity, p *mat.Dense) func(y *mat.Dense) float64 {
	var q, w *mat.Dense
	return func(y *mat.Dense) float64 {
		n, _ := y.Dims()
		if q == nil {
			q = mat.NewDense(n, n, nil)
			w = mat.NewDense(n, n, nil)
		}
		s.Compute(y, q, w)
		return f.Cost(p, q)
	}
}
