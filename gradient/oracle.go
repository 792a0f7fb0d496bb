package gradient

import "gonum.org/v1/gonum/mat"

// CostAt evaluates the total scalar cost of a coordinate configuration.
type CostAt func(y *mat.Dense) float64

// Numerical estimates the cost gradient by central differences: each
// coordinate is perturbed by ±eps and the cost re-evaluated. The result
// costs O(N·D) cost evaluations, each typically O(N²). This is a test
// oracle, not an optimization-path tool.
func Numerical(cost CostAt, y *mat.Dense, eps float64) *mat.Dense {
	n, d := y.Dims()
	g := mat.NewDense(n, d, nil)
	probe := mat.DenseCopyOf(y)
	for i := 0; i < n; i++ {
		for c := 0; c < d; c++ {
			orig := probe.At(i, c)
			probe.Set(i, c, orig+eps)
			plus := cost(probe)
			probe.Set(i, c, orig-eps)
			minus := cost(probe)
			probe.Set(i, c, orig)
			g.Set(i, c, (plus-minus)/(2*eps))
		}
	}
	return g
}
