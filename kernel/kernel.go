package kernel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Func is a function type for similarity weighting.
// It maps a squared distance and a precision to a nonnegative weight.
type Func func(d2, beta float64) float64

// Gaussian is the exponential-family kernel exp(-beta * d²).
func Gaussian(d2, beta float64) float64 {
	return math.Exp(-beta * d2)
}

// Laplacian is the heavy-shouldered kernel exp(-beta * d).
func Laplacian(d2, beta float64) float64 {
	return math.Exp(-beta * math.Sqrt(d2))
}

// StudentT is the Student-t kernel with one degree of freedom, 1/(1 + beta*d²).
func StudentT(d2, beta float64) float64 {
	return 1 / (1 + beta*d2)
}

// Bandwidth converts a precision into the bandwidth of the induced kernel,
// 1/sqrt(2*beta).
func Bandwidth(beta float64) float64 {
	return 1 / math.Sqrt(2*beta)
}

// Type represents the weighting kernel used for similarity calibration.
type Type int

const (
	TypeGaussian Type = iota
	TypeLaplacian
	TypeStudentT
)

func (t Type) String() string {
	switch t {
	case TypeGaussian:
		return "Gaussian"
	case TypeLaplacian:
		return "Laplacian"
	case TypeStudentT:
		return "StudentT"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// Provider returns the weighting function for the given kernel type.
func Provider(t Type) (Func, error) {
	switch t {
	case TypeGaussian:
		return Gaussian, nil
	case TypeLaplacian:
		return Laplacian, nil
	case TypeStudentT:
		return StudentT, nil
	default:
		return nil, fmt.Errorf("unsupported kernel type: %v", t)
	}
}

// SquaredDistances computes the matrix of pairwise squared Euclidean
// distances between the rows of x. The result is symmetric with a zero
// diagonal.
func SquaredDistances(x *mat.Dense) *mat.SymDense {
	n, d := x.Dims()
	dst := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		xi := x.RawRowView(i)
		for j := i + 1; j < n; j++ {
			xj := x.RawRowView(j)
			var sum float64
			for k := 0; k < d; k++ {
				diff := xi[k] - xj[k]
				sum += diff * diff
			}
			dst.SetSym(i, j, sum)
		}
	}
	return dst
}
