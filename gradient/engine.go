package gradient

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrShapeMismatch indicates that the stiffness matrix, the coordinate
// matrix, and the gradient destination do not agree on their shapes.
type ErrShapeMismatch struct {
	KRows, KCols int
	YRows, YCols int
	DstRows      int
	DstCols      int
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("shape mismatch: stiffness %dx%d, coordinates %dx%d, gradient %dx%d",
		e.KRows, e.KCols, e.YRows, e.YCols, e.DstRows, e.DstCols)
}

// FromStiffness fills dst with the gradient of the points-on-springs
// formulation:
//
//	∂C/∂y_i = 2 · Σ_j (K_ij + K_ji) · (y_i − y_j)
//
// k is N×N, y and dst are N×D. The stiffness is symmetrized here, so k need
// not be symmetric. Complexity is O(N²D).
func FromStiffness(k mat.Matrix, y *mat.Dense, dst *mat.Dense) error {
	kr, kc := k.Dims()
	n, d := y.Dims()
	dr, dc := dst.Dims()
	if kr != n || kc != n || dr != n || dc != d {
		return &ErrShapeMismatch{KRows: kr, KCols: kc, YRows: n, YCols: d, DstRows: dr, DstCols: dc}
	}

	dst.Zero()
	for i := 0; i < n; i++ {
		yi := y.RawRowView(i)
		gi := dst.RawRowView(i)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			s := 2 * (k.At(i, j) + k.At(j, i))
			yj := y.RawRowView(j)
			for c := 0; c < d; c++ {
				gi[c] += s * (yi[c] - yj[c])
			}
		}
	}
	return nil
}
