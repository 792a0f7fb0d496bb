package optimizer

import "gonum.org/v1/gonum/mat"

// Descent points straight down the gradient.
type Descent struct {
	Base
	dir *mat.Dense
}

func NewDescent() *Descent {
	return &Descent{}
}

func (d *Descent) Calculate(st *State, grad *mat.Dense) *mat.Dense {
	if d.dir == nil {
		n, c := grad.Dims()
		d.dir = mat.NewDense(n, c, nil)
	}
	d.dir.Scale(-1, grad)
	return d.dir
}
