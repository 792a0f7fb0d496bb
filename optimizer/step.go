package optimizer

import "gonum.org/v1/gonum/mat"

// FixedStep applies the same step size to every coordinate on every
// iteration. The effective size is eta multiplied by an externally tunable
// scale, so a probability-rebuild patch can retune it mid-run.
type FixedStep struct {
	Base
	eta   float64
	scale float64
	step  *mat.Dense
}

func NewFixedStep(eta float64) *FixedStep {
	return &FixedStep{eta: eta, scale: 1}
}

func (s *FixedStep) SetScale(scale float64) {
	s.scale = scale
}

func (s *FixedStep) Calculate(st *State, dir *mat.Dense) *mat.Dense {
	n, d := dir.Dims()
	if s.step == nil {
		s.step = mat.NewDense(n, d, nil)
	}
	v := s.eta * s.scale
	for i := 0; i < n; i++ {
		row := s.step.RawRowView(i)
		for c := 0; c < d; c++ {
			row[c] = v
		}
	}
	return s.step
}

// AdaptiveGain keeps a per-coordinate gain on top of a base step size.
// When a coordinate's direction agrees in sign with its direction on the
// last accepted step, its gain grows additively; when it flips, the gain
// shrinks multiplicatively toward a floor. Gains and the reference
// direction advance only when the step is accepted.
type AdaptiveGain struct {
	Base
	eta   float64
	scale float64

	inc, dec, floor float64

	gains    *mat.Dense
	next     *mat.Dense
	prevDir  *mat.Dense
	pendDir  *mat.Dense
	step     *mat.Dense
	havePrev bool
}

func NewAdaptiveGain(eta float64) *AdaptiveGain {
	return &AdaptiveGain{eta: eta, scale: 1, inc: 0.2, dec: 0.8, floor: 0.01}
}

func (s *AdaptiveGain) SetScale(scale float64) {
	s.scale = scale
}

func (s *AdaptiveGain) Init(st *State) error {
	n, d := st.Y.Dims()
	s.gains = mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		row := s.gains.RawRowView(i)
		for c := 0; c < d; c++ {
			row[c] = 1
		}
	}
	s.next = mat.NewDense(n, d, nil)
	s.pendDir = mat.NewDense(n, d, nil)
	s.step = mat.NewDense(n, d, nil)
	s.havePrev = false
	return nil
}

func (s *AdaptiveGain) Calculate(st *State, dir *mat.Dense) *mat.Dense {
	n, d := dir.Dims()
	base := s.eta * s.scale
	for i := 0; i < n; i++ {
		for c := 0; c < d; c++ {
			g := s.gains.At(i, c)
			if s.havePrev {
				if dir.At(i, c)*s.prevDir.At(i, c) > 0 {
					g += s.inc
				} else {
					g *= s.dec
					if g < s.floor {
						g = s.floor
					}
				}
			}
			s.next.Set(i, c, g)
			s.step.Set(i, c, base*g)
		}
	}
	s.pendDir.Copy(dir)
	return s.step
}

func (s *AdaptiveGain) AfterStep(st *State, accepted bool) {
	if !accepted {
		return
	}
	s.gains.Copy(s.next)
	if s.prevDir == nil {
		s.prevDir = mat.DenseCopyOf(s.pendDir)
	} else {
		s.prevDir.Copy(s.pendDir)
	}
	s.havePrev = true
}

// BoldDriver drives a single global step size: grow it after every accepted
// step, cut it after every rejection. Paired with a cost validator it
// probes for the largest rate the cost surface tolerates.
type BoldDriver struct {
	Base
	eta          float64
	grow, shrink float64
	min          float64
	step         *mat.Dense
}

func NewBoldDriver(eta float64) *BoldDriver {
	return &BoldDriver{eta: eta, grow: 1.1, shrink: 0.5, min: 1e-8}
}

// Rate returns the current global step size.
func (s *BoldDriver) Rate() float64 {
	return s.eta
}

func (s *BoldDriver) Calculate(st *State, dir *mat.Dense) *mat.Dense {
	n, d := dir.Dims()
	if s.step == nil {
		s.step = mat.NewDense(n, d, nil)
	}
	for i := 0; i < n; i++ {
		row := s.step.RawRowView(i)
		for c := 0; c < d; c++ {
			row[c] = s.eta
		}
	}
	return s.step
}

func (s *BoldDriver) AfterStep(st *State, accepted bool) {
	if accepted {
		s.eta *= s.grow
		return
	}
	s.eta *= s.shrink
	if s.eta < s.min {
		s.eta = s.min
	}
}
