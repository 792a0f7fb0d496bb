package perplexity

import (
	"math"

	"github.com/directorscut82/sneer/kernel"
)

// minMass floors every probability mass and ratio before it reaches a
// logarithm or a denominator, so degenerate rows stay finite.
const minMass = 1e-12

// Search calibrates a single row of squared distances to a target
// perplexity via bisection on the precision parameter.
//
// The kernel is assumed monotonically decreasing in effective bandwidth:
// increasing beta must decrease the row entropy. This precondition is
// documented, not enforced; a kernel violating it can stall the search,
// which then surfaces as a soft failure.
type Search struct {
	// Target is the target perplexity (effective neighborhood size).
	Target float64
	// Kernel maps (squared distance, beta) to a nonnegative weight.
	Kernel kernel.Func
	// Tol is the entropy tolerance for convergence.
	Tol float64
	// MaxIter bounds the bisection. Hitting the bound is a soft failure.
	MaxIter int
	// LogBase is the base for entropy and perplexity. Zero means 2.
	LogBase float64
}

// RowResult is the outcome of calibrating one row.
type RowResult struct {
	// Beta is the calibrated precision.
	Beta float64
	// P is the renormalized probability row. The self entry is zero.
	P []float64
	// Entropy is the row entropy at Beta, in units of LogBase.
	Entropy float64
	// OK reports whether the search met the tolerance within MaxIter.
	OK bool
	// Iterations is the number of bisection steps used.
	Iterations int
	// IntrinsicDim is the local dimensionality estimate derived from the
	// last two bisection samples.
	IntrinsicDim float64
}

// Row calibrates one row of squared distances. The entry at index self is
// excluded from the distribution. Rows are independent: Row is safe to call
// concurrently from multiple goroutines on distinct result slices.
func (s *Search) Row(d2 []float64, self int) RowResult {
	base := s.LogBase
	if base <= 0 {
		base = 2
	}
	logBase := math.Log(base)
	logTarget := math.Log(s.Target) / logBase

	p := make([]float64, len(d2))

	// entropy fills dst with the renormalized probability row at beta and
	// returns its Shannon entropy in units of base.
	entropy := func(beta float64, dst []float64) float64 {
		var sum float64
		for j, d := range d2 {
			if j == self {
				dst[j] = 0
				continue
			}
			dst[j] = s.Kernel(d, beta)
			sum += dst[j]
		}
		if sum < minMass {
			sum = minMass
		}
		inv := 1 / sum
		var h float64
		for j := range dst {
			if j == self {
				continue
			}
			dst[j] *= inv
			if dst[j] > minMass {
				h -= dst[j] * math.Log(dst[j])
			}
		}
		return h / logBase
	}

	// The sign of the objective at the lower bound fixes the reference
	// direction for the bracket updates.
	scratch := make([]float64, len(d2))
	refHigh := entropy(0, scratch)-logTarget > 0

	betaMin, betaMax := 0.0, math.Inf(1)
	beta := 1.0

	var curBeta, curH, prevBeta, prevH float64
	samples := 0
	iters := 0
	converged := false

	for i := 1; i <= s.MaxIter; i++ {
		iters = i
		h := entropy(beta, p)

		prevBeta, prevH = curBeta, curH
		curBeta, curH = beta, h
		samples++

		f := h - logTarget
		if math.Abs(f) < s.Tol {
			converged = true
			break
		}

		if (f > 0) == refHigh {
			// Same side as the lower bound: raise it. Widen by doubling
			// while the opposite bound is still unbounded.
			betaMin = beta
			if math.IsInf(betaMax, 1) {
				beta *= 2
			} else {
				beta = (beta + betaMax) / 2
			}
		} else {
			// Opposite side: lower the upper bound and narrow toward the
			// finite end of the bracket.
			betaMax = beta
			beta = (beta + betaMin) / 2
		}
	}

	if samples < 2 {
		// Converged on the first probe; synthesize a second sample by
		// nudging beta so the dimensionality estimate stays defined.
		delta := math.Min(0.01*curBeta, 1e-3)
		prevBeta = curBeta + delta
		prevH = entropy(prevBeta, scratch)
	}

	var dim float64
	dLog := math.Log(curBeta)/logBase - math.Log(prevBeta)/logBase
	if math.Abs(dLog) > minMass {
		dim = -2 * (curH - prevH) / dLog
	}

	return RowResult{
		Beta:         curBeta,
		P:            p,
		Entropy:      curH,
		OK:           converged,
		Iterations:   iters,
		IntrinsicDim: dim,
	}
}
