package perplexity

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNilKernel is returned when no weighting kernel is configured.
	ErrNilKernel = errors.New("weighting kernel is nil")
	// ErrTooFewPoints is returned for distance matrices with fewer than
	// two points.
	ErrTooFewPoints = errors.New("need at least two points")
	// ErrInvalidTolerance is returned for a non-positive entropy tolerance.
	ErrInvalidTolerance = errors.New("tolerance must be positive")
	// ErrInvalidMaxIter is returned for a non-positive bisection bound.
	ErrInvalidMaxIter = errors.New("max iterations must be positive")
)

// ErrInvalidTarget indicates a target perplexity outside (0, N-1].
type ErrInvalidTarget struct {
	Target float64
	N      int
}

func (e *ErrInvalidTarget) Error() string {
	return fmt.Sprintf("invalid target perplexity %g for %d points", e.Target, e.N)
}

// Kind tags how a probability matrix is normalized.
type Kind int

const (
	// KindRow marks a row-stochastic matrix: each row sums to 1 with the
	// self entry excluded.
	KindRow Kind = iota
	// KindJoint marks a symmetric matrix whose grand sum is 1.
	KindJoint
)

func (k Kind) String() string {
	switch k {
	case KindRow:
		return "row"
	case KindJoint:
		return "joint"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Probabilities is a calibrated pairwise probability matrix together with
// the per-point byproducts of the calibration.
type Probabilities struct {
	// P is the N×N probability matrix, normalized according to Kind.
	P *mat.Dense
	// Kind tags the normalization.
	Kind Kind
	// Beta holds the calibrated per-point precisions.
	Beta []float64
	// Dim holds the per-point intrinsic dimensionality estimates.
	Dim []float64
	// Failed counts rows that missed the tolerance within the iteration
	// bound. Their entries are still usable, just less accurate.
	Failed int
	// Pass is the rebuild ordinal this matrix was produced by.
	Pass int
}

// Builder assembles per-row calibration results into a full probability
// matrix and drives the rebuild hook registry.
//
// A Builder is built once and may rebuild repeatedly (for example under a
// multiscale schedule); hooks registered on its Registry persist across
// rebuilds.
type Builder struct {
	search   Search
	kind     Kind
	parallel int
	registry Registry
	pass     int
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithParallelism bounds the number of rows calibrated concurrently.
// Values below 1 mean one worker per CPU. Use 1 for strictly sequential
// builds.
func WithParallelism(n int) BuilderOption {
	return func(b *Builder) {
		b.parallel = n
	}
}

// NewBuilder creates a Builder around the given row search.
func NewBuilder(search Search, kind Kind, opts ...BuilderOption) *Builder {
	b := &Builder{
		search: search,
		kind:   kind,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.parallel < 1 {
		b.parallel = runtime.GOMAXPROCS(0)
	}
	return b
}

// Registry exposes the rebuild hook registry. Register hooks once, before
// the first Build.
func (b *Builder) Registry() *Registry {
	return &b.registry
}

// SetTarget changes the target perplexity for subsequent builds. Used by
// multiscale schedules.
func (b *Builder) SetTarget(target float64) {
	b.search.Target = target
}

// Target returns the current target perplexity.
func (b *Builder) Target() float64 {
	return b.search.Target
}

// Build calibrates every row of the squared-distance matrix and assembles
// the probability matrix. Rows are mutually independent and run under a
// bounded errgroup. Per-row convergence failures are aggregated in
// Probabilities.Failed, never returned as errors; only configuration
// problems and context cancellation abort the build.
//
// After normalization the rebuild registry is replayed and the merged patch
// returned alongside the probabilities.
func (b *Builder) Build(ctx context.Context, d2 *mat.SymDense) (*Probabilities, Patch, error) {
	if b.search.Kernel == nil {
		return nil, Patch{}, ErrNilKernel
	}
	if b.search.Tol <= 0 {
		return nil, Patch{}, ErrInvalidTolerance
	}
	if b.search.MaxIter < 1 {
		return nil, Patch{}, ErrInvalidMaxIter
	}
	n := d2.SymmetricDim()
	if n < 2 {
		return nil, Patch{}, ErrTooFewPoints
	}
	if b.search.Target <= 0 || b.search.Target > float64(n-1) {
		return nil, Patch{}, &ErrInvalidTarget{Target: b.search.Target, N: n}
	}

	p := mat.NewDense(n, n, nil)
	beta := make([]float64, n)
	dim := make([]float64, n)
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.parallel)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			row := make([]float64, n)
			for j := 0; j < n; j++ {
				row[j] = d2.At(i, j)
			}
			res := b.search.Row(row, i)

			// Rows are disjoint; writing the raw row view is safe.
			copy(p.RawRowView(i), res.P)
			beta[i] = res.Beta
			dim[i] = res.IntrinsicDim
			if !res.OK {
				failed.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Patch{}, err
	}

	if b.kind == KindJoint {
		symmetrize(p)
	}

	b.pass++
	probs := &Probabilities{
		P:      p,
		Kind:   b.kind,
		Beta:   beta,
		Dim:    dim,
		Failed: int(failed.Load()),
		Pass:   b.pass,
	}
	patch := b.registry.Replay(&Rebuild{Input: probs, Pass: b.pass})
	return probs, patch, nil
}

// symmetrize averages p with its transpose and renormalizes over the grand
// sum, turning a row-stochastic matrix into a joint distribution.
func symmetrize(p *mat.Dense) {
	n, _ := p.Dims()
	var sum float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := (p.At(i, j) + p.At(j, i)) / 2
			p.Set(i, j, v)
			p.Set(j, i, v)
			sum += 2 * v
		}
	}
	if sum < minMass {
		sum = minMass
	}
	p.Scale(1/sum, p)
}
