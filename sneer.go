package sneer

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/directorscut82/sneer/checkpoint"
	"github.com/directorscut82/sneer/cost"
	"github.com/directorscut82/sneer/kernel"
	"github.com/directorscut82/sneer/optimizer"
	"github.com/directorscut82/sneer/perplexity"
)

// Method selects the embedding method: the cost function and the output
// similarity it is paired with.
type Method int

const (
	// TSNE pairs the joint Kullback-Leibler cost with the Student-t output
	// kernel (symmetric t-SNE). The default.
	TSNE Method = iota
	// SNE pairs the row-wise Kullback-Leibler cost with the Gaussian output
	// kernel (classic SNE).
	SNE
	// Stress matches embedded distances against target distances directly.
	// No perplexity calibration is involved.
	Stress
)

func (m Method) String() string {
	switch m {
	case TSNE:
		return "t-SNE"
	case SNE:
		return "SNE"
	case Stress:
		return "STRESS"
	default:
		return "Unknown"
	}
}

// Result is the outcome of an embedding run.
type Result struct {
	// Y holds the final coordinates (N×D).
	Y *mat.Dense
	// Probabilities is the last calibrated input state, nil for
	// distance-matching methods.
	Probabilities *perplexity.Probabilities
	// Stats summarizes the optimization.
	Stats optimizer.Stats
}

// Embedder computes low-dimensional embeddings that preserve the
// neighborhood structure of the input. An Embedder is immutable after New
// and safe to reuse across runs.
type Embedder struct {
	method Method
	opts   options
}

// New validates the configuration and creates an Embedder.
func New(method Method, optFns ...Option) (*Embedder, error) {
	switch method {
	case TSNE, SNE, Stress:
	default:
		return nil, &ErrInvalidMethod{Method: method}
	}

	o := applyOptions(optFns)
	if o.outputDims < 1 {
		return nil, &ErrInvalidDimension{Dimension: o.outputDims}
	}
	if o.iterations < 1 {
		return nil, ErrInvalidIterations
	}
	if o.learningRate <= 0 {
		return nil, ErrInvalidLearningRate
	}
	if o.perplexity <= 0 && method != Stress {
		return nil, &ErrInvalidPerplexity{Perplexity: o.perplexity}
	}
	if _, err := kernel.Provider(o.kernelType); err != nil {
		return nil, err
	}
	return &Embedder{method: method, opts: o}, nil
}

// Embed runs the full pipeline on raw input vectors (rows of x).
func (e *Embedder) Embed(ctx context.Context, x *mat.Dense) (*Result, error) {
	if x == nil {
		return nil, ErrNilInput
	}
	return e.embed(ctx, kernel.SquaredDistances(x))
}

// EmbedDistances runs the full pipeline on a precomputed squared-distance
// matrix.
func (e *Embedder) EmbedDistances(ctx context.Context, d2 *mat.SymDense) (*Result, error) {
	if d2 == nil {
		return nil, ErrNilInput
	}
	return e.embed(ctx, d2)
}

// run carries the per-run wiring: the strategies, the builder, and the
// hooks that let a rebuild patch reach them.
type run struct {
	builder  *perplexity.Builder
	probs    *perplexity.Probabilities
	grad     *optimizer.SpringGradient
	rowGauss *cost.RowGaussian
	scalable optimizer.Scalable
	targets  []float64
	interval int
}

func (r *run) applyPatch(patch perplexity.Patch) {
	if patch.OutputBeta != nil && r.rowGauss != nil {
		r.rowGauss.SetBeta(patch.OutputBeta)
	}
	if patch.Exaggeration != nil {
		r.grad.SetExaggeration(*patch.Exaggeration)
	}
	if patch.StepScale != nil && r.scalable != nil {
		r.scalable.SetScale(*patch.StepScale)
	}
}

func (e *Embedder) embed(ctx context.Context, d2 *mat.SymDense) (*Result, error) {
	o := e.opts
	n := d2.SymmetricDim()
	logger := o.logger.WithMethod(e.method).WithRows(n)

	r := &run{targets: e.schedule(n)}
	r.interval = o.rebuildInterval
	if r.interval < 1 {
		r.interval = o.iterations / len(r.targets)
	}
	if r.interval < 1 {
		r.interval = 1
	}

	var (
		fn    cost.Function
		sim   cost.Similarity
		input *mat.Dense
	)
	switch e.method {
	case Stress:
		fn = cost.Stress{}
		sim = cost.Distances{}
		input = cost.TargetDistances(d2)
	case SNE, TSNE:
		kfn, err := kernel.Provider(o.kernelType)
		if err != nil {
			return nil, err
		}
		kind := perplexity.KindJoint
		if e.method == SNE {
			kind = perplexity.KindRow
		}
		r.builder = perplexity.NewBuilder(perplexity.Search{
			Target:  r.targets[0],
			Kernel:  kfn,
			Tol:     o.tolerance,
			MaxIter: o.maxCalibrationIter,
		}, kind, perplexity.WithParallelism(o.parallelism))
		if o.mirrorEnabled {
			r.builder.Registry().Register(perplexity.MirrorPrecisions(o.mirrorScale))
		}

		if e.method == TSNE {
			fn = cost.KLJoint{}
			sim = cost.JointStudentT{}
		} else {
			fn = cost.KLRow{}
			r.rowGauss = cost.NewRowGaussian()
			sim = r.rowGauss
		}
	}

	var firstPatch perplexity.Patch
	if r.builder != nil {
		p, patch, err := e.build(ctx, r.builder, d2, logger)
		if err != nil {
			return nil, err
		}
		r.probs = p
		input = p.P
		firstPatch = patch
	}

	if o.lookahead {
		r.grad = optimizer.NewLookaheadGradient(fn, sim, input)
	} else {
		r.grad = optimizer.NewSpringGradient(fn, sim, input)
	}
	exaggerationIters := 0
	if r.probs != nil && o.exaggeration != 1 && o.exaggerationIters > 0 {
		r.grad.SetExaggeration(o.exaggeration)
		exaggerationIters = o.exaggerationIters
	}

	var step optimizer.StepStrategy
	switch o.stepPolicy {
	case StepFixed:
		fs := optimizer.NewFixedStep(o.learningRate)
		step, r.scalable = fs, fs
	case StepBoldDriver:
		step = optimizer.NewBoldDriver(o.learningRate)
	default:
		ag := optimizer.NewAdaptiveGain(o.learningRate)
		step, r.scalable = ag, ag
	}

	var upd optimizer.UpdateStrategy
	if o.momentum > 0 {
		upd = optimizer.NewMomentum(o.momentum, o.finalMomentum, o.momentumSwitch)
	} else {
		upd = optimizer.NewPlain()
	}

	r.applyPatch(firstPatch)

	optOpts := make([]optimizer.Option, 0, len(o.validators))
	for _, v := range o.validators {
		optOpts = append(optOpts, optimizer.WithValidator(v))
	}
	opt, err := optimizer.New(e.initial(n), r.grad, optimizer.NewDescent(), step, upd, optOpts...)
	if err != nil {
		return nil, err
	}

	var store *checkpoint.Store
	if o.checkpointDir != "" && o.checkpointEvery > 0 {
		store, err = checkpoint.NewStore(o.checkpointDir, o.checkpointCompression)
		if err != nil {
			return nil, err
		}
	}

	targetIdx := 0
	for i := 0; i < o.iterations; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if exaggerationIters > 0 && i == exaggerationIters {
			r.grad.SetExaggeration(1)
			opt.InvalidateGradient()
		}

		if r.builder != nil && targetIdx+1 < len(r.targets) && i == (targetIdx+1)*r.interval {
			targetIdx++
			r.builder.SetTarget(r.targets[targetIdx])
			p, patch, err := e.build(ctx, r.builder, d2, logger)
			if err != nil {
				return nil, err
			}
			r.probs = p
			r.grad.SetInput(p.P)
			opt.InvalidateGradient()
			r.applyPatch(patch)
			logger.LogRebuild(ctx, p.Pass, r.targets[targetIdx], p.Failed)
		}

		prevAccepted := opt.State().Accepted
		start := time.Now()
		if err := opt.Step(); err != nil {
			return nil, err
		}
		st := opt.State()
		accepted := st.Accepted > prevAccepted
		o.metricsCollector.RecordStep(st.Cost, accepted, time.Since(start))
		logger.LogStep(ctx, st.Iteration, st.Cost, accepted)

		if store != nil && (i+1)%o.checkpointEvery == 0 {
			e.saveCheckpoint(ctx, store, st, r.probs, logger)
		}
	}

	st := opt.State()
	stats := opt.Stats()
	logger.LogEmbed(ctx, stats.Iterations, stats.Accepted, stats.Rejected, stats.FinalCost, nil)

	return &Result{
		Y:             mat.DenseCopyOf(st.Y),
		Probabilities: r.probs,
		Stats:         stats,
	}, nil
}

// schedule returns the perplexity targets of the run, largest first. A
// single-entry schedule means no rebuilds.
func (e *Embedder) schedule(n int) []float64 {
	if !e.opts.multiscale || e.method == Stress {
		return []float64{e.opts.perplexity}
	}
	t := e.opts.perplexity
	for t*2 <= float64(n)/4 {
		t *= 2
	}
	var targets []float64
	for ; t > e.opts.perplexity; t /= 2 {
		targets = append(targets, t)
	}
	return append(targets, e.opts.perplexity)
}

// initial draws the starting coordinates from a tight Gaussian around the
// origin, deterministically from the configured seed.
func (e *Embedder) initial(n int) *mat.Dense {
	rng := rand.New(rand.NewSource(e.opts.seed))
	y := mat.NewDense(n, e.opts.outputDims, nil)
	for i := 0; i < n; i++ {
		row := y.RawRowView(i)
		for c := range row {
			row[c] = 1e-4 * rng.NormFloat64()
		}
	}
	return y
}

func (e *Embedder) build(ctx context.Context, b *perplexity.Builder, d2 *mat.SymDense, logger *Logger) (*perplexity.Probabilities, perplexity.Patch, error) {
	start := time.Now()
	p, patch, err := b.Build(ctx, d2)

	n := d2.SymmetricDim()
	failed := 0
	if p != nil {
		failed = p.Failed
	}
	e.opts.metricsCollector.RecordBuild(n, failed, time.Since(start), err)
	logger.LogBuild(ctx, n, failed, err)

	if err != nil {
		return nil, perplexity.Patch{}, translateError(err)
	}
	return p, patch, nil
}

func (e *Embedder) saveCheckpoint(ctx context.Context, store *checkpoint.Store, st *optimizer.State, probs *perplexity.Probabilities, logger *Logger) {
	n, d := st.Y.Dims()
	snap := &checkpoint.Snapshot{
		Iteration:   st.Iteration,
		Accepted:    st.Accepted,
		Rejected:    st.Rejected,
		Cost:        st.Cost,
		Rows:        n,
		Dims:        d,
		Coordinates: append([]float64(nil), st.Y.RawMatrix().Data...),
	}
	if probs != nil {
		snap.Beta = probs.Beta
		snap.Probabilities = append([]float64(nil), probs.P.RawMatrix().Data...)
		snap.ProbabilityKind = uint8(probs.Kind)
	}

	start := time.Now()
	path, err := store.Save(snap)
	e.opts.metricsCollector.RecordCheckpoint(time.Since(start), err)
	logger.LogCheckpoint(ctx, path, err)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var it *perplexity.ErrInvalidTarget
	if errors.As(err, &it) {
		return &ErrInvalidPerplexity{Perplexity: it.Target, cause: err}
	}
	return err
}
