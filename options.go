package sneer

import (
	"log/slog"

	"github.com/directorscut82/sneer/checkpoint"
	"github.com/directorscut82/sneer/kernel"
	"github.com/directorscut82/sneer/optimizer"
)

// StepPolicy selects the step-size strategy for the optimizer.
type StepPolicy int

const (
	// StepAdaptiveGain keeps per-coordinate gains on top of the learning
	// rate. The default.
	StepAdaptiveGain StepPolicy = iota
	// StepFixed applies the plain learning rate everywhere.
	StepFixed
	// StepBoldDriver grows the global rate on accepted steps and cuts it on
	// rejections. Pair it with a cost validator.
	StepBoldDriver
)

func (p StepPolicy) String() string {
	switch p {
	case StepAdaptiveGain:
		return "AdaptiveGain"
	case StepFixed:
		return "Fixed"
	case StepBoldDriver:
		return "BoldDriver"
	default:
		return "Unknown"
	}
}

type options struct {
	outputDims         int
	perplexity         float64
	tolerance          float64
	maxCalibrationIter int
	kernelType         kernel.Type
	parallelism        int

	iterations     int
	learningRate   float64
	stepPolicy     StepPolicy
	momentum       float64
	finalMomentum  float64
	momentumSwitch int
	lookahead      bool

	exaggeration      float64
	exaggerationIters int

	multiscale      bool
	mirrorScale     float64
	mirrorEnabled   bool
	rebuildInterval int

	seed       int64
	validators []optimizer.Strategy

	checkpointDir         string
	checkpointEvery       int
	checkpointCompression checkpoint.Compression

	logger           *Logger
	metricsCollector MetricsCollector
}

// Option configures an Embedder.
type Option func(*options)

// WithOutputDims sets the embedding dimensionality. Default 2.
func WithOutputDims(d int) Option {
	return func(o *options) {
		o.outputDims = d
	}
}

// WithPerplexity sets the target perplexity, the effective neighborhood
// size each input row is calibrated to. Must be in (0, N-1]. Default 30.
func WithPerplexity(p float64) Option {
	return func(o *options) {
		o.perplexity = p
	}
}

// WithTolerance sets the entropy tolerance for the per-row calibration.
// Default 1e-5.
func WithTolerance(tol float64) Option {
	return func(o *options) {
		o.tolerance = tol
	}
}

// WithKernel selects the input weighting kernel. Default Gaussian.
func WithKernel(t kernel.Type) Option {
	return func(o *options) {
		o.kernelType = t
	}
}

// WithParallelism bounds the number of rows calibrated concurrently.
// Values below 1 mean one worker per CPU.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithIterations sets the optimization iteration count. Default 1000.
func WithIterations(n int) Option {
	return func(o *options) {
		o.iterations = n
	}
}

// WithLearningRate sets the base step size. Default 100.
func WithLearningRate(eta float64) Option {
	return func(o *options) {
		o.learningRate = eta
	}
}

// WithStepPolicy selects the step-size strategy. Default StepAdaptiveGain.
func WithStepPolicy(p StepPolicy) Option {
	return func(o *options) {
		o.stepPolicy = p
	}
}

// WithMomentum configures the momentum schedule: initial coefficient, final
// coefficient, and the iteration at which to switch. Pass initial 0 to
// disable momentum entirely. Default 0.5 → 0.8 at iteration 250.
func WithMomentum(initial, final float64, switchAt int) Option {
	return func(o *options) {
		o.momentum = initial
		o.finalMomentum = final
		o.momentumSwitch = switchAt
	}
}

// WithLookahead samples the gradient at the anticipated post-momentum
// position (Nesterov) instead of the current one.
func WithLookahead(on bool) Option {
	return func(o *options) {
		o.lookahead = on
	}
}

// WithEarlyExaggeration multiplies the input probabilities by factor for
// the first iters iterations. Ignored by distance-matching methods.
func WithEarlyExaggeration(factor float64, iters int) Option {
	return func(o *options) {
		o.exaggeration = factor
		o.exaggerationIters = iters
	}
}

// WithMultiscale enables a multiscale perplexity schedule: the run starts
// at the largest power-of-two perplexity below N/4 and rebuilds the input
// probabilities at interval iterations, halving the target until it
// reaches the configured perplexity. Pass interval 0 for an even split of
// the iteration budget.
func WithMultiscale(interval int) Option {
	return func(o *options) {
		o.multiscale = true
		o.rebuildInterval = interval
	}
}

// WithPrecisionMirroring transfers the calibrated input precisions, scaled
// by scale, to the output kernel after every probability build. Only
// row-normalized methods have per-point output precisions to mirror.
func WithPrecisionMirroring(scale float64) Option {
	return func(o *options) {
		o.mirrorEnabled = true
		o.mirrorScale = scale
	}
}

// WithSeed seeds the random initial coordinates. Default 1.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithValidator attaches an extra step validator to the optimizer.
func WithValidator(v optimizer.Strategy) Option {
	return func(o *options) {
		o.validators = append(o.validators, v)
	}
}

// WithCheckpoint saves a compressed snapshot to dir every k iterations.
func WithCheckpoint(dir string, every int, c checkpoint.Compression) Option {
	return func(o *options) {
		o.checkpointDir = dir
		o.checkpointEvery = every
		o.checkpointCompression = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		outputDims:         2,
		perplexity:         30,
		tolerance:          1e-5,
		maxCalibrationIter: 50,
		kernelType:         kernel.TypeGaussian,
		iterations:         1000,
		learningRate:       100,
		stepPolicy:         StepAdaptiveGain,
		momentum:           0.5,
		finalMomentum:      0.8,
		momentumSwitch:     250,
		exaggeration:       1,
		seed:               1,
		logger:             NoopLogger(),
		metricsCollector:   NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
