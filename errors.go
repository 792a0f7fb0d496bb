package sneer

import (
	"errors"
	"fmt"
)

var (
	// ErrNilInput is returned when Embed receives no data.
	ErrNilInput = errors.New("nil input")

	// ErrInvalidIterations is returned when the iteration count is not positive.
	ErrInvalidIterations = errors.New("iterations must be positive")

	// ErrInvalidLearningRate is returned when the learning rate is not positive.
	ErrInvalidLearningRate = errors.New("learning rate must be positive")
)

// ErrInvalidPerplexity indicates a target perplexity outside (0, N-1].
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidPerplexity struct {
	Perplexity float64
	cause      error
}

func (e *ErrInvalidPerplexity) Error() string {
	return fmt.Sprintf("invalid perplexity: %g", e.Perplexity)
}

func (e *ErrInvalidPerplexity) Unwrap() error { return e.cause }

// ErrInvalidDimension indicates an invalid configured output dimension.
type ErrInvalidDimension struct {
	Dimension int
	cause     error
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid output dimension: %d", e.Dimension)
}

func (e *ErrInvalidDimension) Unwrap() error { return e.cause }

// ErrInvalidMethod indicates an unsupported embedding method.
type ErrInvalidMethod struct {
	Method Method
	cause  error
}

func (e *ErrInvalidMethod) Error() string {
	return fmt.Sprintf("invalid method: %d", e.Method)
}

func (e *ErrInvalidMethod) Unwrap() error { return e.cause }
