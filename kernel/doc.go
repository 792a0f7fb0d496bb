// Package kernel provides the similarity weighting functions used to turn
// pairwise distances into neighborhood weights.
//
// A kernel maps a squared distance and a per-point precision (beta) to a
// nonnegative weight. The perplexity calibration in package perplexity
// assumes the kernel is monotonically decreasing in effective bandwidth:
// increasing beta must decrease the entropy of the induced probability row.
// This precondition is documented, not enforced.
//
// # Supported Kernels
//
//   - TypeGaussian: exp(-beta * d²) (default)
//   - TypeLaplacian: exp(-beta * d)
//   - TypeStudentT: 1 / (1 + beta * d²)
//
// # Usage
//
//	w := kernel.Gaussian(d2, beta)
//	fn, _ := kernel.Provider(kernel.TypeGaussian)
package kernel
