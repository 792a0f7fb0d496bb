// Package perplexity calibrates pairwise similarity probabilities to a
// target perplexity.
//
// Each row of a squared-distance matrix is searched independently for the
// precision (beta) at which the entropy of the kernel-weighted, self-masked,
// renormalized row equals log2 of the target perplexity. The Builder runs
// the per-row searches (optionally in parallel), assembles the result into a
// row-stochastic or joint probability matrix, and replays a registry of
// rebuild hooks so dependent state can refresh.
//
// Rows that fail to converge within the iteration bound are a soft failure:
// they are counted and surfaced once in aggregate, never as per-row errors.
package perplexity
