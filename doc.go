// Package sneer computes low-dimensional embeddings that preserve the
// neighborhood structure of high-dimensional data (the SNE family: SNE,
// symmetric t-SNE, plus a metric-stress mode).
//
// The pipeline has two stages. First a perplexity calibration turns
// pairwise input distances into a probability matrix: every row is tuned by
// bisection on its precision until its entropy matches the target
// perplexity. Then a strategy-pluggable gradient-descent optimizer moves
// the embedding coordinates to make the output similarities match the
// calibrated input probabilities.
//
// # Quick Start
//
// Embed raw vectors with symmetric t-SNE:
//
//	ctx := context.Background()
//	emb, err := sneer.New(sneer.TSNE,
//	    sneer.WithPerplexity(30),
//	    sneer.WithIterations(1000),
//	    sneer.WithEarlyExaggeration(4, 100),
//	)
//	if err != nil {
//	    panic(err)
//	}
//	result, err := emb.Embed(ctx, x) // x is an N×D *mat.Dense
//
// Precomputed distances work the same way:
//
//	result, err := emb.EmbedDistances(ctx, d2) // d2 is an N×N *mat.SymDense
//
// # Tuning
//
// The optimizer's behavior is assembled from options:
//
//	emb, err := sneer.New(sneer.SNE,
//	    sneer.WithPerplexity(15),
//	    sneer.WithLookahead(true),               // Nesterov gradient sampling
//	    sneer.WithStepPolicy(sneer.StepBoldDriver),
//	    sneer.WithMultiscale(0),                 // coarse-to-fine perplexity schedule
//	    sneer.WithPrecisionMirroring(1),         // mirror input precisions to the output kernel
//	    sneer.WithCheckpoint("./ckpt", 100, checkpoint.CompressionZSTD),
//	)
//
// Per-row calibration failures are never errors: they are counted,
// surfaced through the Logger and MetricsCollector, and the affected rows
// stay usable. Only configuration problems and context cancellation abort
// a run.
//
// The underlying packages (kernel, perplexity, cost, gradient, optimizer,
// checkpoint) are exported for callers who want to assemble a custom
// pipeline.
package sneer
