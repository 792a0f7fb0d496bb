// Package cost supplies the cost/stiffness plug-in catalog consumed by the
// optimization engine.
//
// A Function couples a scalar divergence with the closed-form stiffness
// formula of its gradient; a Similarity turns the current embedding
// coordinates into output probabilities and raw kernel weights. The engine
// never inspects either beyond these signatures.
//
// # Supported pairings
//
//   - KLJoint with JointStudentT: symmetric t-SNE
//   - KLRow with RowGaussian: classic SNE
//   - Stress with Distances: metric stress (distance matching)
//
// Each pairing is cross-checked against the finite-difference oracle in
// package gradient.
package cost
