// Package gradient converts a per-pair stiffness matrix into a coordinate
// gradient via the points-on-springs formulation.
//
// The engine is generic: the stiffness matrix is produced externally by a
// cost/kernel-specific formula (package cost), and the engine only performs
// the O(N²D) contraction against the coordinate displacements. A
// finite-difference oracle is included for correctness cross-checks in
// tests; it never runs on the optimization path.
package gradient
