// Package linalg solves square linear systems A·x = b.
//
// Two storage forms satisfy the same [Matrix] contract:
//
//   - [Dense]: row-major values in one contiguous slice
//   - [Sparse]: a (row, col) → value map holding nonzeros only
//
// Both expose exact elimination ([Matrix.Gaussian],
// [Matrix.GaussianPartialPivot]) and stationary relaxation
// ([Matrix.Jacobi], [Matrix.GaussSeidel]). The algorithms are written once
// against an internal row-scanning grid, so the two forms return identical
// results for identical input.
//
// # Example
//
//	a, _ := linalg.SparsePath(6)
//	x, err := a.GaussianPartialPivot(linalg.PathRHS(6))
//
// # Ownership
//
// Solvers never mutate the receiver or the caller's vectors. Elimination
// works on a private clone and every result is a freshly allocated slice.
package linalg
