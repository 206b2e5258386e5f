// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Private element-wise and broadcast kernels (ew*) shared by the
//     statistics and composition helpers, so tight loops live in one place.
//
// Determinism & Performance:
//   - Fixed i→j loops over the flat row-major buffer.
//   - One output allocation per call; inputs are never mutated.

package matrix

import "fmt"

// matrixErrorf wraps err with an operation tag, preserving errors.Is.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// ewBroadcastCols computes out[i,j] = X[i,j] + sign*v[j].
// Time: O(r*c). Space: O(r*c).
func ewBroadcastCols(X *Dense, v []float64, sign float64, tag string) (*Dense, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, matrixErrorf(tag, err)
	}
	if err := ValidateVecLen(v, X.c); err != nil {
		return nil, matrixErrorf(tag, err)
	}
	out := X.Clone()
	var i, j, base int
	for i = 0; i < X.r; i++ {
		base = i * X.c
		for j = 0; j < X.c; j++ {
			out.data[base+j] += sign * v[j]
		}
	}

	return out, nil
}

// ewReduceCols returns per-column sums Σ_i X[i,j].
// Time: O(r*c). Space: O(c).
func ewReduceCols(X *Dense) []float64 {
	sums := make([]float64, X.c)
	var i, j, base int
	for i = 0; i < X.r; i++ {
		base = i * X.c
		for j = 0; j < X.c; j++ {
			sums[j] += X.data[base+j]
		}
	}

	return sums
}

// ewReduceRows returns per-row sums Σ_j X[i,j].
// Time: O(r*c). Space: O(r).
func ewReduceRows(X *Dense) []float64 {
	sums := make([]float64, X.r)
	var i, j, base int
	for i = 0; i < X.r; i++ {
		base = i * X.c
		for j = 0; j < X.c; j++ {
			sums[i] += X.data[base+j]
		}
	}

	return sums
}
