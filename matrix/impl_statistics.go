// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Provide the reductions and compositions used by the decomposition
//     models: column/row sums and means, column centering, outer products,
//     matrix-vector products.
//
// Exposed API:
//   - ColSums(X), RowSums(X)       -> per-column / per-row sums
//   - ColMeans(X), RowMeans(X)     -> per-column / per-row means
//   - CenterColumns(X)             -> (X − colMeans, colMeans)
//   - BroadcastAddCols(X, v)       -> X[i,j] + v[j]
//   - Outer(u, v)                  -> u[i]*v[j]
//   - MulVec(X, v), MulTVec(X, v)  -> X·v (len r), Xᵀ·v (len c)
//
// Determinism & Performance:
//   - Fixed i→j traversal for all loops; no map iteration.

package matrix

const (
	opColSums       = "ColSums"
	opRowSums       = "RowSums"
	opColMeans      = "ColMeans"
	opRowMeans      = "RowMeans"
	opCenterColumns = "CenterColumns"
	opBroadcastAdd  = "BroadcastAddCols"
	opOuter         = "Outer"
	opMulVec        = "MulVec"
	opMulTVec       = "MulTVec"
)

// ColSums returns c[j] = Σ_i X[i,j].
// Complexity: O(r*c).
func ColSums(X *Dense) ([]float64, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, matrixErrorf(opColSums, err)
	}

	return ewReduceCols(X), nil
}

// RowSums returns r[i] = Σ_j X[i,j].
// Complexity: O(r*c).
func RowSums(X *Dense) ([]float64, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, matrixErrorf(opRowSums, err)
	}

	return ewReduceRows(X), nil
}

// ColMeans returns the per-column arithmetic means.
// Complexity: O(r*c).
func ColMeans(X *Dense) ([]float64, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, matrixErrorf(opColMeans, err)
	}
	means := ewReduceCols(X)
	inv := 1.0 / float64(X.r)
	for j := range means {
		means[j] *= inv
	}

	return means, nil
}

// RowMeans returns the per-row arithmetic means.
// Complexity: O(r*c).
func RowMeans(X *Dense) ([]float64, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, matrixErrorf(opRowMeans, err)
	}
	means := ewReduceRows(X)
	inv := 1.0 / float64(X.c)
	for i := range means {
		means[i] *= inv
	}

	return means, nil
}

// CenterColumns subtracts the per-column mean from every element.
//
// Implementation:
//   - Stage 1: ColMeans.
//   - Stage 2: broadcast-subtract the means over rows into a new Dense.
//
// Returns:
//   - centered copy (r×c) and the column means (len c).
//
// Complexity:
//   - Time O(r*c), Space O(r*c).
func CenterColumns(X *Dense) (*Dense, []float64, error) {
	means, err := ColMeans(X)
	if err != nil {
		return nil, nil, matrixErrorf(opCenterColumns, err)
	}
	Xc, err := ewBroadcastCols(X, means, -1, opCenterColumns)
	if err != nil {
		return nil, nil, err
	}

	return Xc, means, nil
}

// BroadcastAddCols returns out[i,j] = X[i,j] + v[j].
// Complexity: O(r*c).
func BroadcastAddCols(X *Dense, v []float64) (*Dense, error) {
	return ewBroadcastCols(X, v, +1, opBroadcastAdd)
}

// Outer returns the len(u)×len(v) matrix out[i,j] = u[i]*v[j].
//
// Errors:
//   - ErrInvalidDimensions when either vector is empty.
//
// Complexity: O(len(u)*len(v)).
func Outer(u, v []float64) (*Dense, error) {
	out, err := NewDense(len(u), len(v))
	if err != nil {
		return nil, matrixErrorf(opOuter, err)
	}
	var i, j, base int
	for i = 0; i < out.r; i++ {
		base = i * out.c
		for j = 0; j < out.c; j++ {
			out.data[base+j] = u[i] * v[j]
		}
	}

	return out, nil
}

// MulVec returns y = X·v, y[i] = Σ_j X[i,j]*v[j].
// Complexity: O(r*c).
func MulVec(X *Dense, v []float64) ([]float64, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, matrixErrorf(opMulVec, err)
	}
	if err := ValidateVecLen(v, X.c); err != nil {
		return nil, matrixErrorf(opMulVec, err)
	}
	y := make([]float64, X.r)
	var i, j, base int
	for i = 0; i < X.r; i++ {
		base = i * X.c
		for j = 0; j < X.c; j++ {
			y[i] += X.data[base+j] * v[j]
		}
	}

	return y, nil
}

// MulTVec returns y = Xᵀ·v, y[j] = Σ_i X[i,j]*v[i].
// Complexity: O(r*c).
func MulTVec(X *Dense, v []float64) ([]float64, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, matrixErrorf(opMulTVec, err)
	}
	if err := ValidateVecLen(v, X.r); err != nil {
		return nil, matrixErrorf(opMulTVec, err)
	}
	y := make([]float64, X.c)
	var i, j, base int
	for i = 0; i < X.r; i++ {
		base = i * X.c
		for j = 0; j < X.c; j++ {
			y[j] += X.data[base+j] * v[i]
		}
	}

	return y, nil
}
