// Package matrix provides the dense grid primitive behind rate surfaces.
//
// Dense is a row-major float64 grid with bound-checked At/Set, a finite-value
// policy (NaN/±Inf rejected on write by default) and a handful of
// deterministic statistics kernels:
//
//   - ColMeans / RowMeans / RowSums / ColSums
//   - CenterColumns (X − column means)
//   - Outer (u ⊗ v) and BroadcastAddCols (X + v per column)
//
// For mortality surfaces rows are calendar years and columns are ages, so
// ColMeans of a log-rate grid is the Lee-Carter age effect and RowSums of the
// centered grid is the time index.
//
// All loops run in fixed i→j order; results are reproducible bit-for-bit.
package matrix
