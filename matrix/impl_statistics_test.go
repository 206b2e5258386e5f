// SPDX-License-Identifier: MIT

package matrix_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/qxcast/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ------------------------------
// Reductions
// ------------------------------

func TestSumsAndMeans(t *testing.T) {
	t.Parallel()

	X := NewFilledDense(t, 2, 3, []float64{1, 2, 3, 10, 20, 30})

	cs, err := matrix.ColSums(X)
	require.NoError(t, err)
	sliceClose(t, cs, []float64{11, 22, 33}, 0)

	rs, err := matrix.RowSums(X)
	require.NoError(t, err)
	sliceClose(t, rs, []float64{6, 60}, 0)

	cm, err := matrix.ColMeans(X)
	require.NoError(t, err)
	sliceClose(t, cm, []float64{5.5, 11, 16.5}, epsTight)

	rm, err := matrix.RowMeans(X)
	require.NoError(t, err)
	sliceClose(t, rm, []float64{2, 20}, epsTight)
}

func TestReductions_Nil(t *testing.T) {
	t.Parallel()

	_, err := matrix.ColSums(nil)
	assert.ErrorIs(t, err, matrix.ErrNilMatrix)
	_, err = matrix.RowMeans(nil)
	assert.ErrorIs(t, err, matrix.ErrNilMatrix)
	_, _, err = matrix.CenterColumns(nil)
	assert.ErrorIs(t, err, matrix.ErrNilMatrix)
}

// ------------------------------
// CenterColumns
// ------------------------------

func TestCenterColumns(t *testing.T) {
	t.Parallel()

	X := NewFilledDense(t, 2, 3, []float64{1, 2, 3, 10, 20, 30})
	Xc, means, err := matrix.CenterColumns(X)
	require.NoError(t, err)
	sliceClose(t, means, []float64{5.5, 11, 16.5}, epsTight)

	var i, j int
	var sum float64
	for j = 0; j < 3; j++ {
		sum = 0
		for i = 0; i < 2; i++ {
			sum += MustAt(t, Xc, i, j)
		}
		if math.Abs(sum) > epsTight {
			t.Fatalf("col %d not centered: sum=%g", j, sum)
		}
	}
	assert.Equal(t, 1.0, MustAt(t, X, 0, 0), "input must not be mutated")
}

// ------------------------------
// Compositions
// ------------------------------

func TestOuterAndBroadcast(t *testing.T) {
	t.Parallel()

	O, err := matrix.Outer([]float64{1, 2}, []float64{3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, 10.0, MustAt(t, O, 1, 2))

	B, err := matrix.BroadcastAddCols(O, []float64{1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 11.0, MustAt(t, B, 1, 2))

	_, err = matrix.BroadcastAddCols(O, []float64{1})
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	_, err = matrix.Outer(nil, []float64{1})
	assert.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

func TestMulVec(t *testing.T) {
	t.Parallel()

	X := NewFilledDense(t, 2, 3, []float64{1, 2, 3, 4, 5, 6})

	y, err := matrix.MulVec(X, []float64{1, 0, -1})
	require.NoError(t, err)
	sliceClose(t, y, []float64{-2, -2}, 0)

	yt, err := matrix.MulTVec(X, []float64{1, 2})
	require.NoError(t, err)
	sliceClose(t, yt, []float64{9, 12, 15}, 0)

	_, err = matrix.MulVec(X, []float64{1})
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)
	_, err = matrix.MulTVec(X, []float64{1, 2, 3})
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}
