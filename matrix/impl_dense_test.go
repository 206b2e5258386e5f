// SPDX-License-Identifier: MIT

package matrix_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/qxcast/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDense_InvalidShape(t *testing.T) {
	t.Parallel()

	_, err := matrix.NewDense(0, 3)
	assert.ErrorIs(t, err, matrix.ErrInvalidDimensions)
	_, err = matrix.NewDense(2, -1)
	assert.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

func TestNewDenseFrom_Validation(t *testing.T) {
	t.Parallel()

	_, err := matrix.NewDenseFrom(2, 2, []float64{1, 2, 3})
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	_, err = matrix.NewDenseFrom(2, 2, []float64{1, 2, math.NaN(), 4})
	assert.ErrorIs(t, err, matrix.ErrNaNInf)
	assert.Contains(t, err.Error(), "(1,0)")

	src := []float64{1, 2, 3, 4}
	m := NewFilledDense(t, 2, 2, src)
	src[0] = 99
	assert.Equal(t, 1.0, MustAt(t, m, 0, 0), "input slice must be copied")
}

func TestDense_AtSetBounds(t *testing.T) {
	t.Parallel()

	m, err := matrix.NewDense(2, 3)
	require.NoError(t, err)

	require.NoError(t, m.Set(1, 2, 7))
	assert.Equal(t, 7.0, MustAt(t, m, 1, 2))

	_, err = m.At(2, 0)
	assert.ErrorIs(t, err, matrix.ErrOutOfRange)
	assert.ErrorIs(t, m.Set(0, 3, 1), matrix.ErrOutOfRange)
	assert.ErrorIs(t, m.Set(0, 0, math.Inf(-1)), matrix.ErrNaNInf)
}

func TestDense_RowColClone(t *testing.T) {
	t.Parallel()

	m := NewFilledDense(t, 2, 3, []float64{1, 2, 3, 4, 5, 6})

	row, err := m.Row(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 5, 6}, row)

	col, err := m.Col(2)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 6}, col)

	_, err = m.Row(5)
	assert.ErrorIs(t, err, matrix.ErrOutOfRange)
	_, err = m.Col(-1)
	assert.ErrorIs(t, err, matrix.ErrOutOfRange)

	c := m.Clone()
	require.NoError(t, c.Set(0, 0, 100))
	assert.Equal(t, 1.0, MustAt(t, m, 0, 0))
	assert.Equal(t, "[1, 2, 3]\n[4, 5, 6]\n", m.String())
}

func TestDense_ApplyAndDo(t *testing.T) {
	t.Parallel()

	m := NewFilledDense(t, 2, 2, []float64{1, 2, 3, 4})
	require.NoError(t, m.Apply(func(_, _ int, v float64) float64 { return v * 10 }))
	assert.Equal(t, 40.0, MustAt(t, m, 1, 1))

	var visited int
	m.Do(func(i, j int, v float64) bool {
		visited++
		return !(i == 0 && j == 1)
	})
	assert.Equal(t, 2, visited, "Do must stop when the callback returns false")

	err := m.Apply(func(_, _ int, v float64) float64 { return math.Log(v - 10) })
	assert.ErrorIs(t, err, matrix.ErrNaNInf)
}
