// SPDX-License-Identifier: MIT

package qxcast

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels shared by every model package. Match them with errors.Is.
var (
	// ErrModelNotFitted is returned by Forecast, Map and Odds when no fitted
	// parameters were supplied (the "unfit" state is a nil fitted value).
	ErrModelNotFitted = errors.New("qxcast: model is not fitted, call Fit first")

	// ErrIncompleteSurface is matched by every *IncompleteSurfaceError.
	ErrIncompleteSurface = errors.New("qxcast: incomplete rate surface")

	// ErrBoundaryRate is matched by every *BoundaryError.
	ErrBoundaryRate = errors.New("qxcast: rate outside transform domain")

	// ErrBadInput signals invalid caller arguments (negative variance,
	// non-positive horizon, non-integral keys, length mismatch).
	ErrBadInput = errors.New("qxcast: bad input")
)

// MissingColumnError lists the required columns absent from an input frame.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return "qxcast: missing columns: " + strings.Join(e.Columns, ", ")
}

// Cell identifies one (age, year) coordinate of a rate surface.
type Cell struct {
	Age  int
	Year int
}

// IncompleteSurfaceError reports the (age, year) combinations that have no
// observation when a surface is pivoted to a rectangular grid.
type IncompleteSurfaceError struct {
	Missing []Cell
}

func (e *IncompleteSurfaceError) Error() string {
	const shown = 5
	parts := make([]string, 0, shown+1)
	for i, c := range e.Missing {
		if i == shown {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, fmt.Sprintf("age=%d year=%d", c.Age, c.Year))
	}

	return fmt.Sprintf("qxcast: incomplete rate surface: %d missing cells [%s]",
		len(e.Missing), strings.Join(parts, ", "))
}

// Is lets errors.Is(err, ErrIncompleteSurface) match.
func (e *IncompleteSurfaceError) Is(target error) bool { return target == ErrIncompleteSurface }

// BoundaryError reports a rate for which the requested transform (log or
// logit) is undefined under the Reject boundary policy.
type BoundaryError struct {
	Age       int
	Year      int
	Rate      float64
	Transform string
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("qxcast: %s undefined at rate %g (age=%d year=%d)", e.Transform, e.Rate, e.Age, e.Year)
}

// Is lets errors.Is(err, ErrBoundaryRate) match.
func (e *BoundaryError) Is(target error) bool { return target == ErrBoundaryRate }
