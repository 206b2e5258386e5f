package drift

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

var (
	// ErrEmptySeries indicates an index with no observations.
	ErrEmptySeries = errors.New("drift: empty series")

	// ErrBadSteps indicates a forecast horizon < 1.
	ErrBadSteps = errors.New("drift: steps must be >= 1")

	// ErrBadVariance indicates a negative or non-finite noise variance.
	ErrBadVariance = errors.New("drift: variance must be finite and >= 0")

	// ErrNaNInf indicates a NaN or ±Inf value in the observed series.
	ErrNaNInf = errors.New("drift: NaN or Inf in series")
)

// Drift returns the mean per-step change of k: (k[last] − k[first]) / len(k).
// A single observation has zero drift.
//
// Complexity: O(1).
func Drift(k []float64) (float64, error) {
	if len(k) == 0 {
		return 0, ErrEmptySeries
	}
	return (k[len(k)-1] - k[0]) / float64(len(k)), nil
}

// Walk is one extrapolated index path.
type Walk struct {
	// Mu is the per-step drift.
	Mu float64
	// Path holds k[last+1] .. k[last+steps].
	Path []float64
}

// Extrapolate continues k for steps periods as a random walk with drift.
//
// Implementation:
//   - Stage 1: validate the series, horizon and variance.
//   - Stage 2: mu from Drift, then Path[h−1] = k[last] + mu·h + ε_h for h=1..steps.
//
// With variance==0 rng is never used (and may be nil). Otherwise exactly steps
// values are drawn from rng, in horizon order.
//
// Complexity: O(len(k) + steps).
func Extrapolate(k []float64, steps int, variance float64, rng *rand.Rand) (Walk, error) {
	if len(k) == 0 {
		return Walk{}, ErrEmptySeries
	}
	if steps < 1 {
		return Walk{}, fmt.Errorf("%w: got %d", ErrBadSteps, steps)
	}
	if variance < 0 || math.IsNaN(variance) || math.IsInf(variance, 0) {
		return Walk{}, fmt.Errorf("%w: got %g", ErrBadVariance, variance)
	}
	var i int
	for i = range k {
		if math.IsNaN(k[i]) || math.IsInf(k[i], 0) {
			return Walk{}, fmt.Errorf("%w: index %d", ErrNaNInf, i)
		}
	}

	mu, _ := Drift(k)
	last := k[len(k)-1]
	eps := normals(steps, math.Sqrt(variance), rng)

	path := make([]float64, steps)
	var h int
	for h = 1; h <= steps; h++ {
		path[h-1] = last + mu*float64(h) + eps[h-1]
	}
	return Walk{Mu: mu, Path: path}, nil
}

// Years returns the contiguous forecast years following last: last+1 .. last+steps.
func Years(last, steps int) []int {
	if steps < 1 {
		return nil
	}
	out := make([]int, steps)
	for h := range out {
		out[h] = last + h + 1
	}
	return out
}
