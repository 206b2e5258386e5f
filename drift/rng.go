package drift

import "math/rand"

// DefaultSeed is the fixed seed used when callers pass seed==0.
const DefaultSeed int64 = 1

// NewRNG returns a deterministic *rand.Rand.
// Policy: seed==0 ⇒ use DefaultSeed; otherwise use the provided seed verbatim.
//
// Complexity: O(1).
func NewRNG(seed int64) *rand.Rand {
	var s int64
	s = seed
	if s == 0 {
		s = DefaultSeed
	}
	return rand.New(rand.NewSource(s))
}

// normals draws n independent N(0, sigma²) values from rng.
// sigma==0 ⇒ zeros without touching rng.
//
// Complexity: O(n).
func normals(n int, sigma float64, rng *rand.Rand) []float64 {
	out := make([]float64, n)
	if sigma == 0 {
		return out
	}
	if rng == nil {
		rng = NewRNG(0)
	}

	var i int
	for i = 0; i < n; i++ {
		out[i] = rng.NormFloat64() * sigma
	}
	return out
}
