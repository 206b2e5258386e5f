// Package drift extrapolates a fitted time index as a random walk with drift.
//
// Lee-Carter and CBD both reduce a mortality surface to one or two period
// indices k_t. Forecasting continues each index from its last observed value
// with a constant per-step drift
//
//	mu = (k[last] − k[first]) / len(k)
//	k[last+h] = k[last] + mu·h + ε_h,  ε_h ~ N(0, variance)
//
// Noise is optional. With variance 0 no random numbers are drawn and the path
// is the deterministic drift line. When variance > 0 the draws come from a
// caller-owned *rand.Rand built by NewRNG, so a fixed seed reproduces the path.
//
// Concurrency:
//   - math/rand.Rand is NOT goroutine-safe. Build one RNG per forecast call.
package drift
