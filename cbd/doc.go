// Package cbd fits and forecasts the Cairns-Blake-Dowd two-factor model.
//
// The logit crude-rate surface X[t,x] = ln(q/(1−q)) is explained per year by a
// level k1_t and a slope k2_t over centred age:
//
//	X[t,x] ≈ k1_t + (x − x̄)·k2_t
//	k1_t = mean_x X[t,x]
//	k2_t = Σ_x (x − x̄)·X[t,x] / Σ_x (x − x̄)²
//
// Reconstructed rates are qx_cbd = 1/(1+exp(−(k1_t + (x − x̄)·k2_t))).
// Forecasting extrapolates k1 and k2 independently as random walks with drift.
package cbd
