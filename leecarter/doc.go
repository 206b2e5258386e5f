// Package leecarter fits and forecasts the Lee-Carter mortality model.
//
// The log crude-rate surface L[t,x] = ln qx_raw (years t as rows, ages x as
// columns) is decomposed as
//
//	L[t,x] ≈ a_x + b_x·k_t
//
// where a_x is the age effect (mean log rate per age), k_t the period index
// (sum over ages of the centred log rates) and b_x the age sensitivity to the
// index (least squares of the centred rates on k_t). Reconstructed rates are
// qx_lc = exp(a_x + b_x·k_t).
//
// Forecasting extrapolates k_t as a random walk with drift (package drift) and
// reuses a_x and b_x unchanged.
//
// Lifecycle:
//
//	m, _ := leecarter.New(leecarter.DefaultOptions())
//	s, _ := m.Structure(experience)   // aggregate to a surface
//	f, _ := m.Fit(s)                   // immutable *Fitted
//	fc, _ := m.Forecast(f, 10)         // future years
//	out, _ := m.Map(f, policies, leecarter.MapOptions{})
//
// A Model holds configuration only and may be shared between goroutines.
package leecarter
