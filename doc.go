// Package qxcast fits and extrapolates mortality-rate surfaces (death
// probability as a function of attained age and calendar year) from raw
// claims/exposure experience.
//
// 🚀 What is qxcast?
//
//	An in-memory, single-shot forecasting engine built around three
//	interchangeable strategies, each following structure → fit → forecast → map:
//		• regression/ - binomial GLM (IRLS) with R-style formula terms
//		• leecarter/  - Lee-Carter rank-one decomposition of log rates
//		• cbd/        - Cairns-Blake-Dowd two-factor logit model
//
// Under the hood:
//
//	frame/   - columnar dataset used for inputs and outputs
//	matrix/  - row-major Dense grid + statistics kernels
//	surface/ - aggregation into a (age, year) rate surface, pivot, log/logit, mapping
//	drift/   - random walk with drift used by both decomposition models
//
// This root package only holds the error taxonomy shared by all strategies.
//
// Quick example:
//
//	m, _ := leecarter.New(leecarter.DefaultOptions())
//	s, _ := m.Structure(df)        // aggregate + qx_raw
//	fit, _ := m.Fit(s)             // a_x, k_t, b_x, qx_lc
//	fc, _ := m.Forecast(fit, 10)   // ten future years
//	out, _ := m.Map(fit, df, leecarter.MapOptions{})
//
//	go get github.com/katalvlaran/qxcast
package qxcast
