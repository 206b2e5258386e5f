// Package surface turns raw experience records into a mortality rate surface
// and back.
//
// 🚀 What is a rate surface?
//
//	One crude rate per (attained age, calendar year):
//	  qx_raw = Σ actual / Σ exposure   (0 when Σ actual is 0)
//	clipped into [0, 1]. Rates above 1 are capped and counted, never dropped.
//
// ✨ Pieces:
//   - Build      - group a Frame by (age, year), sum actual and exposure, compute qx_raw.
//   - FromFrame  - re-enter an already structured frame (age, year, qx_raw).
//   - Grid       - strict rectangular pivot (years × ages); missing cells fail
//     with *qxcast.IncompleteSurfaceError instead of leaking NaN.
//   - Log/Logit  - grid transforms with an explicit boundary policy
//     (Reject by default, Clamp on request).
//   - Map        - left join of model rates back onto any Frame by (age, year).
//
// ⚙️ Usage:
//
//	s, err := surface.Build(df, surface.DefaultColumns())
//	g, err := s.Grid()
//	L, _, err := g.Log(surface.Boundary{}, nil)   // rejects qx_raw == 0
//
// Ages and years must hold integral values; keys are compared as ints.
package surface
