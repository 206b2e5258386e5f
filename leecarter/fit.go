package leecarter

import (
	"fmt"
	"math"

	"github.com/katalvlaran/qxcast"
	"github.com/katalvlaran/qxcast/frame"
	"github.com/katalvlaran/qxcast/matrix"
	"github.com/katalvlaran/qxcast/surface"
)

// Fitted is an immutable Lee-Carter fit. Slices are indexed like Years and
// Ages and must not be modified by callers.
type Fitted struct {
	Columns surface.Columns
	Years   []int
	Ages    []int

	Ax []float64 // age effect, len(Ages)
	Kt []float64 // period index, len(Years); sums to 0
	Bx []float64 // age sensitivity, len(Ages)

	// Clamped counts qx_raw cells moved to ε under the Clamp policy.
	Clamped int

	grid  *surface.Grid
	frame *frame.Frame
}

// fitted reports whether f came out of Fit. A nil or zero-value Fitted is unfit.
func (f *Fitted) fitted() bool { return f != nil && f.grid != nil }

// Rate returns qx_lc at (age, year) for fitted keys;
// false for unfit values.
func (f *Fitted) Rate(age, year int) (float64, bool) {
	if !f.fitted() {
		return 0, false
	}
	return f.grid.Rate(age, year)
}

// Grid returns a copy of the years × ages qx_lc matrix. Nil when unfit.
func (f *Fitted) Grid() *surface.Grid {
	if !f.fitted() {
		return nil
	}
	return &surface.Grid{Years: f.Years, Ages: f.Ages, Rates: f.grid.Rates.Clone()}
}

// Frame returns the fitted surface frame with qx_lc added. Nil when unfit.
func (f *Fitted) Frame() *frame.Frame {
	if !f.fitted() {
		return nil
	}
	return f.frame.Clone()
}

// FitFrame re-enters an already structured frame (age, year and qx_raw
// columns) and fits it.
func (m *Model) FitFrame(df *frame.Frame) (*Fitted, error) {
	s, err := surface.FromFrame(df, m.opts.Columns, surface.WithLogger(m.logger))
	if err != nil {
		return nil, lcErrorf("FitFrame", err)
	}
	return m.Fit(s)
}

// Fit decomposes the log crude rates of s.
//
// Implementation:
//   - Stage 1: pivot to years × ages (IncompleteSurfaceError on gaps) and take
//     L = ln qx_raw under the boundary policy.
//   - Stage 2: a_x = column means of L; C = L − a_x; k_t = row sums of C.
//   - Stage 3: b_x = Cᵀk / Σk²; b_x = 0 when Σk² = 0.
//   - Stage 4: qx_lc = exp(a_x + b_x·k_t), joined back onto the surface frame.
//
// Complexity: O(|years|·|ages|) time and space.
func (m *Model) Fit(s *surface.Surface) (*Fitted, error) {
	if s == nil {
		return nil, lcErrorf("Fit", fmt.Errorf("%w: nil surface", qxcast.ErrBadInput))
	}
	m.logger.Info("creating Lee Carter model with qx_raw rates")
	g, err := s.Grid()
	if err != nil {
		return nil, lcErrorf("Fit", err)
	}
	m.logger.Info("surface ranges",
		"age_start", g.Ages[0], "age_end", g.Ages[len(g.Ages)-1],
		"year_start", g.Years[0], "year_end", g.Years[len(g.Years)-1])

	L, clamped, err := g.Log(m.opts.Boundary, m.logger)
	if err != nil {
		return nil, lcErrorf("Fit", err)
	}

	m.logger.Debug("calculating a_x")
	C, ax, err := matrix.CenterColumns(L)
	if err != nil {
		return nil, lcErrorf("Fit", err)
	}

	m.logger.Debug("calculating k_t")
	kt, err := matrix.RowSums(C)
	if err != nil {
		return nil, lcErrorf("Fit", err)
	}

	m.logger.Debug("calculating b_x")
	bx, err := matrix.MulTVec(C, kt)
	if err != nil {
		return nil, lcErrorf("Fit", err)
	}
	var ss float64
	for _, k := range kt {
		ss += k * k
	}
	for j := range bx {
		if ss == 0 {
			bx[j] = 0
			continue
		}
		bx[j] /= ss
	}
	if ss == 0 {
		m.logger.Warn("period index is identically zero; b_x set to 0")
	}

	m.logger.Info("calculating qx_lc = exp(a_x + b_x * k_t)")
	rates, err := reconstruct(ax, bx, kt)
	if err != nil {
		return nil, lcErrorf("Fit", err)
	}

	f := &Fitted{
		Columns: s.Columns,
		Years:   g.Years,
		Ages:    g.Ages,
		Ax:      ax,
		Kt:      kt,
		Bx:      bx,
		Clamped: clamped,
		grid:    &surface.Grid{Years: g.Years, Ages: g.Ages, Rates: rates},
	}

	m.logger.Info("adding qx_lc to lc_df")
	base, err := s.Frame()
	if err != nil {
		return nil, lcErrorf("Fit", err)
	}
	f.frame, err = surface.Map(base, f.grid, surface.MapSpec{AgeCol: s.Columns.Age, YearCol: s.Columns.Year, RateCol: Field})
	if err != nil {
		return nil, lcErrorf("Fit", err)
	}

	return f, nil
}

// reconstruct returns exp(a_x + b_x·k_t) as a len(kt) × len(ax) matrix.
func reconstruct(ax, bx, kt []float64) (*matrix.Dense, error) {
	bk, err := matrix.Outer(kt, bx)
	if err != nil {
		return nil, err
	}
	out, err := matrix.BroadcastAddCols(bk, ax)
	if err != nil {
		return nil, err
	}
	if err = out.Apply(func(_, _ int, v float64) float64 { return math.Exp(v) }); err != nil {
		return nil, err
	}
	return out, nil
}
