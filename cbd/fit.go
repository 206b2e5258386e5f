package cbd

import (
	"fmt"

	"github.com/katalvlaran/qxcast"
	"github.com/katalvlaran/qxcast/frame"
	"github.com/katalvlaran/qxcast/matrix"
	"github.com/katalvlaran/qxcast/surface"
)

// Fitted is an immutable CBD fit.
type Fitted struct {
	Columns surface.Columns
	Years   []int
	Ages    []int

	AgeMean float64
	AgeDiff []float64 // age − AgeMean, len(Ages)
	K1      []float64 // level index, len(Years)
	K2      []float64 // slope index, len(Years)

	Clamped int

	grid  *surface.Grid
	frame *frame.Frame
}

// fitted reports whether f came out of Fit. A nil or zero-value Fitted is unfit.
func (f *Fitted) fitted() bool { return f != nil && f.grid != nil }

// Rate returns qx_cbd at (age, year) for fitted keys;
// false for unfit values.
func (f *Fitted) Rate(age, year int) (float64, bool) {
	if !f.fitted() {
		return 0, false
	}
	return f.grid.Rate(age, year)
}

// Grid returns a copy of the years × ages qx_cbd matrix. Nil when unfit.
func (f *Fitted) Grid() *surface.Grid {
	if !f.fitted() {
		return nil
	}
	return &surface.Grid{Years: f.Years, Ages: f.Ages, Rates: f.grid.Rates.Clone()}
}

// Frame returns the fitted surface frame with qx_cbd added. Nil when unfit.
func (f *Fitted) Frame() *frame.Frame {
	if !f.fitted() {
		return nil
	}
	return f.frame.Clone()
}

// FitFrame re-enters an already structured frame and fits it.
func (m *Model) FitFrame(df *frame.Frame) (*Fitted, error) {
	s, err := surface.FromFrame(df, m.opts.Columns, surface.WithLogger(m.logger))
	if err != nil {
		return nil, cbdErrorf("FitFrame", err)
	}
	return m.Fit(s)
}

// Fit estimates the level and slope indices of s.
//
// Implementation:
//   - Stage 1: pivot to years × ages and take the logit under the boundary policy.
//   - Stage 2: k1 = row means; age_diff = age − mean(age).
//   - Stage 3: k2 = X·age_diff / Σ age_diff²; k2 = 0 for a single age.
//   - Stage 4: qx_cbd = invlogit(k1 + age_diff·k2), joined back onto the surface frame.
//
// Complexity: O(|years|·|ages|).
func (m *Model) Fit(s *surface.Surface) (*Fitted, error) {
	if s == nil {
		return nil, cbdErrorf("Fit", fmt.Errorf("%w: nil surface", qxcast.ErrBadInput))
	}
	m.logger.Info("creating CBD model with qx_raw rates")
	g, err := s.Grid()
	if err != nil {
		return nil, cbdErrorf("Fit", err)
	}

	var ageMean float64
	for _, a := range g.Ages {
		ageMean += float64(a)
	}
	ageMean /= float64(len(g.Ages))
	m.logger.Info("surface ranges",
		"age_start", g.Ages[0], "age_end", g.Ages[len(g.Ages)-1], "age_mean", ageMean,
		"year_start", g.Years[0], "year_end", g.Years[len(g.Years)-1])

	m.logger.Debug("calculating qx_logit")
	X, clamped, err := g.Logit(m.opts.Boundary, m.logger)
	if err != nil {
		return nil, cbdErrorf("Fit", err)
	}

	m.logger.Debug("calculating k_t_1 = mean rate per year")
	k1, err := matrix.RowMeans(X)
	if err != nil {
		return nil, cbdErrorf("Fit", err)
	}

	m.logger.Debug("calculating k_t_2 = Σ((age - age_mean) * qx_logit) / Σ((age - age_mean)^2)")
	ageDiff := make([]float64, len(g.Ages))
	var ss float64
	for j, a := range g.Ages {
		ageDiff[j] = float64(a) - ageMean
		ss += ageDiff[j] * ageDiff[j]
	}
	k2, err := matrix.MulVec(X, ageDiff)
	if err != nil {
		return nil, cbdErrorf("Fit", err)
	}
	for i := range k2 {
		if ss == 0 {
			k2[i] = 0
			continue
		}
		k2[i] /= ss
	}

	m.logger.Info("calculating qx_cbd = exp(qx_logit_cbd) / (1 + exp(qx_logit_cbd))")
	rates, err := reconstruct(k1, k2, ageDiff)
	if err != nil {
		return nil, cbdErrorf("Fit", err)
	}

	f := &Fitted{
		Columns: s.Columns,
		Years:   g.Years,
		Ages:    g.Ages,
		AgeMean: ageMean,
		AgeDiff: ageDiff,
		K1:      k1,
		K2:      k2,
		Clamped: clamped,
		grid:    &surface.Grid{Years: g.Years, Ages: g.Ages, Rates: rates},
	}

	m.logger.Info("adding qx_cbd to cbd_df")
	base, err := s.Frame()
	if err != nil {
		return nil, cbdErrorf("Fit", err)
	}
	f.frame, err = surface.Map(base, f.grid, surface.MapSpec{AgeCol: s.Columns.Age, YearCol: s.Columns.Year, RateCol: Field})
	if err != nil {
		return nil, cbdErrorf("Fit", err)
	}

	return f, nil
}

// reconstruct returns invlogit(k1[t] + ageDiff[x]·k2[t]) as a len(k1) × len(ageDiff) matrix.
func reconstruct(k1, k2, ageDiff []float64) (*matrix.Dense, error) {
	slope, err := matrix.Outer(k2, ageDiff)
	if err != nil {
		return nil, err
	}
	if err = slope.Apply(func(i, _ int, v float64) float64 {
		return surface.InvLogit(k1[i] + v)
	}); err != nil {
		return nil, err
	}
	return slope, nil
}
