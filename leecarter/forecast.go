package leecarter

import (
	"fmt"

	"github.com/katalvlaran/qxcast"
	"github.com/katalvlaran/qxcast/drift"
	"github.com/katalvlaran/qxcast/frame"
	"github.com/katalvlaran/qxcast/surface"
)

// Forecast holds projected rates for the years following the fit.
type Forecast struct {
	Columns surface.Columns
	Years   []int     // last fitted year + 1 .. + horizon
	Ages    []int     // fitted ages
	Kt      []float64 // projected index, len(Years)
	Mu      float64   // drift of the fitted index

	grid *surface.Grid
}

// Rate returns the projected qx_lc at (age, year).
func (fc *Forecast) Rate(age, year int) (float64, bool) {
	if fc == nil || fc.grid == nil {
		return 0, false
	}
	return fc.grid.Rate(age, year)
}

// Grid returns a copy of the years × ages projected rates.
func (fc *Forecast) Grid() *surface.Grid {
	if fc == nil || fc.grid == nil {
		return nil
	}
	return &surface.Grid{Years: fc.Years, Ages: fc.Ages, Rates: fc.grid.Rates.Clone()}
}

// Frame returns the forecast in long format (year, age, qx_lc) ordered by
// year then age.
func (fc *Forecast) Frame() (*frame.Frame, error) {
	if fc == nil || fc.grid == nil {
		return nil, lcErrorf("Forecast.Frame", qxcast.ErrModelNotFitted)
	}
	out, err := fc.grid.Long(fc.Columns.Year, fc.Columns.Age, Field)
	if err != nil {
		return nil, lcErrorf("Forecast.Frame", err)
	}
	return out, nil
}

// Forecast projects f for years periods past its last fitted year.
//
// The index follows k[last+h] = k[last] + mu·h + ε_h with
// mu = (k[last] − k[first]) / len(k) and ε_h ~ N(0, Variance) drawn from an
// RNG seeded with Options.Seed. a_x and b_x are held fixed.
//
// Errors:
//   - qxcast.ErrModelNotFitted when f is nil or was not produced by Fit.
//   - qxcast.ErrBadInput when years < 1.
//
// Complexity: O(years·|ages|).
func (m *Model) Forecast(f *Fitted, years int) (*Forecast, error) {
	if !f.fitted() {
		return nil, lcErrorf("Forecast", qxcast.ErrModelNotFitted)
	}
	if years < 1 {
		return nil, lcErrorf("Forecast", fmt.Errorf("%w: years must be >= 1, got %d", qxcast.ErrBadInput, years))
	}

	m.logger.Info("forecasting qx_lc using random walk with drift", "years", years, "variance", m.opts.Variance)
	w, err := drift.Extrapolate(f.Kt, years, m.opts.Variance, drift.NewRNG(m.opts.Seed))
	if err != nil {
		return nil, lcErrorf("Forecast", err)
	}
	m.logger.Debug("drift of k_t", "mu", w.Mu)

	rates, err := reconstruct(f.Ax, f.Bx, w.Path)
	if err != nil {
		return nil, lcErrorf("Forecast", err)
	}
	ys := drift.Years(f.Years[len(f.Years)-1], years)

	return &Forecast{
		Columns: f.Columns,
		Years:   ys,
		Ages:    f.Ages,
		Kt:      w.Path,
		Mu:      w.Mu,
		grid:    &surface.Grid{Years: ys, Ages: f.Ages, Rates: rates},
	}, nil
}
