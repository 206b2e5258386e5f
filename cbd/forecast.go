package cbd

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
	Years   []int
	Ages    []int
	K1      []float64
	K2      []float64
	Mu1     float64
	Mu2     float64

	grid *surface.Grid
}

// Rate returns the projected qx_cbd at (age, year).
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

// Frame returns the forecast in long format (year, age, qx_cbd).
func (fc *Forecast) Frame() (*frame.Frame, error) {
	if fc == nil || fc.grid == nil {
		return nil, cbdErrorf("Forecast.Frame", qxcast.ErrModelNotFitted)
	}
	out, err := fc.grid.Long(fc.Columns.Year, fc.Columns.Age, Field)
	if err != nil {
		return nil, cbdErrorf("Forecast.Frame", err)
	}
	return out, nil
}

// Forecast projects both indices of f for years periods.
//
// k1 and k2 drift independently with their own mu. A single RNG seeded with
// Options.Seed supplies the k1 noise first and then the k2 noise.
//
// Errors:
//   - qxcast.ErrModelNotFitted when f is nil or was not produced by Fit.
//   - qxcast.ErrBadInput when years < 1.
func (m *Model) Forecast(f *Fitted, years int) (*Forecast, error) {
	if !f.fitted() {
		return nil, cbdErrorf("Forecast", qxcast.ErrModelNotFitted)
	}
	if years < 1 {
		return nil, cbdErrorf("Forecast", fmt.Errorf("%w: years must be >= 1, got %d", qxcast.ErrBadInput, years))
	}

	m.logger.Info("forecasting qx_cbd using random walk with drift", "years", years, "variance", m.opts.Variance)
	rng := drift.NewRNG(m.opts.Seed)
	w1, err := drift.Extrapolate(f.K1, years, m.opts.Variance, rng)
	if err != nil {
		return nil, cbdErrorf("Forecast", err)
	}
	w2, err := drift.Extrapolate(f.K2, years, m.opts.Variance, rng)
	if err != nil {
		return nil, cbdErrorf("Forecast", err)
	}
	m.logger.Debug("drift of k_t", "mu_1", w1.Mu, "mu_2", w2.Mu)

	rates, err := reconstruct(w1.Path, w2.Path, f.AgeDiff)
	if err != nil {
		return nil, cbdErrorf("Forecast", err)
	}
	ys := drift.Years(f.Years[len(f.Years)-1], years)

	return &Forecast{
		Columns: f.Columns,
		Years:   ys,
		Ages:    f.Ages,
		K1:      w1.Path,
		K2:      w2.Path,
		Mu1:     w1.Mu,
		Mu2:     w2.Mu,
		grid:    &surface.Grid{Years: ys, Ages: f.Ages, Rates: rates},
	}, nil
}
