package leecarter

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/katalvlaran/qxcast"
	"github.com/katalvlaran/qxcast/frame"
	"github.com/katalvlaran/qxcast/surface"
)

// Field is the name of the reconstructed rate column.
const Field = "qx_lc"

// lcErrorf wraps err with an operation tag, preserving errors.Is/As.
func lcErrorf(tag string, err error) error {
	return fmt.Errorf("leecarter.%s: %w", tag, err)
}

// Options configures a Model.
type Options struct {
	// Columns names the experience columns; empty names take the defaults.
	Columns surface.Columns
	// Variance of the N(0, Variance) noise added to each forecast step.
	// 0 forecasts the deterministic drift line.
	Variance float64
	// Seed for the forecast noise; 0 selects the drift package default.
	Seed int64
	// Boundary decides how qx_raw == 0 is handled before the log.
	Boundary surface.Boundary
	// Logger receives progress messages; nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns actuarial-standard columns, a deterministic forecast
// and the Reject boundary policy.
func DefaultOptions() Options {
	return Options{
		Columns:  surface.DefaultColumns(),
		Boundary: surface.Boundary{Policy: surface.Reject, Epsilon: surface.DefaultEpsilon},
	}
}

// Model is a configured Lee-Carter estimator. It carries no fitted state.
type Model struct {
	opts   Options
	logger *slog.Logger
}

// New validates opts and returns a Model.
// Variance must be finite and non-negative, else qxcast.ErrBadInput.
func New(opts Options) (*Model, error) {
	if opts.Variance < 0 || math.IsNaN(opts.Variance) || math.IsInf(opts.Variance, 0) {
		return nil, lcErrorf("New", fmt.Errorf("%w: variance %g", qxcast.ErrBadInput, opts.Variance))
	}
	if opts.Boundary.Policy != surface.Reject && opts.Boundary.Policy != surface.Clamp {
		return nil, lcErrorf("New", fmt.Errorf("%w: boundary policy %d", qxcast.ErrBadInput, opts.Boundary.Policy))
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("initialized LeeCarter")

	return &Model{opts: opts, logger: logger}, nil
}

// Options returns the model configuration.
func (m *Model) Options() Options { return m.opts }

// Structure aggregates experience records into a rate surface using the
// model's columns. It fails with *qxcast.MissingColumnError when any of them
// is absent.
func (m *Model) Structure(df *frame.Frame) (*surface.Surface, error) {
	s, err := surface.Build(df, m.opts.Columns, surface.WithLogger(m.logger))
	if err != nil {
		return nil, lcErrorf("Structure", err)
	}
	return s, nil
}

// MapOptions names the join keys in the caller's frame; empty names take the
// fitted surface's columns.
type MapOptions struct {
	AgeCol  string
	YearCol string
}

// Map left-joins qx_lc from f onto df by (age, year). Every row and column of
// df is kept; an existing qx_lc column is overwritten and unmatched rows get
// NaN.
//
// Errors:
//   - qxcast.ErrModelNotFitted when f is nil or was not produced by Fit.
//   - *qxcast.MissingColumnError when df lacks the key columns.
func (m *Model) Map(f *Fitted, df *frame.Frame, mo MapOptions) (*frame.Frame, error) {
	if !f.fitted() {
		return nil, lcErrorf("Map", qxcast.ErrModelNotFitted)
	}
	if mo.AgeCol == "" {
		mo.AgeCol = f.Columns.Age
	}
	if mo.YearCol == "" {
		mo.YearCol = f.Columns.Year
	}
	m.logger.Info("mapping qx_lc to df")
	out, err := surface.Map(df, f.grid, surface.MapSpec{AgeCol: mo.AgeCol, YearCol: mo.YearCol, RateCol: Field})
	if err != nil {
		return nil, lcErrorf("Map", err)
	}
	return out, nil
}
