package cbd

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/katalvlaran/qxcast"
	"github.com/katalvlaran/qxcast/frame"
	"github.com/katalvlaran/qxcast/surface"
)

// Field is the name of the reconstructed rate column.
const Field = "qx_cbd"

func cbdErrorf(tag string, err error) error {
	return fmt.Errorf("cbd.%s: %w", tag, err)
}

// Options configures a Model. Semantics match leecarter.Options.
type Options struct {
	Columns  surface.Columns
	Variance float64 // per-step noise variance for both indices
	Seed     int64
	Boundary surface.Boundary // handling of qx_raw at 0 and 1 before the logit
	Logger   *slog.Logger
}

// DefaultOptions returns actuarial-standard columns, a deterministic forecast
// and the Reject boundary policy.
func DefaultOptions() Options {
	return Options{
		Columns:  surface.DefaultColumns(),
		Boundary: surface.Boundary{Policy: surface.Reject, Epsilon: surface.DefaultEpsilon},
	}
}

// Model is a configured CBD estimator without fitted state.
type Model struct {
	opts   Options
	logger *slog.Logger
}

// New validates opts and returns a Model.
func New(opts Options) (*Model, error) {
	if opts.Variance < 0 || math.IsNaN(opts.Variance) || math.IsInf(opts.Variance, 0) {
		return nil, cbdErrorf("New", fmt.Errorf("%w: variance %g", qxcast.ErrBadInput, opts.Variance))
	}
	if opts.Boundary.Policy != surface.Reject && opts.Boundary.Policy != surface.Clamp {
		return nil, cbdErrorf("New", fmt.Errorf("%w: boundary policy %d", qxcast.ErrBadInput, opts.Boundary.Policy))
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("initialized CBD")

	return &Model{opts: opts, logger: logger}, nil
}

// Options returns the model configuration.
func (m *Model) Options() Options { return m.opts }

// Structure aggregates experience records into a rate surface.
func (m *Model) Structure(df *frame.Frame) (*surface.Surface, error) {
	s, err := surface.Build(df, m.opts.Columns, surface.WithLogger(m.logger))
	if err != nil {
		return nil, cbdErrorf("Structure", err)
	}
	return s, nil
}

// MapOptions names the join keys in the caller's frame.
type MapOptions struct {
	AgeCol  string
	YearCol string
}

// Map left-joins qx_cbd from f onto df by (age, year); see surface.Map.
func (m *Model) Map(f *Fitted, df *frame.Frame, mo MapOptions) (*frame.Frame, error) {
	if !f.fitted() {
		return nil, cbdErrorf("Map", qxcast.ErrModelNotFitted)
	}
	if mo.AgeCol == "" {
		mo.AgeCol = f.Columns.Age
	}
	if mo.YearCol == "" {
		mo.YearCol = f.Columns.Year
	}
	m.logger.Info("mapping qx_cbd to df")
	out, err := surface.Map(df, f.grid, surface.MapSpec{AgeCol: mo.AgeCol, YearCol: mo.YearCol, RateCol: Field})
	if err != nil {
		return nil, cbdErrorf("Map", err)
	}
	return out, nil
}
