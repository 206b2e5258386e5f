package regression

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/katalvlaran/qxcast"
	"github.com/katalvlaran/qxcast/frame"
)

// Sentinel errors specific to regression.
var (
	// ErrSingular indicates a rank-deficient or numerically singular design.
	ErrSingular = errors.New("regression: singular design matrix")

	// ErrUnknownFamily indicates an unsupported Family value.
	ErrUnknownFamily = errors.New("regression: unknown family")
)

func regErrorf(tag string, err error) error {
	return fmt.Errorf("regression.%s: %w", tag, err)
}

// Option configures New.
type Option func(*Model)

// WithWeights sets frequency weights, one per row of X.
func WithWeights(w []float64) Option {
	return func(m *Model) { m.weights = append([]float64(nil), w...) }
}

// WithMapping tags features as numeric or categorical passthrough. Only mapped
// features enter an R-style fit. A non-nil empty mapping yields the
// intercept-only formula.
func WithMapping(terms []Term) Option {
	return func(m *Model) {
		m.mapping = append([]Term{}, terms...)
		m.hasMapping = true
	}
}

// WithRStyle builds the design matrix from the formula.
func WithRStyle() Option {
	return func(m *Model) { m.rStyle = true }
}

// WithLogger routes progress messages to l.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// Model is an unfitted GLM specification. It is not modified by Fit.
type Model struct {
	x          *frame.Frame
	y          []float64
	target     string
	weights    []float64
	mapping    []Term
	hasMapping bool
	rStyle     bool
	logger     *slog.Logger
}

// New validates the inputs and returns a Model. X and y are copied.
//
// Errors:
//   - qxcast.ErrBadInput for a nil X, an empty target, a length mismatch
//     between X, y and weights, or negative/non-finite weights.
//   - *qxcast.MissingColumnError when a mapped term is not a column of X.
func New(X *frame.Frame, y []float64, target string, opts ...Option) (*Model, error) {
	if X == nil {
		return nil, regErrorf("New", fmt.Errorf("%w: nil feature frame", qxcast.ErrBadInput))
	}
	if target == "" {
		return nil, regErrorf("New", fmt.Errorf("%w: empty target name", qxcast.ErrBadInput))
	}
	m := &Model{
		x:      X.Clone(),
		y:      append([]float64(nil), y...),
		target: target,
		logger: slog.Default(),
	}
	for _, fn := range opts {
		fn(m)
	}
	if len(m.y) != m.x.Len() && len(m.x.Names()) > 0 {
		return nil, regErrorf("New", fmt.Errorf("%w: %d targets for %d rows", qxcast.ErrBadInput, len(m.y), m.x.Len()))
	}
	if m.weights != nil {
		if len(m.weights) != len(m.y) {
			return nil, regErrorf("New", fmt.Errorf("%w: %d weights for %d rows", qxcast.ErrBadInput, len(m.weights), len(m.y)))
		}
		for i, w := range m.weights {
			if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, regErrorf("New", fmt.Errorf("%w: weight %g at row %d", qxcast.ErrBadInput, w, i))
			}
		}
	}
	if m.hasMapping {
		names := make([]string, len(m.mapping))
		for i, t := range m.mapping {
			names[i] = t.Name
		}
		if err := m.x.Require(names...); err != nil {
			return nil, regErrorf("New", err)
		}
	}
	m.logger.Info("initialized GLM with implicit intercept", "rows", len(m.y), "features", len(m.x.Names()))

	return m, nil
}

// Terms returns the terms that enter the formula: the mapping when one was
// given, otherwise every column of X as a numeric term.
func (m *Model) Terms() []Term {
	if m.hasMapping {
		return append([]Term(nil), m.mapping...)
	}
	names := m.x.Names()
	terms := make([]Term, len(names))
	for i, n := range names {
		terms[i] = Term{Name: n}
	}
	return terms
}

// Formula returns the model formula for the configured target and terms.
func (m *Model) Formula() string {
	f := Formula(m.target, m.Terms())
	m.logger.Info("using R-style formula", "formula", f)
	return f
}
