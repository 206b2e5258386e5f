package regression_test

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/katalvlaran/qxcast"
	"github.com/katalvlaran/qxcast/frame"
	"github.com/katalvlaran/qxcast/regression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = regression.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

func logit(p float64) float64 { return math.Log(p / (1 - p)) }

func TestModel_RStyleFormula(t *testing.T) {
	X := frame.New()
	require.NoError(t, X.AddFloat("feature1", []float64{1, 2, 3}))
	require.NoError(t, X.AddFloat("feature2", []float64{0, 1, 0}))
	require.NoError(t, X.AddString("feature3", []string{"a", "b", "a"}))

	m, err := regression.New(X, []float64{0, 1, 0}, "y",
		regression.WithMapping([]regression.Term{
			{Name: "feature1"},
			{Name: "feature2"},
			{Name: "feature3", Kind: regression.CategoricalPassthrough},
		}),
		regression.WithRStyle(), quiet)
	require.NoError(t, err)
	assert.Equal(t, "y ~ feature1 + feature2 + C(feature3)", m.Formula())

	plain, err := regression.New(X, []float64{0, 1, 0}, "y", quiet)
	require.NoError(t, err)
	assert.Equal(t, "y ~ feature1 + feature2 + feature3", plain.Formula())

	empty, err := regression.New(X, []float64{0, 1, 0}, "y", regression.WithMapping(nil), quiet)
	require.NoError(t, err)
	assert.Equal(t, "y ~ 1", empty.Formula())
}

func TestNew_Validation(t *testing.T) {
	X := frame.New()
	require.NoError(t, X.AddFloat("x", []float64{1, 2}))

	_, err := regression.New(X, []float64{1}, "y", quiet)
	assert.ErrorIs(t, err, qxcast.ErrBadInput)

	_, err = regression.New(X, []float64{1, 0}, "y", regression.WithWeights([]float64{1}), quiet)
	assert.ErrorIs(t, err, qxcast.ErrBadInput)

	_, err = regression.New(X, []float64{1, 0}, "y", regression.WithWeights([]float64{1, -1}), quiet)
	assert.ErrorIs(t, err, qxcast.ErrBadInput)

	_, err = regression.New(nil, nil, "y", quiet)
	assert.ErrorIs(t, err, qxcast.ErrBadInput)

	_, err = regression.New(X, []float64{1, 0}, "y",
		regression.WithMapping([]regression.Term{{Name: "x"}, {Name: "z"}}), quiet)
	var mce *qxcast.MissingColumnError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, []string{"z"}, mce.Columns)
}

func TestFit_GaussianClosedForm(t *testing.T) {
	X := frame.New()
	x := []float64{0, 1, 2, 3, 4}
	require.NoError(t, X.AddFloat("x", x))
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 1 + 2*v
	}
	m, err := regression.New(X, y, "y", quiet)
	require.NoError(t, err)

	f, err := m.Fit(regression.FitOptions{Family: regression.Gaussian})
	require.NoError(t, err)
	assert.True(t, f.Converged)
	assert.Equal(t, []string{regression.InterceptPlain, "x"}, f.Names)
	assert.InDeltaSlice(t, []float64{1, 2}, f.Coef, 1e-9)
	assert.InDelta(t, 0, f.Deviance, 1e-12)
	assert.Empty(t, f.Formula)
}

func TestFit_BinomialSaturatedCategorical(t *testing.T) {
	// group a: 2 events out of 10, group b: 6 out of 10
	X := frame.New()
	require.NoError(t, X.AddString("group", []string{"a", "a", "b", "b"}))
	y := []float64{1, 0, 1, 0}
	w := []float64{2, 8, 6, 4}

	m, err := regression.New(X, y, "event",
		regression.WithWeights(w),
		regression.WithMapping([]regression.Term{{Name: "group", Kind: regression.CategoricalPassthrough}}),
		regression.WithRStyle(), quiet)
	require.NoError(t, err)

	f, err := m.Fit(regression.FitOptions{})
	require.NoError(t, err)
	assert.Equal(t, regression.Binomial, f.Family)
	assert.True(t, f.Converged)
	assert.Equal(t, "event ~ C(group)", f.Formula)
	assert.Equal(t, []string{regression.InterceptR, "C(group)[T.b]"}, f.Names)
	assert.InDelta(t, logit(0.2), f.Coef[0], 1e-6)
	assert.InDelta(t, logit(0.6)-logit(0.2), f.Coef[1], 1e-6)
	assert.Less(t, f.Deviance, f.NullDeviance)
	for _, se := range f.StdErr {
		assert.Greater(t, se, 0.0)
	}

	// Wald SE of the intercept is 1/sqrt(n p (1-p)) for group a
	assert.InDelta(t, 1/math.Sqrt(10*0.2*0.8), f.StdErr[0], 1e-5)

	p, err := f.Predict(X)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.2, 0.2, 0.6, 0.6}, p, 1e-6)

	odds, err := m.Odds(f, false)
	require.NoError(t, err)
	r, ok := odds.Ratio(regression.InterceptR)
	require.True(t, ok)
	assert.InDelta(t, 0.25, r, 1e-6)
	assert.Nil(t, odds.Chart)
}

func TestFit_PoissonInterceptOnly(t *testing.T) {
	X := frame.New()
	m, err := regression.New(X, []float64{1, 2, 3, 6}, "deaths",
		regression.WithMapping([]regression.Term{}), regression.WithRStyle(), quiet)
	require.NoError(t, err)

	f, err := m.Fit(regression.FitOptions{Family: regression.Poisson})
	require.NoError(t, err)
	assert.Equal(t, "deaths ~ 1", f.Formula)
	require.Len(t, f.Coef, 1)
	assert.InDelta(t, math.Log(3), f.Coef[0], 1e-8)
}

func TestFit_NumericLevelsAndStringColumns(t *testing.T) {
	X := frame.New()
	require.NoError(t, X.AddFloat("band", []float64{3, 1, 2, 1, 2, 3}))
	require.NoError(t, X.AddString("sex", []string{"M", "F", "M", "F", "F", "M"}))
	y := []float64{0.3, 0.1, 0.25, 0.12, 0.2, 0.35}

	m, err := regression.New(X, y, "q",
		regression.WithMapping([]regression.Term{
			{Name: "sex"},
			{Name: "band", Kind: regression.CategoricalPassthrough},
		}),
		regression.WithRStyle(), quiet)
	require.NoError(t, err)

	f, err := m.Fit(regression.FitOptions{Family: regression.Gaussian})
	require.NoError(t, err)
	assert.Equal(t, []string{"Intercept", "sex[T.M]", "C(band)[T.2]", "C(band)[T.3]"}, f.Names)

	novel := frame.New()
	require.NoError(t, novel.AddFloat("band", []float64{4}))
	require.NoError(t, novel.AddString("sex", []string{"F"}))
	_, err = f.Predict(novel)
	assert.ErrorIs(t, err, qxcast.ErrBadInput)

	_, err = f.Predict(frame.New())
	var mce *qxcast.MissingColumnError
	assert.True(t, errors.As(err, &mce))
}

func TestFit_Errors(t *testing.T) {
	X := frame.New()
	require.NoError(t, X.AddFloat("x", []float64{1, 2, 3, 4}))
	require.NoError(t, X.AddFloat("x2", []float64{2, 4, 6, 8}))

	m, err := regression.New(X, []float64{0, 1, 0, 1}, "y", quiet)
	require.NoError(t, err)
	_, err = m.Fit(regression.FitOptions{})
	assert.ErrorIs(t, err, regression.ErrSingular)

	_, err = m.Fit(regression.FitOptions{Family: regression.Family(9)})
	assert.ErrorIs(t, err, regression.ErrUnknownFamily)

	bad, err := regression.New(X, []float64{0, 2, 0, 1}, "y", quiet)
	require.NoError(t, err)
	_, err = bad.Fit(regression.FitOptions{})
	assert.ErrorIs(t, err, qxcast.ErrBadInput)

	S := frame.New()
	require.NoError(t, S.AddString("s", []string{"a", "b"}))
	plain, err := regression.New(S, []float64{0, 1}, "y", quiet)
	require.NoError(t, err)
	_, err = plain.Fit(regression.FitOptions{})
	assert.ErrorIs(t, err, frame.ErrWrongKind)
}

func TestOdds(t *testing.T) {
	_, err := (&regression.Model{}).Odds(nil, true)
	assert.ErrorIs(t, err, qxcast.ErrModelNotFitted)
	_, err = (&regression.Model{}).Odds(&regression.Fitted{}, false)
	assert.ErrorIs(t, err, qxcast.ErrModelNotFitted)
	_, err = (&regression.Fitted{}).Predict(frame.New())
	assert.ErrorIs(t, err, qxcast.ErrModelNotFitted)

	X := frame.New()
	a := []float64{0, 1, 0, 0, 1, 1}
	b := []float64{0, 0, 1, 0, 1, 0}
	c := []float64{0, 0, 0, 1, 1, 1}
	require.NoError(t, X.AddFloat("a", a))
	require.NoError(t, X.AddFloat("b", b))
	require.NoError(t, X.AddFloat("c", c))
	y := make([]float64, len(a))
	for i := range y {
		y[i] = 1 + 2*a[i] - 3*b[i] + 0.5*c[i]
	}
	m, err := regression.New(X, y, "y", quiet)
	require.NoError(t, err)
	f, err := m.Fit(regression.FitOptions{Family: regression.Gaussian})
	require.NoError(t, err)

	odds, err := m.Odds(f, true)
	require.NoError(t, err)
	assert.Equal(t, f.Names, odds.Names)
	require.Len(t, odds.Chart, 3)
	assert.Equal(t, "a", odds.Chart[0].Feature)
	assert.Equal(t, "c", odds.Chart[1].Feature)
	assert.Equal(t, "b", odds.Chart[2].Feature)
	assert.InDelta(t, -3, odds.Chart[2].Coefficient, 1e-9)
	r, _ := odds.Ratio("a")
	assert.InDelta(t, math.Exp(2), r, 1e-8)
}
