package regression

import (
	"fmt"
	"math"
	"sort"

	"github.com/katalvlaran/qxcast"
	"github.com/katalvlaran/qxcast/frame"
	"gonum.org/v1/gonum/mat"
)

// Bar is one chart-ready coefficient.
type Bar struct {
	Feature     string
	Coefficient float64
}

// OddsRatios holds exp(coef) per design column in coefficient order, and the
// chart data when requested.
type OddsRatios struct {
	Names  []string
	Ratios []float64
	Chart  []Bar // nil unless display was requested
}

// Ratio returns the odds ratio for name.
func (o *OddsRatios) Ratio(name string) (float64, bool) {
	for i, n := range o.Names {
		if n == name {
			return o.Ratios[i], true
		}
	}
	return 0, false
}

// Odds returns the odds ratios of f. With display set, Chart lists every
// non-intercept coefficient sorted descending (ties by name).
//
// Errors:
//   - qxcast.ErrModelNotFitted when f is nil or was not produced by Fit.
func (m *Model) Odds(f *Fitted, display bool) (*OddsRatios, error) {
	if f == nil || f.enc == nil {
		return nil, regErrorf("Odds", qxcast.ErrModelNotFitted)
	}
	m.logger.Info("generating odds ratio from model")
	out := &OddsRatios{
		Names:  append([]string(nil), f.Names...),
		Ratios: make([]float64, len(f.Coef)),
	}
	for i, c := range f.Coef {
		out.Ratios[i] = math.Exp(c)
	}
	if !display {
		return out, nil
	}

	out.Chart = make([]Bar, 0, len(f.Coef))
	for i := 1; i < len(f.Coef); i++ {
		out.Chart = append(out.Chart, Bar{Feature: f.Names[i], Coefficient: f.Coef[i]})
	}
	sort.SliceStable(out.Chart, func(a, b int) bool {
		if out.Chart[a].Coefficient != out.Chart[b].Coefficient {
			return out.Chart[a].Coefficient > out.Chart[b].Coefficient
		}
		return out.Chart[a].Feature < out.Chart[b].Feature
	})
	return out, nil
}

// Predict returns the fitted mean for each row of X (probabilities for
// Binomial) using the fit-time encoding. X needs the source columns of every
// design column; levels unseen at fit time are qxcast.ErrBadInput.
func (f *Fitted) Predict(X *frame.Frame) ([]float64, error) {
	if f == nil || f.enc == nil {
		return nil, regErrorf("Predict", qxcast.ErrModelNotFitted)
	}
	if X == nil {
		return nil, regErrorf("Predict", fmt.Errorf("%w: nil feature frame", qxcast.ErrBadInput))
	}
	var sources []string
	seen := make(map[string]struct{})
	for _, c := range f.enc.cols {
		if _, ok := seen[c.source]; ok || c.kind == colIntercept {
			continue
		}
		seen[c.source] = struct{}{}
		sources = append(sources, c.source)
	}
	if err := X.Require(sources...); err != nil {
		return nil, regErrorf("Predict", err)
	}
	D, err := f.enc.matrix(X, X.Len())
	if err != nil {
		return nil, regErrorf("Predict", err)
	}
	var eta mat.VecDense
	eta.MulVec(D, mat.NewVecDense(len(f.Coef), f.Coef))

	out := make([]float64, eta.Len())
	for i := range out {
		out[i] = f.Family.inverse(eta.AtVec(i))
	}
	return out, nil
}
