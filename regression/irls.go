package regression

import (
	"fmt"
	"math"

	"github.com/katalvlaran/qxcast"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// FitOptions tunes IRLS. Zero values take the defaults.
type FitOptions struct {
	Family  Family
	MaxIter int     // default 100
	Tol     float64 // relative deviance change, default 1e-8
}

// Default IRLS settings.
const (
	DefaultMaxIter = 100
	DefaultTol     = 1e-8
)

// condLimit bounds the condition number of XᵀWX before it is treated as singular.
const condLimit = 1e13

// Fitted is an immutable GLM fit.
type Fitted struct {
	Names        []string  // design column names, intercept first
	Coef         []float64 // one per name
	StdErr       []float64 // from the inverse Fisher information
	Family       Family
	Formula      string // empty for plain fits
	Iterations   int
	Converged    bool
	Deviance     float64
	NullDeviance float64

	enc  *encoding
	rows int
}

// Fit estimates the coefficients by IRLS.
//
// Implementation:
//   - Stage 1: encode the design (R-style or plain) and validate y for the family.
//   - Stage 2: start from mu0(y); repeat: working weights w = prior·(dμ/dη)²/V(μ),
//     working response z = η + (y−μ)/(dμ/dη), solve (XᵀWX)β = XᵀWz by Cholesky.
//   - Stage 3: stop when |dev−dev_old|/(|dev|+0.1) < Tol or after MaxIter.
//
// Errors:
//   - ErrUnknownFamily, qxcast.ErrBadInput (y outside the family's support, no rows).
//   - ErrSingular when XᵀWX is not positive definite or is ill-conditioned.
//
// Complexity: O(iter·n·p²).
func (m *Model) Fit(fo FitOptions) (*Fitted, error) {
	if !fo.Family.valid() {
		return nil, regErrorf("Fit", fmt.Errorf("%w: %d", ErrUnknownFamily, fo.Family))
	}
	if fo.MaxIter <= 0 {
		fo.MaxIter = DefaultMaxIter
	}
	if fo.Tol <= 0 {
		fo.Tol = DefaultTol
	}
	fam := fo.Family
	m.logger.Info("fitting GLM", "family", fam.String(), "r_style", m.rStyle)

	formula := ""
	if m.rStyle {
		formula = m.Formula()
	}
	enc, err := newEncoding(m.x, m.Terms(), m.rStyle)
	if err != nil {
		return nil, regErrorf("Fit", err)
	}
	X, err := enc.matrix(m.x, len(m.y))
	if err != nil {
		return nil, regErrorf("Fit", err)
	}
	n, p := X.Dims()
	if n != len(m.y) {
		return nil, regErrorf("Fit", fmt.Errorf("%w: %d targets for %d rows", qxcast.ErrBadInput, len(m.y), n))
	}
	for i, y := range m.y {
		if !fam.inRange(y) {
			return nil, regErrorf("Fit", fmt.Errorf("%w: target %g at row %d outside %s support", qxcast.ErrBadInput, y, i, fam))
		}
	}
	prior := m.weights
	if prior == nil {
		prior = make([]float64, n)
		floats.AddConst(1, prior)
	}

	mu := make([]float64, n)
	eta := make([]float64, n)
	for i, y := range m.y {
		mu[i] = fam.start(y)
		eta[i] = fam.link(mu[i])
	}
	dev := deviance(fam, m.y, mu, prior)

	var (
		beta      = mat.NewVecDense(p, nil)
		chol      mat.Cholesky
		xw        = mat.NewDense(n, p, nil)
		zw        = mat.NewVecDense(n, nil)
		xtwx      = mat.NewSymDense(p, nil)
		rhs       = mat.NewVecDense(p, nil)
		etaVec    = mat.NewVecDense(n, eta)
		iter      int
		converged bool
	)
	for iter = 1; iter <= fo.MaxIter; iter++ {
		for i := 0; i < n; i++ {
			d := fam.deriv(mu[i])
			w := prior[i] * d * d / fam.variance(mu[i])
			sw := math.Sqrt(w)
			z := eta[i] + (m.y[i]-mu[i])/d
			for j := 0; j < p; j++ {
				xw.Set(i, j, sw*X.At(i, j))
			}
			zw.SetVec(i, sw*z)
		}
		xtwx.SymOuterK(1, xw.T())
		if ok := chol.Factorize(xtwx); !ok || chol.Cond() > condLimit {
			return nil, regErrorf("Fit", ErrSingular)
		}
		rhs.MulVec(xw.T(), zw)
		if err = chol.SolveVecTo(beta, rhs); err != nil {
			return nil, regErrorf("Fit", fmt.Errorf("%w: %v", ErrSingular, err))
		}

		etaVec.MulVec(X, beta)
		for i := 0; i < n; i++ {
			mu[i] = fam.inverse(eta[i])
		}
		devOld := dev
		dev = deviance(fam, m.y, mu, prior)
		m.logger.Debug("irls iteration", "iter", iter, "deviance", dev)
		if math.Abs(dev-devOld)/(math.Abs(dev)+0.1) < fo.Tol {
			converged = true
			break
		}
	}
	if iter > fo.MaxIter {
		iter = fo.MaxIter
	}
	if !converged {
		m.logger.Warn("IRLS did not converge", "iterations", iter, "deviance", dev)
	}

	f := &Fitted{
		Names:        enc.names(),
		Coef:         mat.Col(nil, 0, beta),
		Family:       fam,
		Formula:      formula,
		Iterations:   iter,
		Converged:    converged,
		Deviance:     dev,
		NullDeviance: nullDeviance(fam, m.y, prior),
		enc:          enc,
		rows:         n,
	}
	f.StdErr, err = stdErr(&chol, fam, dev, floats.Sum(prior), p)
	if err != nil {
		return nil, regErrorf("Fit", err)
	}
	m.logger.Info("GLM fitted", "iterations", iter, "converged", converged, "deviance", dev)

	return f, nil
}

func deviance(fam Family, y, mu, prior []float64) float64 {
	var d float64
	for i := range y {
		d += prior[i] * fam.unitDeviance(y[i], mu[i])
	}
	return d
}

// nullDeviance is the deviance of the intercept-only model, mu = weighted mean of y.
func nullDeviance(fam Family, y, prior []float64) float64 {
	total := floats.Sum(prior)
	if total == 0 {
		return 0
	}
	ybar := floats.Dot(y, prior) / total
	if fam == Binomial {
		ybar = math.Min(math.Max(ybar, muFloor), muCeil)
	}
	mu := make([]float64, len(y))
	for i := range mu {
		mu[i] = ybar
	}
	return deviance(fam, y, mu, prior)
}

// stdErr returns sqrt(diag((XᵀWX)⁻¹)·φ), with dispersion φ = 1 for Binomial
// and Poisson and dev/(Σw − p) for Gaussian.
func stdErr(chol *mat.Cholesky, fam Family, dev, wsum float64, p int) ([]float64, error) {
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	phi := 1.0
	if fam == Gaussian && wsum > float64(p) {
		phi = dev / (wsum - float64(p))
	}
	out := make([]float64, p)
	for j := range out {
		out[j] = math.Sqrt(cov.At(j, j) * phi)
	}
	return out, nil
}
