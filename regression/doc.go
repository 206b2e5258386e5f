// Package regression fits generalized linear models to experience data.
//
// A Model pairs a feature frame X with a target vector y, optional frequency
// weights and an optional term mapping. Fit runs iteratively reweighted least
// squares (IRLS) for the Binomial (logit), Poisson (log) or Gaussian
// (identity) family and returns an immutable *Fitted.
//
// Two design-matrix styles are supported:
//
//   - R-style (WithRStyle): the design is built from the model formula.
//     Numeric terms are used as-is; C(x) expands to treatment-coded dummies
//     named C(x)[T.level], dropping the first sorted level. The intercept is
//     named "Intercept".
//   - Plain: every column of X is used as-is (all must be float columns) and
//     the intercept is named "const".
//
// Formula text is produced by the pure function Formula and is deterministic
// for the same target and terms:
//
//	regression.Formula("y", []regression.Term{
//		{Name: "feature1"}, {Name: "feature2"},
//		{Name: "feature3", Kind: regression.CategoricalPassthrough},
//	})
//	// "y ~ feature1 + feature2 + C(feature3)"
//
// Odds returns exp(coef) per coefficient and, on request, a chart-ready list
// sorted by coefficient. Chart rendering is left to the caller.
package regression
