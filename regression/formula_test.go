package regression_test

import (
	"testing"

	"github.com/katalvlaran/qxcast/regression"
	"github.com/stretchr/testify/assert"
)

func TestFormula(t *testing.T) {
	num := func(n string) regression.Term { return regression.Term{Name: n} }
	cat := func(n string) regression.Term {
		return regression.Term{Name: n, Kind: regression.CategoricalPassthrough}
	}
	cases := []struct {
		name  string
		terms []regression.Term
		want  string
	}{
		{"mixed", []regression.Term{num("feature1"), num("feature2"), cat("feature3")}, "y ~ feature1 + feature2 + C(feature3)"},
		{"numeric first", []regression.Term{cat("gender"), num("age"), cat("smoker")}, "y ~ age + C(gender) + C(smoker)"},
		{"numeric only", []regression.Term{num("age")}, "y ~ age"},
		{"categorical only", []regression.Term{cat("gender")}, "y ~ C(gender)"},
		{"intercept only", nil, "y ~ 1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, regression.Formula("y", tc.terms))
			// deterministic
			assert.Equal(t, regression.Formula("y", tc.terms), regression.Formula("y", tc.terms))
		})
	}
}

func TestParseKindAndFamily(t *testing.T) {
	k, ok := regression.ParseKind("cat_pass")
	assert.True(t, ok)
	assert.Equal(t, regression.CategoricalPassthrough, k)
	_, ok = regression.ParseKind("ordinal")
	assert.False(t, ok)

	f, ok := regression.ParseFamily("")
	assert.True(t, ok)
	assert.Equal(t, regression.Binomial, f)
	f, ok = regression.ParseFamily("poisson")
	assert.True(t, ok)
	assert.Equal(t, "poisson", f.String())
	_, ok = regression.ParseFamily("gamma")
	assert.False(t, ok)
}
