package regression

import "strings"

// Kind tags how a feature enters the formula.
type Kind int

const (
	// Numeric terms enter the design as-is.
	Numeric Kind = iota
	// CategoricalPassthrough terms are wrapped as C(name) and dummy-coded.
	CategoricalPassthrough
)

// String returns the tag name.
func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case CategoricalPassthrough:
		return "cat_pass"
	default:
		return "unknown"
	}
}

// ParseKind maps "numeric"/"" and "cat_pass" to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "", "numeric":
		return Numeric, true
	case "cat_pass":
		return CategoricalPassthrough, true
	default:
		return 0, false
	}
}

// Term is one feature of the mapping.
type Term struct {
	Name string
	Kind Kind
}

// Formula renders "target ~ terms". Numeric terms come first in their given
// order, then categorical terms as C(name), all joined by " + ". With no terms
// the formula is intercept-only: "target ~ 1".
func Formula(target string, terms []Term) string {
	var parts []string
	for _, t := range terms {
		if t.Kind != CategoricalPassthrough {
			parts = append(parts, t.Name)
		}
	}
	for _, t := range terms {
		if t.Kind == CategoricalPassthrough {
			parts = append(parts, "C("+t.Name+")")
		}
	}
	if len(parts) == 0 {
		return target + " ~ 1"
	}
	return target + " ~ " + strings.Join(parts, " + ")
}
