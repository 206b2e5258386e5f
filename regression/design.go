package regression

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/katalvlaran/qxcast"
	"github.com/katalvlaran/qxcast/frame"
	"gonum.org/v1/gonum/mat"
)

// Intercept names for the two design styles.
const (
	InterceptR     = "Intercept"
	InterceptPlain = "const"
)

type colKind int

const (
	colIntercept colKind = iota
	colNumeric
	colDummy
)

// designCol describes one column of the design matrix.
type designCol struct {
	name   string
	source string
	kind   colKind
	level  string
}

// encoding maps a feature frame to a design matrix. It is fixed at fit time
// and reused by Predict.
type encoding struct {
	cols []designCol
	// levels holds every level seen at fit time, base level included.
	levels map[string]map[string]struct{}
}

func (e *encoding) names() []string {
	out := make([]string, len(e.cols))
	for i, c := range e.cols {
		out[i] = c.name
	}
	return out
}

// newEncoding derives the design columns.
//
// R-style: numeric terms first, then categorical terms, as in Formula.
// A numeric term backed by a string column is dummy-coded as name[T.level];
// a categorical term as C(name)[T.level]. Plain: every column of x, which
// must be a float column.
func newEncoding(x *frame.Frame, terms []Term, rStyle bool) (*encoding, error) {
	e := &encoding{levels: make(map[string]map[string]struct{})}
	if !rStyle {
		e.cols = append(e.cols, designCol{name: InterceptPlain, kind: colIntercept})
		for _, n := range x.Names() {
			k, err := x.Kind(n)
			if err != nil {
				return nil, err
			}
			if k != frame.Float {
				return nil, fmt.Errorf("column %q: %w", n, frame.ErrWrongKind)
			}
			e.cols = append(e.cols, designCol{name: n, source: n, kind: colNumeric})
		}
		return e, nil
	}

	e.cols = append(e.cols, designCol{name: InterceptR, kind: colIntercept})
	ordered := make([]Term, 0, len(terms))
	for _, t := range terms {
		if t.Kind != CategoricalPassthrough {
			ordered = append(ordered, t)
		}
	}
	for _, t := range terms {
		if t.Kind == CategoricalPassthrough {
			ordered = append(ordered, t)
		}
	}
	for _, t := range ordered {
		k, err := x.Kind(t.Name)
		if err != nil {
			return nil, err
		}
		if t.Kind == Numeric && k == frame.Float {
			e.cols = append(e.cols, designCol{name: t.Name, source: t.Name, kind: colNumeric})
			continue
		}
		prefix := t.Name
		if t.Kind == CategoricalPassthrough {
			prefix = "C(" + t.Name + ")"
		}
		levels, err := sortedLevels(x, t.Name)
		if err != nil {
			return nil, err
		}
		if len(levels) == 0 {
			return nil, fmt.Errorf("%w: no levels in %q", qxcast.ErrBadInput, t.Name)
		}
		set := make(map[string]struct{}, len(levels))
		for _, l := range levels {
			set[l] = struct{}{}
		}
		e.levels[t.Name] = set
		for _, l := range levels[1:] {
			e.cols = append(e.cols, designCol{
				name:   prefix + "[T." + l + "]",
				source: t.Name,
				kind:   colDummy,
				level:  l,
			})
		}
	}
	return e, nil
}

// sortedLevels returns the distinct values of a column as text, sorted
// numerically for float columns and lexically for string columns.
func sortedLevels(x *frame.Frame, name string) ([]string, error) {
	k, err := x.Kind(name)
	if err != nil {
		return nil, err
	}
	if k == frame.String {
		vals, err := x.Strings(name)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]struct{})
		var out []string
		for _, v := range vals {
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				out = append(out, v)
			}
		}
		sort.Strings(out)
		return out, nil
	}

	vals, err := x.Floats(name)
	if err != nil {
		return nil, err
	}
	seen := make(map[float64]struct{})
	var nums []float64
	for i, v := range vals {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("%w: missing level in %q at row %d", qxcast.ErrBadInput, name, i)
		}
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			nums = append(nums, v)
		}
	}
	sort.Float64s(nums)
	out := make([]string, len(nums))
	for i, v := range nums {
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return out, nil
}

// matrix builds the n×p design for x. rows is used when x has no columns.
// Levels absent at fit time are rejected with qxcast.ErrBadInput.
func (e *encoding) matrix(x *frame.Frame, rows int) (*mat.Dense, error) {
	if len(x.Names()) > 0 {
		rows = x.Len()
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: no observations", qxcast.ErrBadInput)
	}
	d := mat.NewDense(rows, len(e.cols), nil)
	for j, c := range e.cols {
		switch c.kind {
		case colIntercept:
			for i := 0; i < rows; i++ {
				d.Set(i, j, 1)
			}
		case colNumeric:
			vals, err := x.Floats(c.source)
			if err != nil {
				return nil, err
			}
			for i, v := range vals {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return nil, fmt.Errorf("%w: non-finite %q at row %d", qxcast.ErrBadInput, c.source, i)
				}
				d.Set(i, j, v)
			}
		case colDummy:
			for i := 0; i < rows; i++ {
				v, err := x.Text(c.source, i)
				if err != nil {
					return nil, err
				}
				if _, ok := e.levels[c.source][v]; !ok {
					return nil, fmt.Errorf("%w: unseen level %q of %q at row %d", qxcast.ErrBadInput, v, c.source, i)
				}
				if v == c.level {
					d.Set(i, j, 1)
				}
			}
		}
	}
	return d, nil
}
