package surface

import (
	"log/slog"
	"math"
	"sort"

	"github.com/katalvlaran/qxcast"
	"github.com/katalvlaran/qxcast/frame"
	"github.com/katalvlaran/qxcast/matrix"
)

// Grid is the rectangular pivot of a surface: rows are years, columns are
// ages, both ascending.
type Grid struct {
	Years []int
	Ages  []int
	Rates *matrix.Dense
}

// Grid pivots qx_raw into a years × ages matrix.
//
// Every (age, year) combination of the distinct ages and years must be
// present; otherwise a *qxcast.IncompleteSurfaceError lists the missing
// cells in year-then-age order.
//
// Complexity: O(|years|·|ages|).
func (s *Surface) Grid() (*Grid, error) {
	years, ages := s.Years(), s.Ages()
	if len(years) == 0 || len(ages) == 0 {
		return nil, surfaceErrorf("Grid", qxcast.ErrIncompleteSurface)
	}
	m, err := matrix.NewDense(len(years), len(ages))
	if err != nil {
		return nil, surfaceErrorf("Grid", err)
	}

	var missing []qxcast.Cell
	for i, y := range years {
		for j, a := range ages {
			q, ok := s.Rate(a, y)
			if !ok {
				missing = append(missing, qxcast.Cell{Age: a, Year: y})
				continue
			}
			if err = m.Set(i, j, q); err != nil {
				return nil, surfaceErrorf("Grid", err)
			}
		}
	}
	if len(missing) > 0 {
		return nil, surfaceErrorf("Grid", &qxcast.IncompleteSurfaceError{Missing: missing})
	}

	return &Grid{Years: years, Ages: ages, Rates: m}, nil
}

// Policy selects how log/logit treat rates outside their domain.
type Policy int

const (
	// Reject fails with *qxcast.BoundaryError on the first undefined cell.
	Reject Policy = iota
	// Clamp moves rates into [ε, 1−ε] (log: floor at ε only) before the transform.
	Clamp
)

// DefaultEpsilon is the clamp distance used when Boundary.Epsilon is 0.
const DefaultEpsilon = 1e-9

// Boundary is the numeric-domain policy for log and logit. The zero value
// rejects.
type Boundary struct {
	Policy  Policy
	Epsilon float64
}

func (b Boundary) eps() float64 {
	if b.Epsilon <= 0 {
		return DefaultEpsilon
	}
	return b.Epsilon
}

const (
	transformLog   = "log"
	transformLogit = "logit"
)

// Log returns ln(qx) elementwise and the number of clamped cells.
// ln is undefined for qx <= 0.
func (g *Grid) Log(b Boundary, logger *slog.Logger) (*matrix.Dense, int, error) {
	return g.transform(transformLog, b, logger, func(p float64) bool { return p > 0 }, math.Log)
}

// Logit returns ln(qx/(1−qx)) elementwise and the number of clamped cells.
// logit is undefined for qx <= 0 and qx >= 1.
func (g *Grid) Logit(b Boundary, logger *slog.Logger) (*matrix.Dense, int, error) {
	return g.transform(transformLogit, b, logger, func(p float64) bool { return p > 0 && p < 1 }, Logit)
}

func (g *Grid) transform(name string, b Boundary, logger *slog.Logger, inDomain func(float64) bool, f func(float64) float64) (*matrix.Dense, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	out := g.Rates.Clone()
	eps := b.eps()
	clamped := 0
	var bErr error
	out.Do(func(i, j int, p float64) bool {
		if inDomain(p) {
			return true
		}
		if b.Policy == Reject {
			bErr = &qxcast.BoundaryError{Age: g.Ages[j], Year: g.Years[i], Rate: p, Transform: name}
			return false
		}
		clamped++
		return true
	})
	if bErr != nil {
		return nil, 0, surfaceErrorf(name, bErr)
	}

	err := out.Apply(func(_, _ int, p float64) float64 {
		if b.Policy == Clamp {
			p = clampRate(name, p, eps)
		}
		return f(p)
	})
	if err != nil {
		return nil, 0, surfaceErrorf(name, err)
	}
	if clamped > 0 {
		logger.Info("rates clamped before transform", "transform", name, "count", clamped, "epsilon", eps)
	}

	return out, clamped, nil
}

func clampRate(name string, p, eps float64) float64 {
	if p < eps {
		return eps
	}
	if name == transformLogit && p > 1-eps {
		return 1 - eps
	}
	return p
}

// Logit returns ln(p/(1−p)).
func Logit(p float64) float64 { return math.Log(p / (1 - p)) }

// InvLogit returns 1/(1+exp(−x)), evaluated without overflow for large |x|.
func InvLogit(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// Rate returns the grid value at (age, year); false when either key is off
// the grid. Grid therefore satisfies RateSource.
//
// Complexity: O(log|years| + log|ages|).
func (g *Grid) Rate(age, year int) (float64, bool) {
	i := sort.SearchInts(g.Years, year)
	if i == len(g.Years) || g.Years[i] != year {
		return 0, false
	}
	j := sort.SearchInts(g.Ages, age)
	if j == len(g.Ages) || g.Ages[j] != age {
		return 0, false
	}
	v, err := g.Rates.At(i, j)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Long renders the grid in long format: one row per (year, age) in
// year-then-age order with columns yearCol, ageCol and field.
func (g *Grid) Long(yearCol, ageCol, field string) (*frame.Frame, error) {
	n := len(g.Years) * len(g.Ages)
	years, ages, vals := make([]float64, 0, n), make([]float64, 0, n), make([]float64, 0, n)
	for i, y := range g.Years {
		row, err := g.Rates.Row(i)
		if err != nil {
			return nil, surfaceErrorf("Long", err)
		}
		for j, a := range g.Ages {
			years = append(years, float64(y))
			ages = append(ages, float64(a))
			vals = append(vals, row[j])
		}
	}

	out := frame.New()
	if err := out.AddFloat(yearCol, years); err != nil {
		return nil, surfaceErrorf("Long", err)
	}
	if err := out.AddFloat(ageCol, ages); err != nil {
		return nil, surfaceErrorf("Long", err)
	}
	if err := out.AddFloat(field, vals); err != nil {
		return nil, surfaceErrorf("Long", err)
	}
	return out, nil
}
