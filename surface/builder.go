package surface

import (
	"fmt"
	"math"
	"sort"

	"github.com/katalvlaran/qxcast"
	"github.com/katalvlaran/qxcast/frame"
)

// surfaceErrorf wraps err with an operation tag, preserving errors.Is/As.
func surfaceErrorf(tag string, err error) error {
	return fmt.Errorf("surface.%s: %w", tag, err)
}

// Surface is an aggregated rate surface: one Cell per distinct (age, year).
type Surface struct {
	Columns Columns
	Cells   []Cell

	// Clipped counts cells whose crude rate exceeded 1 before capping.
	Clipped int
	// Floored counts cells whose crude rate was negative before flooring at 0.
	Floored int

	// source is the structured frame a surface was re-entered from (FromFrame);
	// nil for surfaces produced by Build. Rows align with Cells.
	source *frame.Frame
	index  map[qxcast.Cell]int
}

// Build aggregates experience records into a Surface.
//
// Implementation:
//   - Stage 1: require the four configured columns (MissingColumnError lists all absent ones).
//   - Stage 2: group by (age, year); actual and exposure are summed, NaN counts as 0.
//   - Stage 3: qx_raw = actual/exposure, 0 when actual is 0; clip into [0,1] and count.
//
// Cells are sorted by age, then year. Non-integral age or year values are
// rejected with qxcast.ErrBadInput.
//
// Complexity: O(n log n) for n input rows.
func Build(df *frame.Frame, cols Columns, opts ...Option) (*Surface, error) {
	o := gatherOptions(opts)
	cols = cols.withDefaults()

	if err := df.Require(cols.Age, cols.Year, cols.Actual, cols.Exposure); err != nil {
		return nil, surfaceErrorf("Build", err)
	}
	ages, err := df.Floats(cols.Age)
	if err != nil {
		return nil, surfaceErrorf("Build", err)
	}
	years, err := df.Floats(cols.Year)
	if err != nil {
		return nil, surfaceErrorf("Build", err)
	}
	actual, err := df.Floats(cols.Actual)
	if err != nil {
		return nil, surfaceErrorf("Build", err)
	}
	exposure, err := df.Floats(cols.Exposure)
	if err != nil {
		return nil, surfaceErrorf("Build", err)
	}

	o.logger.Info("grouping data by age and year", "rows", df.Len())
	groups := make(map[qxcast.Cell]*Cell)
	for i := range ages {
		age, okA := toKey(ages[i])
		year, okY := toKey(years[i])
		if !okA || !okY {
			return nil, surfaceErrorf("Build",
				fmt.Errorf("%w: row %d has non-integral age/year (%g, %g)", qxcast.ErrBadInput, i, ages[i], years[i]))
		}
		k := qxcast.Cell{Age: age, Year: year}
		c, ok := groups[k]
		if !ok {
			c = &Cell{Age: age, Year: year}
			groups[k] = c
		}
		c.Actual += zeroNaN(actual[i])
		c.Exposure += zeroNaN(exposure[i])
	}

	s := &Surface{Columns: cols, Cells: make([]Cell, 0, len(groups))}
	for _, c := range groups {
		s.Cells = append(s.Cells, *c)
	}
	sort.Slice(s.Cells, func(i, j int) bool {
		if s.Cells[i].Age != s.Cells[j].Age {
			return s.Cells[i].Age < s.Cells[j].Age
		}
		return s.Cells[i].Year < s.Cells[j].Year
	})

	o.logger.Info("calculating qx_raw rates")
	for i := range s.Cells {
		c := &s.Cells[i]
		q := 0.0
		if c.Actual != 0 {
			q = c.Actual / c.Exposure
		}
		c.QxRaw = s.clip(q)
	}
	s.logClipping(o)
	s.buildIndex()
	o.logger.Info("surface built", "cells", len(s.Cells))

	return s, nil
}

// clip moves q into [0,1] and counts the move. +Inf from positive actual
// over zero exposure clips to 1; NaN passes through.
func (s *Surface) clip(q float64) float64 {
	switch {
	case q > 1:
		s.Clipped++
		return 1
	case q < 0:
		s.Floored++
		return 0
	}
	return q
}

func (s *Surface) logClipping(o options) {
	o.logger.Info("rates over 1 were capped", "count", s.Clipped)
	if s.Floored > 0 {
		o.logger.Warn("negative rates floored at 0", "count", s.Floored)
	}
}

// FromFrame re-enters a structured frame holding at least the age, year and
// qx_raw columns (for example a surface previously written to CSV).
//
// Actual and exposure are read when present. qx_raw is clipped into [0,1]
// like Build does, and the source frame carries the clipped values. Rows
// with a NaN qx_raw are kept in the frame but left out of the grid, so Grid
// reports them as missing.
// Duplicate (age, year) rows are rejected with qxcast.ErrBadInput.
func FromFrame(df *frame.Frame, cols Columns, opts ...Option) (*Surface, error) {
	o := gatherOptions(opts)
	cols = cols.withDefaults()

	if err := df.Require(cols.Age, cols.Year, QxRaw); err != nil {
		return nil, surfaceErrorf("FromFrame", err)
	}
	ages, err := df.Floats(cols.Age)
	if err != nil {
		return nil, surfaceErrorf("FromFrame", err)
	}
	years, err := df.Floats(cols.Year)
	if err != nil {
		return nil, surfaceErrorf("FromFrame", err)
	}
	rates, err := df.Floats(QxRaw)
	if err != nil {
		return nil, surfaceErrorf("FromFrame", err)
	}
	actual := optionalFloats(df, cols.Actual)
	exposure := optionalFloats(df, cols.Exposure)

	s := &Surface{Columns: cols, Cells: make([]Cell, len(ages))}
	seen := make(map[qxcast.Cell]struct{}, len(ages))
	for i := range ages {
		age, okA := toKey(ages[i])
		year, okY := toKey(years[i])
		if !okA || !okY {
			return nil, surfaceErrorf("FromFrame",
				fmt.Errorf("%w: row %d has non-integral age/year (%g, %g)", qxcast.ErrBadInput, i, ages[i], years[i]))
		}
		k := qxcast.Cell{Age: age, Year: year}
		if _, dup := seen[k]; dup {
			return nil, surfaceErrorf("FromFrame",
				fmt.Errorf("%w: duplicate cell age=%d year=%d", qxcast.ErrBadInput, age, year))
		}
		seen[k] = struct{}{}
		rates[i] = s.clip(rates[i])
		s.Cells[i] = Cell{Age: age, Year: year, Actual: actual[i], Exposure: exposure[i], QxRaw: rates[i]}
	}
	s.source = df.Clone()
	if err = s.source.AddFloat(QxRaw, rates); err != nil {
		return nil, surfaceErrorf("FromFrame", err)
	}
	s.logClipping(o)
	s.buildIndex()
	o.logger.Debug("surface re-entered from frame", "cells", len(s.Cells))

	return s, nil
}

func optionalFloats(df *frame.Frame, name string) []float64 {
	if vals, err := df.Floats(name); err == nil {
		return vals
	}
	out := make([]float64, df.Len())
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func zeroNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func (s *Surface) buildIndex() {
	s.index = make(map[qxcast.Cell]int, len(s.Cells))
	for i, c := range s.Cells {
		if math.IsNaN(c.QxRaw) {
			continue
		}
		s.index[qxcast.Cell{Age: c.Age, Year: c.Year}] = i
	}
}

// Rate returns qx_raw at (age, year); false when the cell is absent.
func (s *Surface) Rate(age, year int) (float64, bool) {
	i, ok := s.index[qxcast.Cell{Age: age, Year: year}]
	if !ok {
		return 0, false
	}
	return s.Cells[i].QxRaw, true
}

// Ages returns the sorted distinct ages present on the surface.
func (s *Surface) Ages() []int {
	return s.distinct(func(c Cell) int { return c.Age })
}

// Years returns the sorted distinct years present on the surface.
func (s *Surface) Years() []int {
	return s.distinct(func(c Cell) int { return c.Year })
}

func (s *Surface) distinct(key func(Cell) int) []int {
	set := make(map[int]struct{})
	for _, c := range s.Cells {
		set[key(c)] = struct{}{}
	}
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// Frame renders the surface as a new frame. Built surfaces yield the columns
// age, year, actual, exposure, qx_raw; re-entered surfaces yield a copy of
// the source frame.
func (s *Surface) Frame() (*frame.Frame, error) {
	if s.source != nil {
		return s.source.Clone(), nil
	}
	n := len(s.Cells)
	age, year := make([]float64, n), make([]float64, n)
	actual, exposure, qx := make([]float64, n), make([]float64, n), make([]float64, n)
	for i, c := range s.Cells {
		age[i], year[i] = float64(c.Age), float64(c.Year)
		actual[i], exposure[i], qx[i] = c.Actual, c.Exposure, c.QxRaw
	}
	out := frame.New()
	for _, col := range []struct {
		name string
		vals []float64
	}{
		{s.Columns.Age, age},
		{s.Columns.Year, year},
		{s.Columns.Actual, actual},
		{s.Columns.Exposure, exposure},
		{QxRaw, qx},
	} {
		if err := out.AddFloat(col.name, col.vals); err != nil {
			return nil, surfaceErrorf("Frame", err)
		}
	}
	return out, nil
}
