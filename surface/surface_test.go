package surface_test

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/katalvlaran/qxcast"
	"github.com/katalvlaran/qxcast/frame"
	"github.com/katalvlaran/qxcast/surface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = surface.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

// experience builds a frame with the default column names.
func experience(t *testing.T, age, year, actual, exposure []float64) *frame.Frame {
	t.Helper()
	df := frame.New()
	require.NoError(t, df.AddFloat(surface.DefaultAgeColumn, age))
	require.NoError(t, df.AddFloat(surface.DefaultYearColumn, year))
	require.NoError(t, df.AddFloat(surface.DefaultActualColumn, actual))
	require.NoError(t, df.AddFloat(surface.DefaultExposureColumn, exposure))
	return df
}

func TestBuild_MissingColumns(t *testing.T) {
	df := frame.New()
	require.NoError(t, df.AddFloat(surface.DefaultAgeColumn, []float64{50}))
	require.NoError(t, df.AddFloat(surface.DefaultActualColumn, []float64{1}))

	_, err := surface.Build(df, surface.DefaultColumns(), quiet)
	var mce *qxcast.MissingColumnError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, []string{surface.DefaultYearColumn, surface.DefaultExposureColumn}, mce.Columns)
}

func TestBuild_AggregatesDuplicatesAndSorts(t *testing.T) {
	df := experience(t,
		[]float64{51, 50, 50, 51},
		[]float64{2000, 2000, 2000, 2000},
		[]float64{2, 1, 3, 0},
		[]float64{100, 100, 100, 50},
	)
	s, err := surface.Build(df, surface.DefaultColumns(), quiet)
	require.NoError(t, err)
	require.Len(t, s.Cells, 2)

	assert.Equal(t, surface.Cell{Age: 50, Year: 2000, Actual: 4, Exposure: 200, QxRaw: 0.02}, s.Cells[0])
	assert.Equal(t, 51, s.Cells[1].Age)
	assert.InDelta(t, 2.0/150.0, s.Cells[1].QxRaw, 1e-15)
	assert.Equal(t, []int{50, 51}, s.Ages())
	assert.Equal(t, []int{2000}, s.Years())
}

func TestBuild_ZeroActualIsZeroRate(t *testing.T) {
	df := experience(t,
		[]float64{50, 51, 52},
		[]float64{2000, 2000, 2000},
		[]float64{0, 0, 0},
		[]float64{100, 0, 1e-12},
	)
	s, err := surface.Build(df, surface.DefaultColumns(), quiet)
	require.NoError(t, err)
	for _, c := range s.Cells {
		assert.Equal(t, 0.0, c.QxRaw, "age %d", c.Age)
	}
	assert.Zero(t, s.Clipped)
}

func TestBuild_ClipsAndCounts(t *testing.T) {
	df := experience(t,
		[]float64{50, 51, 52, 53},
		[]float64{2000, 2000, 2000, 2000},
		[]float64{5, 3, 1, 2},
		[]float64{2, 3, 10, 0},
	)
	s, err := surface.Build(df, surface.DefaultColumns(), quiet)
	require.NoError(t, err)

	// 5/2 > 1 and 2/0 = +Inf are clipped; 3/3 == 1 is not.
	assert.Equal(t, 2, s.Clipped)
	want := []float64{1, 1, 0.1, 1}
	for i, c := range s.Cells {
		assert.Equal(t, want[i], c.QxRaw)
		assert.LessOrEqual(t, c.QxRaw, 1.0)
	}
}

func TestBuild_CustomColumnsAndBadKeys(t *testing.T) {
	df := frame.New()
	require.NoError(t, df.AddFloat("age", []float64{50.5}))
	require.NoError(t, df.AddFloat("yr", []float64{2000}))
	require.NoError(t, df.AddFloat("deaths", []float64{1}))
	require.NoError(t, df.AddFloat("lives", []float64{10}))

	cols := surface.Columns{Age: "age", Year: "yr", Actual: "deaths", Exposure: "lives"}
	_, err := surface.Build(df, cols, quiet)
	assert.ErrorIs(t, err, qxcast.ErrBadInput)
}

func TestSurface_FrameRoundTrip(t *testing.T) {
	df := experience(t,
		[]float64{50, 50, 51, 51},
		[]float64{2000, 2001, 2000, 2001},
		[]float64{1, 2, 3, 4},
		[]float64{100, 100, 100, 100},
	)
	s, err := surface.Build(df, surface.DefaultColumns(), quiet)
	require.NoError(t, err)

	out, err := s.Frame()
	require.NoError(t, err)
	assert.Equal(t, []string{
		surface.DefaultAgeColumn, surface.DefaultYearColumn,
		surface.DefaultActualColumn, surface.DefaultExposureColumn, surface.QxRaw,
	}, out.Names())

	back, err := surface.FromFrame(out, surface.DefaultColumns(), quiet)
	require.NoError(t, err)
	q, ok := back.Rate(51, 2001)
	require.True(t, ok)
	assert.InDelta(t, 0.04, q, 1e-15)
}

func TestFromFrame_Validation(t *testing.T) {
	df := frame.New()
	require.NoError(t, df.AddFloat(surface.DefaultAgeColumn, []float64{50, 50}))
	require.NoError(t, df.AddFloat(surface.DefaultYearColumn, []float64{2000, 2000}))

	_, err := surface.FromFrame(df, surface.DefaultColumns(), quiet)
	var mce *qxcast.MissingColumnError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, []string{surface.QxRaw}, mce.Columns)

	require.NoError(t, df.AddFloat(surface.QxRaw, []float64{0.1, 0.2}))
	_, err = surface.FromFrame(df, surface.DefaultColumns(), quiet)
	assert.ErrorIs(t, err, qxcast.ErrBadInput, "duplicate cells must be rejected")
}

func TestFromFrame_ClipsRates(t *testing.T) {
	df := frame.New()
	require.NoError(t, df.AddFloat(surface.DefaultAgeColumn, []float64{50, 51, 52}))
	require.NoError(t, df.AddFloat(surface.DefaultYearColumn, []float64{2000, 2000, 2000}))
	require.NoError(t, df.AddFloat(surface.QxRaw, []float64{1.7, -0.2, math.NaN()}))

	s, err := surface.FromFrame(df, surface.DefaultColumns(), quiet)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Clipped)
	assert.Equal(t, 1, s.Floored)

	q, ok := s.Rate(50, 2000)
	require.True(t, ok)
	assert.Equal(t, 1.0, q)
	q, ok = s.Rate(51, 2000)
	require.True(t, ok)
	assert.Equal(t, 0.0, q)
	_, ok = s.Rate(52, 2000)
	assert.False(t, ok, "NaN rates stay out of the surface")

	out, err := s.Frame()
	require.NoError(t, err)
	rates, err := out.Floats(surface.QxRaw)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, rates[:2])
	assert.True(t, math.IsNaN(rates[2]))

	// the caller's frame is untouched
	orig, err := df.Floats(surface.QxRaw)
	require.NoError(t, err)
	assert.Equal(t, 1.7, orig[0])
}

func TestGrid_Rectangular(t *testing.T) {
	df := experience(t,
		[]float64{51, 50, 51, 50},
		[]float64{2001, 2001, 2000, 2000},
		[]float64{4, 2, 3, 1},
		[]float64{100, 100, 100, 100},
	)
	s, err := surface.Build(df, surface.DefaultColumns(), quiet)
	require.NoError(t, err)

	g, err := s.Grid()
	require.NoError(t, err)
	assert.Equal(t, []int{2000, 2001}, g.Years)
	assert.Equal(t, []int{50, 51}, g.Ages)

	row, err := g.Rates.Row(1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.02, 0.04}, row, 1e-15)
}

func TestGrid_IncompleteSurface(t *testing.T) {
	df := experience(t,
		[]float64{50, 50, 51},
		[]float64{2000, 2001, 2000},
		[]float64{1, 1, 1},
		[]float64{100, 100, 100},
	)
	s, err := surface.Build(df, surface.DefaultColumns(), quiet)
	require.NoError(t, err)

	_, err = s.Grid()
	assert.ErrorIs(t, err, qxcast.ErrIncompleteSurface)
	var ise *qxcast.IncompleteSurfaceError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, []qxcast.Cell{{Age: 51, Year: 2001}}, ise.Missing)
}

func TestGrid_NaNRateIsMissing(t *testing.T) {
	df := frame.New()
	require.NoError(t, df.AddFloat(surface.DefaultAgeColumn, []float64{50, 51}))
	require.NoError(t, df.AddFloat(surface.DefaultYearColumn, []float64{2000, 2000}))
	require.NoError(t, df.AddFloat(surface.QxRaw, []float64{0.1, math.NaN()}))

	s, err := surface.FromFrame(df, surface.DefaultColumns(), quiet)
	require.NoError(t, err)
	_, err = s.Grid()
	assert.ErrorIs(t, err, qxcast.ErrIncompleteSurface)
}

func gridOf(t *testing.T, rates []float64) *surface.Grid {
	t.Helper()
	ages := make([]float64, len(rates))
	years := make([]float64, len(rates))
	for i := range rates {
		ages[i] = float64(60 + i)
		years[i] = 2010
	}
	df := frame.New()
	require.NoError(t, df.AddFloat(surface.DefaultAgeColumn, ages))
	require.NoError(t, df.AddFloat(surface.DefaultYearColumn, years))
	require.NoError(t, df.AddFloat(surface.QxRaw, rates))
	s, err := surface.FromFrame(df, surface.DefaultColumns(), quiet)
	require.NoError(t, err)
	g, err := s.Grid()
	require.NoError(t, err)
	return g
}

func TestLog_BoundaryPolicies(t *testing.T) {
	g := gridOf(t, []float64{0.5, 0})

	_, _, err := g.Log(surface.Boundary{}, nil)
	var be *qxcast.BoundaryError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 61, be.Age)
	assert.Equal(t, 2010, be.Year)
	assert.Equal(t, "log", be.Transform)

	L, clamped, err := g.Log(surface.Boundary{Policy: surface.Clamp, Epsilon: 1e-6}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, clamped)
	v, _ := L.At(0, 1)
	assert.InDelta(t, math.Log(1e-6), v, 1e-12)
	v, _ = L.At(0, 0)
	assert.InDelta(t, math.Log(0.5), v, 1e-15)
}

func TestLogit_BoundaryPolicies(t *testing.T) {
	g := gridOf(t, []float64{0.25, 1, 0})

	_, _, err := g.Logit(surface.Boundary{}, nil)
	assert.ErrorIs(t, err, qxcast.ErrBoundaryRate)

	X, clamped, err := g.Logit(surface.Boundary{Policy: surface.Clamp}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, clamped)
	v, _ := X.At(0, 0)
	assert.InDelta(t, math.Log(0.25/0.75), v, 1e-15)
	v, _ = X.At(0, 1)
	assert.InDelta(t, surface.Logit(1-surface.DefaultEpsilon), v, 1e-9)
	v, _ = X.At(0, 2)
	assert.Less(t, v, -20.0)
}

func TestInvLogit(t *testing.T) {
	for _, x := range []float64{-800, -5, 0, 3.2, 800} {
		p := surface.InvLogit(x)
		assert.False(t, math.IsNaN(p))
		assert.InDelta(t, 1/(1+math.Exp(-x)), p, 1e-15)
	}
	assert.InDelta(t, 0.3, surface.InvLogit(surface.Logit(0.3)), 1e-15)
}

func TestMap_PreservesRowsAndOverwrites(t *testing.T) {
	df := frame.New()
	require.NoError(t, df.AddFloat("age", []float64{50, 51, 52, 50.5}))
	require.NoError(t, df.AddFloat("year", []float64{2000, 2000, 2000, 2000}))
	require.NoError(t, df.AddFloat("qx_lc", []float64{9, 9, 9, 9}))
	require.NoError(t, df.AddString("gender", []string{"F", "M", "F", "M"}))

	src := surface.Rates{{Age: 50, Year: 2000}: 0.01, {Age: 51, Year: 2000}: 0.02}
	out, err := surface.Map(df, src, surface.MapSpec{AgeCol: "age", YearCol: "year", RateCol: "qx_lc"})
	require.NoError(t, err)

	assert.Equal(t, df.Len(), out.Len())
	assert.Equal(t, []string{"age", "year", "gender", "qx_lc"}, out.Names())
	rates, err := out.Floats("qx_lc")
	require.NoError(t, err)
	assert.Equal(t, 0.01, rates[0])
	assert.Equal(t, 0.02, rates[1])
	assert.True(t, math.IsNaN(rates[2]), "unknown key maps to NaN")
	assert.True(t, math.IsNaN(rates[3]), "non-integral key maps to NaN")

	orig, _ := df.Floats("qx_lc")
	assert.Equal(t, []float64{9, 9, 9, 9}, orig, "input frame must be untouched")

	_, err = surface.Map(df, src, surface.MapSpec{AgeCol: "age", YearCol: "yr", RateCol: "q"})
	var mce *qxcast.MissingColumnError
	assert.True(t, errors.As(err, &mce))
}

func TestGrid_RateAndLong(t *testing.T) {
	df := experience(t,
		[]float64{50, 51, 50, 51},
		[]float64{2000, 2000, 2001, 2001},
		[]float64{1, 2, 3, 4},
		[]float64{100, 100, 100, 100},
	)
	s, err := surface.Build(df, surface.DefaultColumns(), quiet)
	require.NoError(t, err)
	g, err := s.Grid()
	require.NoError(t, err)

	v, ok := g.Rate(51, 2000)
	require.True(t, ok)
	assert.InDelta(t, 0.02, v, 1e-15)
	_, ok = g.Rate(52, 2000)
	assert.False(t, ok)
	_, ok = g.Rate(50, 1999)
	assert.False(t, ok)

	long, err := g.Long("year", "age", "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"year", "age", "q"}, long.Names())
	years, _ := long.Floats("year")
	ages, _ := long.Floats("age")
	assert.Equal(t, []float64{2000, 2000, 2001, 2001}, years)
	assert.Equal(t, []float64{50, 51, 50, 51}, ages)
}
