package surface

import (
	"math"

	"github.com/katalvlaran/qxcast"
	"github.com/katalvlaran/qxcast/frame"
)

// RateSource yields a model rate for an (age, year) key.
type RateSource interface {
	Rate(age, year int) (float64, bool)
}

// Rates is a map-backed RateSource.
type Rates map[qxcast.Cell]float64

// Rate implements RateSource.
func (r Rates) Rate(age, year int) (float64, bool) {
	v, ok := r[qxcast.Cell{Age: age, Year: year}]
	return v, ok
}

// MapSpec names the join keys in the target frame and the rate column to write.
type MapSpec struct {
	AgeCol  string
	YearCol string
	RateCol string
}

// Map left-joins rates from src onto df by (age, year).
//
// The result keeps every row and column of df in order and appends RateCol;
// a column already named RateCol is replaced rather than duplicated. Rows
// whose key is missing, non-integral or unknown to src get NaN. df itself is
// not modified.
//
// Errors:
//   - *qxcast.MissingColumnError when df lacks the age or year column.
//
// Complexity: O(n) for n rows of df.
func Map(df *frame.Frame, src RateSource, ms MapSpec) (*frame.Frame, error) {
	if err := df.Require(ms.AgeCol, ms.YearCol); err != nil {
		return nil, surfaceErrorf("Map", err)
	}
	ages, err := df.Floats(ms.AgeCol)
	if err != nil {
		return nil, surfaceErrorf("Map", err)
	}
	years, err := df.Floats(ms.YearCol)
	if err != nil {
		return nil, surfaceErrorf("Map", err)
	}

	vals := make([]float64, df.Len())
	for i := range vals {
		vals[i] = math.NaN()
		age, okA := toKey(ages[i])
		year, okY := toKey(years[i])
		if !okA || !okY {
			continue
		}
		if v, ok := src.Rate(age, year); ok {
			vals[i] = v
		}
	}

	out := df.Clone()
	out.Remove(ms.RateCol)
	if err = out.AddFloat(ms.RateCol, vals); err != nil {
		return nil, surfaceErrorf("Map", err)
	}

	return out, nil
}
