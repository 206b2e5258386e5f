package surface

import (
	"log/slog"
	"math"
)

// QxRaw is the name of the crude rate column produced by Build.
const QxRaw = "qx_raw"

// Columns names the four experience columns a surface is built from.
type Columns struct {
	Age      string
	Year     string
	Actual   string
	Exposure string
}

// Actuarial-standard column names.
const (
	DefaultAgeColumn      = "attained_age"
	DefaultYearColumn     = "observation_year"
	DefaultActualColumn   = "death_claim_amount"
	DefaultExposureColumn = "amount_exposed"
)

// DefaultColumns returns the actuarial-standard column names.
func DefaultColumns() Columns {
	return Columns{
		Age:      DefaultAgeColumn,
		Year:     DefaultYearColumn,
		Actual:   DefaultActualColumn,
		Exposure: DefaultExposureColumn,
	}
}

// withDefaults fills empty names from DefaultColumns.
func (c Columns) withDefaults() Columns {
	d := DefaultColumns()
	if c.Age == "" {
		c.Age = d.Age
	}
	if c.Year == "" {
		c.Year = d.Year
	}
	if c.Actual == "" {
		c.Actual = d.Actual
	}
	if c.Exposure == "" {
		c.Exposure = d.Exposure
	}
	return c
}

// Cell is one aggregated (age, year) observation.
// Actual and Exposure are NaN for surfaces re-entered via FromFrame
// without those columns.
type Cell struct {
	Age      int
	Year     int
	Actual   float64
	Exposure float64
	QxRaw    float64
}

// Option configures Build and FromFrame.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger routes progress messages to l. A nil logger keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func gatherOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// toKey converts a float key to int; false for NaN, ±Inf or fractional values.
func toKey(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, false
	}
	return int(v), true
}
