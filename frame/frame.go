// Package frame is a small columnar dataset: an ordered set of equally long,
// named columns holding either float64 or string values.
//
// Frames are the tabular surface of qxcast: experience data comes in as a
// Frame, fitted and forecast rates go out as a Frame. Missing float values are
// NaN; missing string values are "".
//
// Storage is a gota DataFrame. Frame adds error-returning accessors, the
// MissingColumnError contract and copy semantics on top of it: a Frame never
// aliases caller slices.
package frame

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/katalvlaran/qxcast"
)

// Kind is the storage type of a column.
type Kind int

const (
	// Float columns hold float64 values; NaN means missing.
	Float Kind = iota
	// String columns hold text values; "" means missing.
	String
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

var (
	// ErrLengthMismatch is returned when a column length differs from the frame's row count.
	ErrLengthMismatch = errors.New("frame: column length mismatch")

	// ErrWrongKind is returned when a float column is read as strings or vice versa.
	ErrWrongKind = errors.New("frame: wrong column kind")

	// ErrEmptyName is returned when a column name is empty.
	ErrEmptyName = errors.New("frame: empty column name")

	// ErrOutOfRange is returned for an invalid row index.
	ErrOutOfRange = errors.New("frame: row index out of range")
)

// frameErrorf wraps err with the method name and column.
func frameErrorf(method, col string, err error) error {
	return fmt.Errorf("Frame.%s(%q): %w", method, col, err)
}

// Frame is an ordered collection of named columns of equal length.
// The zero value is not usable; call New.
type Frame struct {
	df dataframe.DataFrame
}

// New returns an empty frame with no columns and no rows.
func New() *Frame {
	return &Frame{}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f.df.Ncol() == 0 {
		return 0
	}
	return f.df.Nrow()
}

// Names returns the column names in insertion order.
func (f *Frame) Names() []string {
	if f.df.Ncol() == 0 {
		return nil
	}
	return f.df.Names()
}

// Has reports whether the column exists.
func (f *Frame) Has(name string) bool {
	for _, n := range f.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// Require returns a *qxcast.MissingColumnError listing every absent name,
// in argument order, or nil when all are present.
func (f *Frame) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if !f.Has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &qxcast.MissingColumnError{Columns: missing}
	}
	return nil
}

// Kind returns the storage kind of a column.
func (f *Frame) Kind(name string) (Kind, error) {
	if !f.Has(name) {
		return 0, f.Require(name)
	}
	return kindOf(f.df.Col(name).Type()), nil
}

func kindOf(t series.Type) Kind {
	if t == series.String {
		return String
	}
	return Float
}

// AddFloat adds (or replaces in place) a float column. The values are copied.
func (f *Frame) AddFloat(name string, vals []float64) error {
	if err := f.checkAdd(name, len(vals)); err != nil {
		return frameErrorf("AddFloat", name, err)
	}
	if vals == nil {
		vals = []float64{}
	}
	if err := f.put(series.New(vals, series.Float, name)); err != nil {
		return frameErrorf("AddFloat", name, err)
	}
	return nil
}

// AddString adds (or replaces in place) a string column. The values are copied.
func (f *Frame) AddString(name string, vals []string) error {
	if err := f.checkAdd(name, len(vals)); err != nil {
		return frameErrorf("AddString", name, err)
	}
	if vals == nil {
		vals = []string{}
	}
	if err := f.put(series.New(vals, series.String, name)); err != nil {
		return frameErrorf("AddString", name, err)
	}
	return nil
}

func (f *Frame) checkAdd(name string, n int) error {
	if name == "" {
		return ErrEmptyName
	}
	names := f.Names()
	// a frame whose only column is being replaced may change length
	if len(names) == 0 || (len(names) == 1 && names[0] == name) {
		return nil
	}
	if n != f.Len() {
		return ErrLengthMismatch
	}
	return nil
}

func (f *Frame) put(s series.Series) error {
	if s.Err != nil {
		return s.Err
	}
	names := f.Names()
	var df dataframe.DataFrame
	if len(names) == 0 || (len(names) == 1 && names[0] == s.Name) {
		df = dataframe.New(s)
	} else {
		df = f.df.Mutate(s)
	}
	if df.Err != nil {
		return df.Err
	}
	f.df = df
	return nil
}

// Remove deletes a column and reports whether it existed.
func (f *Frame) Remove(name string) bool {
	if !f.Has(name) {
		return false
	}
	if f.df.Ncol() == 1 {
		f.df = dataframe.DataFrame{}
		return true
	}
	f.df = f.df.Drop(name)
	return true
}

// Floats returns a copy of a float column.
func (f *Frame) Floats(name string) ([]float64, error) {
	if !f.Has(name) {
		return nil, frameErrorf("Floats", name, f.Require(name))
	}
	col := f.df.Col(name)
	if kindOf(col.Type()) != Float {
		return nil, frameErrorf("Floats", name, ErrWrongKind)
	}
	return col.Float(), nil
}

// Strings returns a copy of a string column.
func (f *Frame) Strings(name string) ([]string, error) {
	if !f.Has(name) {
		return nil, frameErrorf("Strings", name, f.Require(name))
	}
	col := f.df.Col(name)
	if kindOf(col.Type()) != String {
		return nil, frameErrorf("Strings", name, ErrWrongKind)
	}
	return col.Records(), nil
}

// Text returns the value at (name, row) formatted as text, regardless of
// kind. NaN floats format as "".
func (f *Frame) Text(name string, row int) (string, error) {
	if !f.Has(name) {
		return "", frameErrorf("Text", name, f.Require(name))
	}
	if row < 0 || row >= f.Len() {
		return "", frameErrorf("Text", name, ErrOutOfRange)
	}
	el := f.df.Col(name).Elem(row)
	if el.Type() == series.String {
		return el.String(), nil
	}
	v := el.Float()
	if math.IsNaN(v) {
		return "", nil
	}
	return strconv.FormatFloat(v, 'g', -1, 64), nil
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	if f.df.Ncol() == 0 {
		return New()
	}
	return &Frame{df: f.df.Copy()}
}

// Select returns a new frame holding only the named columns, in the given
// order. Repeated names are kept once.
func (f *Frame) Select(names ...string) (*Frame, error) {
	if err := f.Require(names...); err != nil {
		return nil, fmt.Errorf("Frame.Select: %w", err)
	}
	if len(names) == 0 {
		return New(), nil
	}
	seen := make(map[string]struct{}, len(names))
	keep := make([]string, 0, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		keep = append(keep, n)
	}
	df := f.df.Select(keep)
	if df.Err != nil {
		return nil, fmt.Errorf("Frame.Select: %w", df.Err)
	}
	return &Frame{df: df}, nil
}
