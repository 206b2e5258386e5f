// Package csvio reads and writes frames as CSV with a header row.
//
// Column kinds are inferred on read: a column is Float when every non-empty
// cell parses as a float (empty cells become NaN), otherwise String.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/katalvlaran/qxcast/frame"
)

var (
	// ErrNoHeader is returned for empty input.
	ErrNoHeader = errors.New("csvio: missing header row")

	// ErrDuplicateColumn is returned when a header name repeats.
	ErrDuplicateColumn = errors.New("csvio: duplicate column")
)

// Read parses CSV from r into a new frame.
func Read(r io.Reader) (*frame.Frame, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csvio: read: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoHeader
	}
	header, rows := records[0], records[1:]

	out := frame.New()
	for j, name := range header {
		name = strings.TrimSpace(name)
		if out.Has(name) {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		cells := make([]string, len(rows))
		for i, rec := range rows {
			cells[i] = strings.TrimSpace(rec[j])
		}
		if vals, ok := parseFloats(cells); ok {
			err = out.AddFloat(name, vals)
		} else {
			err = out.AddString(name, cells)
		}
		if err != nil {
			return nil, fmt.Errorf("csvio: column %q: %w", name, err)
		}
	}
	return out, nil
}

func parseFloats(cells []string) ([]float64, bool) {
	vals := make([]float64, len(cells))
	for i, c := range cells {
		if c == "" {
			vals[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, false
		}
		vals[i] = v
	}
	return vals, true
}

// Write renders df as CSV to w. NaN floats are written as empty cells.
func Write(w io.Writer, df *frame.Frame) error {
	cw := csv.NewWriter(w)
	names := df.Names()
	if err := cw.Write(names); err != nil {
		return fmt.Errorf("csvio: write header: %w", err)
	}
	rec := make([]string, len(names))
	for i := 0; i < df.Len(); i++ {
		for j, n := range names {
			v, err := df.Text(n, i)
			if err != nil {
				return fmt.Errorf("csvio: row %d: %w", i, err)
			}
			rec[j] = v
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("csvio: row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadFile reads the CSV file at path.
func ReadFile(path string) (*frame.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csvio: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// WriteFile writes df to path, creating or truncating it.
func WriteFile(path string, df *frame.Frame) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csvio: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(f, df)
}
