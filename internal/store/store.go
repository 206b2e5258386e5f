// Package store persists forecasting runs in SQLite.
//
// A run row records the model, input and parameters; fitted and forecast
// rates and GLM coefficients hang off it by run id.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Rate kinds.
const (
	KindFitted   = "fitted"
	KindForecast = "forecast"
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("store: run not found")

// Store is a SQLite-backed run store.
type Store struct {
	db *sql.DB
}

// Run is one CLI invocation.
type Run struct {
	ID        uuid.UUID
	Model     string
	Input     string
	Formula   string
	Params    string
	CreatedAt time.Time
}

// Rate is one (age, year) rate of a run.
type Rate struct {
	Kind string
	Age  int
	Year int
	Rate float64
}

// Coefficient is one GLM coefficient of a run.
type Coefficient struct {
	Name   string
	Coef   float64
	StdErr float64
	Odds   float64
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

// Open opens (creating if needed) the database at path and applies the schema.
// ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store: path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path)
	}
	dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	// one connection keeps :memory: databases shared across calls
	db.SetMaxOpenConns(1)
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err = db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: apply schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateRun inserts r, assigning a new ID and CreatedAt when they are zero,
// and returns the stored run.
func (s *Store) CreateRun(ctx context.Context, r Run) (Run, error) {
	r, err := prepareRun(r)
	if err != nil {
		return Run{}, err
	}
	if err = insertRun(ctx, s.db, r); err != nil {
		return Run{}, err
	}
	return r, nil
}

// SaveRun stores a run with its rates and coefficients in one transaction,
// so a failed payload leaves no run row behind. ID and CreatedAt are assigned
// as in CreateRun.
func (s *Store) SaveRun(ctx context.Context, r Run, rates []Rate, coefs []Coefficient) (_ Run, err error) {
	r, err = prepareRun(r)
	if err != nil {
		return Run{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("store: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertRun(ctx, tx, r); err != nil {
		return Run{}, err
	}
	if err = insertRates(ctx, tx, r.ID, rates); err != nil {
		return Run{}, err
	}
	if err = insertCoefficients(ctx, tx, r.ID, coefs); err != nil {
		return Run{}, err
	}
	if err = tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("store: commit: %w", err)
	}
	return r, nil
}

// execer is the subset of *sql.DB and *sql.Tx the insert helpers need.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

func prepareRun(r Run) (Run, error) {
	if strings.TrimSpace(r.Model) == "" {
		return Run{}, fmt.Errorf("store: model is required")
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.CreatedAt = fromMillis(toMillis(r.CreatedAt))
	return r, nil
}

func insertRun(ctx context.Context, ex execer, r Run) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO runs (id, model, input, formula, params, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.Model, r.Input, r.Formula, r.Params, toMillis(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("store: insert run: %w", err)
	}
	return nil
}

// GetRun loads a run by id.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, model, input, formula, params, created_at FROM runs WHERE id = ?`, id.String())
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("store: get run: %w", err)
	}
	return r, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, model, input, formula, params, created_at FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list runs: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r       Run
		id      string
		created int64
	)
	if err := sc.Scan(&id, &r.Model, &r.Input, &r.Formula, &r.Params, &created); err != nil {
		return Run{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Run{}, err
	}
	r.ID = parsed
	r.CreatedAt = fromMillis(created)
	return r, nil
}

// PutRates stores rates for a run in one transaction. NaN rates are skipped.
func (s *Store) PutRates(ctx context.Context, runID uuid.UUID, rates []Rate) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertRates(ctx, tx, runID, rates); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

func insertRates(ctx context.Context, ex execer, runID uuid.UUID, rates []Rate) error {
	stmt, err := ex.PrepareContext(ctx,
		`INSERT OR REPLACE INTO rates (run_id, kind, age, year, rate) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare rates: %w", err)
	}
	defer stmt.Close()

	for _, r := range rates {
		if math.IsNaN(r.Rate) {
			continue
		}
		if _, err = stmt.ExecContext(ctx, runID.String(), r.Kind, r.Age, r.Year, r.Rate); err != nil {
			return fmt.Errorf("store: insert rate: %w", err)
		}
	}
	return nil
}

// Rates returns the rates of a run for one kind, ordered by year then age.
func (s *Store) Rates(ctx context.Context, runID uuid.UUID, kind string) ([]Rate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, age, year, rate FROM rates WHERE run_id = ? AND kind = ? ORDER BY year, age`,
		runID.String(), kind)
	if err != nil {
		return nil, fmt.Errorf("store: query rates: %w", err)
	}
	defer rows.Close()

	var out []Rate
	for rows.Next() {
		var r Rate
		if err = rows.Scan(&r.Kind, &r.Age, &r.Year, &r.Rate); err != nil {
			return nil, fmt.Errorf("store: scan rate: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PutCoefficients stores GLM coefficients for a run, keeping their order.
func (s *Store) PutCoefficients(ctx context.Context, runID uuid.UUID, coefs []Coefficient) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = insertCoefficients(ctx, tx, runID, coefs); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

func insertCoefficients(ctx context.Context, ex execer, runID uuid.UUID, coefs []Coefficient) error {
	for i, c := range coefs {
		_, err := ex.ExecContext(ctx,
			`INSERT OR REPLACE INTO coefficients (run_id, position, name, coef, std_err, odds) VALUES (?, ?, ?, ?, ?, ?)`,
			runID.String(), i, c.Name, c.Coef, c.StdErr, c.Odds)
		if err != nil {
			return fmt.Errorf("store: insert coefficient: %w", err)
		}
	}
	return nil
}

// Coefficients returns the coefficients of a run in fit order.
func (s *Store) Coefficients(ctx context.Context, runID uuid.UUID) ([]Coefficient, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, coef, std_err, odds FROM coefficients WHERE run_id = ? ORDER BY position`,
		runID.String())
	if err != nil {
		return nil, fmt.Errorf("store: query coefficients: %w", err)
	}
	defer rows.Close()

	var out []Coefficient
	for rows.Next() {
		var c Coefficient
		if err = rows.Scan(&c.Name, &c.Coef, &c.StdErr, &c.Odds); err != nil {
			return nil, fmt.Errorf("store: scan coefficient: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
