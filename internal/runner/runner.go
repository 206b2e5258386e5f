// Package runner executes one configured forecasting run: read the input
// CSV, fit the selected model, optionally forecast, write the outputs and
// record the run in the store.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/katalvlaran/qxcast/cbd"
	"github.com/katalvlaran/qxcast/frame"
	"github.com/katalvlaran/qxcast/internal/config"
	"github.com/katalvlaran/qxcast/internal/csvio"
	"github.com/katalvlaran/qxcast/internal/store"
	"github.com/katalvlaran/qxcast/leecarter"
	"github.com/katalvlaran/qxcast/regression"
	"github.com/katalvlaran/qxcast/surface"
	"gopkg.in/yaml.v3"
)

// PredictionColumn is appended to the GLM output frame.
const PredictionColumn = "pred"

// Result summarizes a finished run.
type Result struct {
	RunID         uuid.UUID // uuid.Nil when no store is configured
	Model         string
	FittedCells   int
	ForecastYears []int
	Formula       string
	Coefficients  []store.Coefficient
}

// Runner carries the collaborators of a run.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
}

// New returns a Runner. A nil logger uses slog.Default(); a nil out discards
// the summary.
func New(cfg *config.Config, logger *slog.Logger, out io.Writer) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if out == nil {
		out = io.Discard
	}
	return &Runner{cfg: cfg, logger: logger, out: out}
}

// Run executes the configured model.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}
	df, err := csvio.ReadFile(r.cfg.Input)
	if err != nil {
		return nil, err
	}
	r.logger.Info("input loaded", "path", r.cfg.Input, "rows", df.Len(), "columns", len(df.Names()))

	var res *Result
	switch r.cfg.Model {
	case config.ModelLeeCarter:
		res, err = r.runLeeCarter(ctx, df)
	case config.ModelCBD:
		res, err = r.runCBD(ctx, df)
	case config.ModelGLM:
		res, err = r.runGLM(ctx, df)
	default:
		err = fmt.Errorf("%w: unknown model %q", config.ErrInvalid, r.cfg.Model)
	}
	if err != nil {
		return nil, err
	}
	r.summarize(res)
	return res, nil
}

func (r *Runner) columns() surface.Columns {
	c := r.cfg.Columns
	return surface.Columns{Age: c.Age, Year: c.Year, Actual: c.Actual, Exposure: c.Exposure}
}

func (r *Runner) boundary() surface.Boundary {
	b := surface.Boundary{Policy: surface.Reject, Epsilon: r.cfg.Epsilon}
	if r.cfg.Boundary == "clamp" {
		b.Policy = surface.Clamp
	}
	return b
}

// decomposition is the part of a fitted or forecast value the runner needs.
type decomposition struct {
	frame func() (*frame.Frame, error)
	grid  *surface.Grid
}

func (r *Runner) runLeeCarter(ctx context.Context, df *frame.Frame) (*Result, error) {
	m, err := leecarter.New(leecarter.Options{
		Columns:  r.columns(),
		Variance: r.cfg.Variance,
		Seed:     r.cfg.Seed,
		Boundary: r.boundary(),
		Logger:   r.logger,
	})
	if err != nil {
		return nil, err
	}
	var f *leecarter.Fitted
	if r.cfg.Structured {
		f, err = m.FitFrame(df)
	} else {
		var s *surface.Surface
		if s, err = m.Structure(df); err == nil {
			f, err = m.Fit(s)
		}
	}
	if err != nil {
		return nil, err
	}
	fitted := decomposition{frame: func() (*frame.Frame, error) { return f.Frame(), nil }, grid: f.Grid()}

	var fc *decomposition
	if r.cfg.Years > 0 {
		out, err := m.Forecast(f, r.cfg.Years)
		if err != nil {
			return nil, err
		}
		fc = &decomposition{frame: out.Frame, grid: out.Grid()}
	}
	return r.finishDecomposition(ctx, fitted, fc)
}

func (r *Runner) runCBD(ctx context.Context, df *frame.Frame) (*Result, error) {
	m, err := cbd.New(cbd.Options{
		Columns:  r.columns(),
		Variance: r.cfg.Variance,
		Seed:     r.cfg.Seed,
		Boundary: r.boundary(),
		Logger:   r.logger,
	})
	if err != nil {
		return nil, err
	}
	var f *cbd.Fitted
	if r.cfg.Structured {
		f, err = m.FitFrame(df)
	} else {
		var s *surface.Surface
		if s, err = m.Structure(df); err == nil {
			f, err = m.Fit(s)
		}
	}
	if err != nil {
		return nil, err
	}
	fitted := decomposition{frame: func() (*frame.Frame, error) { return f.Frame(), nil }, grid: f.Grid()}

	var fc *decomposition
	if r.cfg.Years > 0 {
		out, err := m.Forecast(f, r.cfg.Years)
		if err != nil {
			return nil, err
		}
		fc = &decomposition{frame: out.Frame, grid: out.Grid()}
	}
	return r.finishDecomposition(ctx, fitted, fc)
}

func (r *Runner) finishDecomposition(ctx context.Context, fitted decomposition, fc *decomposition) (*Result, error) {
	res := &Result{
		Model:       r.cfg.Model,
		FittedCells: len(fitted.grid.Years) * len(fitted.grid.Ages),
	}
	if err := r.write(r.cfg.Output, fitted.frame); err != nil {
		return nil, err
	}
	if fc != nil {
		res.ForecastYears = fc.grid.Years
		if err := r.write(r.cfg.Forecast, fc.frame); err != nil {
			return nil, err
		}
	}
	if r.cfg.DB == "" {
		return res, nil
	}

	rates := gridRates(store.KindFitted, fitted.grid)
	if fc != nil {
		rates = append(rates, gridRates(store.KindForecast, fc.grid)...)
	}
	id, err := r.persist(ctx, "", rates, nil)
	if err != nil {
		return nil, err
	}
	res.RunID = id
	return res, nil
}

func gridRates(kind string, g *surface.Grid) []store.Rate {
	out := make([]store.Rate, 0, len(g.Years)*len(g.Ages))
	for _, y := range g.Years {
		for _, a := range g.Ages {
			v, _ := g.Rate(a, y)
			out = append(out, store.Rate{Kind: kind, Age: a, Year: y, Rate: v})
		}
	}
	return out
}

func (r *Runner) runGLM(ctx context.Context, df *frame.Frame) (*Result, error) {
	g := r.cfg.GLM
	y, err := df.Floats(g.Target)
	if err != nil {
		return nil, fmt.Errorf("glm target: %w", err)
	}
	drop := map[string]bool{g.Target: true}
	for _, d := range g.Drop {
		drop[d] = true
	}

	opts := []regression.Option{regression.WithLogger(r.logger)}
	if g.Weights != "" {
		w, err := df.Floats(g.Weights)
		if err != nil {
			return nil, fmt.Errorf("glm weights: %w", err)
		}
		drop[g.Weights] = true
		opts = append(opts, regression.WithWeights(w))
	}
	if len(g.Terms) > 0 {
		terms := make([]regression.Term, len(g.Terms))
		for i, t := range g.Terms {
			k, ok := regression.ParseKind(t.Kind)
			if !ok {
				return nil, fmt.Errorf("%w: term %q kind %q", config.ErrInvalid, t.Name, t.Kind)
			}
			terms[i] = regression.Term{Name: t.Name, Kind: k}
		}
		opts = append(opts, regression.WithMapping(terms))
	}
	if g.RStyle {
		opts = append(opts, regression.WithRStyle())
	}

	var keep []string
	for _, n := range df.Names() {
		if !drop[n] {
			keep = append(keep, n)
		}
	}
	X, err := df.Select(keep...)
	if err != nil {
		return nil, err
	}
	m, err := regression.New(X, y, g.Target, opts...)
	if err != nil {
		return nil, err
	}
	fam, _ := regression.ParseFamily(g.Family)
	f, err := m.Fit(regression.FitOptions{Family: fam, MaxIter: g.MaxIter, Tol: g.Tol})
	if err != nil {
		return nil, err
	}
	odds, err := m.Odds(f, g.Display)
	if err != nil {
		return nil, err
	}

	res := &Result{Model: r.cfg.Model, Formula: f.Formula}
	for i, n := range f.Names {
		res.Coefficients = append(res.Coefficients, store.Coefficient{
			Name: n, Coef: f.Coef[i], StdErr: f.StdErr[i], Odds: odds.Ratios[i],
		})
	}
	if g.Display {
		tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "feature\tcoefficient")
		for _, b := range odds.Chart {
			fmt.Fprintf(tw, "%s\t%.6g\n", b.Feature, b.Coefficient)
		}
		if err = tw.Flush(); err != nil {
			return nil, fmt.Errorf("display chart: %w", err)
		}
	}

	err = r.write(r.cfg.Output, func() (*frame.Frame, error) {
		pred, err := f.Predict(X)
		if err != nil {
			return nil, err
		}
		out := df.Clone()
		out.Remove(PredictionColumn)
		if err := out.AddFloat(PredictionColumn, pred); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	if r.cfg.DB != "" {
		id, err := r.persist(ctx, f.Formula, nil, res.Coefficients)
		if err != nil {
			return nil, err
		}
		res.RunID = id
	}
	return res, nil
}

// write renders and writes a frame when path is set.
func (r *Runner) write(path string, render func() (*frame.Frame, error)) error {
	if path == "" {
		return nil
	}
	df, err := render()
	if err != nil {
		return err
	}
	if err = csvio.WriteFile(path, df); err != nil {
		return err
	}
	r.logger.Info("output written", "path", path, "rows", df.Len())
	return nil
}

// persist records the run together with its rates and coefficients.
func (r *Runner) persist(ctx context.Context, formula string, rates []store.Rate, coefs []store.Coefficient) (uuid.UUID, error) {
	st, err := store.Open(ctx, r.cfg.DB)
	if err != nil {
		return uuid.Nil, err
	}
	defer st.Close()

	params, err := yaml.Marshal(r.cfg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode params: %w", err)
	}
	run, err := st.SaveRun(ctx, store.Run{
		Model:   r.cfg.Model,
		Input:   r.cfg.Input,
		Formula: formula,
		Params:  string(params),
	}, rates, coefs)
	if err != nil {
		return uuid.Nil, err
	}
	r.logger.Info("run stored", "db", r.cfg.DB, "run_id", run.ID)
	return run.ID, nil
}

func (r *Runner) summarize(res *Result) {
	fmt.Fprintf(r.out, "model: %s\n", res.Model)
	if res.RunID != uuid.Nil {
		fmt.Fprintf(r.out, "run: %s\n", res.RunID)
	}
	if res.Formula != "" {
		fmt.Fprintf(r.out, "formula: %s\n", res.Formula)
	}
	if res.FittedCells > 0 {
		fmt.Fprintf(r.out, "fitted cells: %d\n", res.FittedCells)
	}
	if n := len(res.ForecastYears); n > 0 {
		fmt.Fprintf(r.out, "forecast years: %d-%d\n", res.ForecastYears[0], res.ForecastYears[n-1])
	}
	for _, c := range res.Coefficients {
		fmt.Fprintf(r.out, "coef %s = %.6g (odds %.6g)\n", c.Name, c.Coef, c.Odds)
	}
}
