package cmd

import (
	"github.com/katalvlaran/qxcast/internal/config"
	"github.com/katalvlaran/qxcast/internal/runner"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// runFlags are shared by every model command; only flags set on the command
// line override the loaded configuration.
type runFlags struct {
	input, output, db string
}

func (f *runFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.input, "input", "i", "", "input CSV")
	fs.StringVarP(&f.output, "output", "o", "", "output CSV")
	fs.StringVar(&f.db, "db", "", "SQLite database to record the run in")
}

func (f *runFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("input") {
		cfg.Input = f.input
	}
	if fs.Changed("output") {
		cfg.Output = f.output
	}
	if fs.Changed("db") {
		cfg.DB = f.db
	}
}

func run(cmd *cobra.Command, rf *rootFlags, model string, apply func(*config.Config)) error {
	logger, err := newLogger(cmd.ErrOrStderr(), rf.logLevel)
	if err != nil {
		return err
	}
	// the runner validates after flags are applied
	cfg, err := config.Read(rf.cfgFile)
	if err != nil {
		return err
	}
	cfg.Model = model
	apply(cfg)
	_, err = runner.New(cfg, logger, cmd.OutOrStdout()).Run(cmd.Context())
	return err
}

func newDecompositionCmd(model, short string, rf *rootFlags) *cobra.Command {
	var (
		common     runFlags
		forecast   string
		years      int
		variance   float64
		seed       int64
		structured bool
		boundary   string
	)
	c := &cobra.Command{
		Use:   model,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fs := cmd.Flags()
			return run(cmd, rf, model, func(cfg *config.Config) {
				common.apply(fs, cfg)
				if fs.Changed("forecast-output") {
					cfg.Forecast = forecast
				}
				if fs.Changed("years") {
					cfg.Years = years
				}
				if fs.Changed("variance") {
					cfg.Variance = variance
				}
				if fs.Changed("seed") {
					cfg.Seed = seed
				}
				if fs.Changed("structured") {
					cfg.Structured = structured
				}
				if fs.Changed("boundary") {
					cfg.Boundary = boundary
				}
			})
		},
	}
	fs := c.Flags()
	common.register(fs)
	fs.StringVar(&forecast, "forecast-output", "", "forecast CSV (long format)")
	fs.IntVarP(&years, "years", "n", 0, "years to forecast; 0 skips the forecast")
	fs.Float64Var(&variance, "variance", 0, "variance of the random-walk noise")
	fs.Int64Var(&seed, "seed", 0, "noise seed")
	fs.BoolVar(&structured, "structured", false, "input already holds age, year and qx_raw")
	fs.StringVar(&boundary, "boundary", "reject", "rates at 0/1: reject or clamp")
	return c
}

func newGLMCmd(rf *rootFlags) *cobra.Command {
	var (
		common  runFlags
		target  string
		weights string
		family  string
		rStyle  bool
		display bool
	)
	c := &cobra.Command{
		Use:   "glm",
		Short: "Fit a generalized linear model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fs := cmd.Flags()
			return run(cmd, rf, config.ModelGLM, func(cfg *config.Config) {
				common.apply(fs, cfg)
				if fs.Changed("target") {
					cfg.GLM.Target = target
				}
				if fs.Changed("weights") {
					cfg.GLM.Weights = weights
				}
				if fs.Changed("family") {
					cfg.GLM.Family = family
				}
				if fs.Changed("r-style") {
					cfg.GLM.RStyle = rStyle
				}
				if fs.Changed("display") {
					cfg.GLM.Display = display
				}
			})
		},
	}
	fs := c.Flags()
	common.register(fs)
	fs.StringVar(&target, "target", "", "target column")
	fs.StringVar(&weights, "weights", "", "frequency weight column")
	fs.StringVar(&family, "family", "binomial", "binomial, poisson or gaussian")
	fs.BoolVar(&rStyle, "r-style", false, "build the design from the formula")
	fs.BoolVar(&display, "display", false, "print coefficients sorted for charting")
	return c
}
