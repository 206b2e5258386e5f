// Package config loads qxcast run configuration from an optional YAML file
// and QXCAST_* environment variables. Environment values override the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "QXCAST_"

// Model names.
const (
	ModelLeeCarter = "leecarter"
	ModelCBD       = "cbd"
	ModelGLM       = "glm"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Columns names the experience columns.
type Columns struct {
	Age      string `yaml:"age" env:"AGE_COL"`
	Year     string `yaml:"year" env:"YEAR_COL"`
	Actual   string `yaml:"actual" env:"ACTUAL_COL"`
	Exposure string `yaml:"exposure" env:"EXPOSURE_COL"`
}

// Term is one GLM feature: Kind is "numeric" (default) or "cat_pass".
type Term struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

// GLM configures the regression model.
type GLM struct {
	Target  string   `yaml:"target" env:"TARGET"`
	Terms   []Term   `yaml:"terms"`
	Weights string   `yaml:"weights" env:"WEIGHTS_COL"`
	RStyle  bool     `yaml:"r_style" env:"R_STYLE"`
	Family  string   `yaml:"family" env:"FAMILY"`
	MaxIter int      `yaml:"max_iter" env:"MAX_ITER"`
	Tol     float64  `yaml:"tol" env:"TOL"`
	Display bool     `yaml:"display" env:"DISPLAY"`
	Drop    []string `yaml:"drop" env:"DROP" envSeparator:","`
}

// Config is one run of the CLI.
type Config struct {
	Model      string  `yaml:"model" env:"MODEL"`
	Input      string  `yaml:"input" env:"INPUT"`
	Output     string  `yaml:"output" env:"OUTPUT"`
	Forecast   string  `yaml:"forecast_output" env:"FORECAST_OUTPUT"`
	DB         string  `yaml:"db" env:"DB"`
	Structured bool    `yaml:"structured" env:"STRUCTURED"` // input already holds qx_raw
	Columns    Columns `yaml:"columns"`
	Years      int     `yaml:"years" env:"YEARS"`
	Variance   float64 `yaml:"variance" env:"VARIANCE"`
	Seed       int64   `yaml:"seed" env:"SEED"`
	Boundary   string  `yaml:"boundary" env:"BOUNDARY"`
	Epsilon    float64 `yaml:"epsilon" env:"EPSILON"`
	GLM        GLM     `yaml:"glm" envPrefix:"GLM_"`
}

// Default returns the configuration used before the file and environment
// are applied.
func Default() Config {
	return Config{
		Model: ModelLeeCarter,
		Columns: Columns{
			Age:      "attained_age",
			Year:     "observation_year",
			Actual:   "death_claim_amount",
			Exposure: "amount_exposed",
		},
		Boundary: "reject",
		Epsilon:  1e-9,
		GLM: GLM{
			Family:  "binomial",
			MaxIter: 100,
			Tol:     1e-8,
		},
	}
}

// Load reads path (when non-empty), applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, for callers that apply further overrides
// (command-line flags) first.
//
// Precedence: environment > file > Default(). Unset variables leave the
// field untouched.
func Read(path string) (*Config, error) {
	d := Default()
	cfg := &d
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks field values and cross-field requirements.
func (c *Config) Validate() error {
	var problems []string
	switch c.Model {
	case ModelLeeCarter, ModelCBD:
		if c.Years < 0 {
			problems = append(problems, "years must be >= 0")
		}
		if c.Variance < 0 {
			problems = append(problems, "variance must be >= 0")
		}
	case ModelGLM:
		if c.GLM.Target == "" {
			problems = append(problems, "glm.target is required")
		}
		switch c.GLM.Family {
		case "binomial", "poisson", "gaussian":
		default:
			problems = append(problems, fmt.Sprintf("unknown glm.family %q", c.GLM.Family))
		}
		for _, t := range c.GLM.Terms {
			if t.Name == "" {
				problems = append(problems, "glm.terms entries need a name")
			}
			if t.Kind != "" && t.Kind != "numeric" && t.Kind != "cat_pass" {
				problems = append(problems, fmt.Sprintf("unknown kind %q for term %q", t.Kind, t.Name))
			}
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown model %q", c.Model))
	}
	if c.Input == "" {
		problems = append(problems, "input is required")
	}
	if c.Boundary != "reject" && c.Boundary != "clamp" {
		problems = append(problems, fmt.Sprintf("unknown boundary policy %q", c.Boundary))
	}
	if c.Epsilon <= 0 || c.Epsilon >= 0.5 {
		problems = append(problems, "epsilon must be in (0, 0.5)")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
