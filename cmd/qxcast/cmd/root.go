// Package cmd holds the qxcast command tree.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// Execute runs the root command against the process arguments.
func Execute() error {
	return NewRootCmd(os.Stdout, os.Stderr).Execute()
}

type rootFlags struct {
	cfgFile  string
	logLevel string
}

// NewRootCmd builds the command tree writing results to stdout and logs to
// stderr.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rf := &rootFlags{}
	root := &cobra.Command{
		Use:   "qxcast",
		Short: "Fit and forecast mortality-rate surfaces",
		Long: `qxcast fits mortality-rate surfaces from claims/exposure experience
and extrapolates them.

Models:
  leecarter - Lee-Carter log-rate decomposition
  cbd       - Cairns-Blake-Dowd two-factor logit model
  glm       - generalized linear model (binomial, poisson, gaussian)

Configuration is read from --config (YAML), then QXCAST_* environment
variables, then command-line flags.`,
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&rf.cfgFile, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&rf.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		newDecompositionCmd("leecarter", "Fit a Lee-Carter model", rf),
		newDecompositionCmd("cbd", "Fit a Cairns-Blake-Dowd model", rf),
		newGLMCmd(rf),
		newVersionCmd(),
	)
	return root
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
