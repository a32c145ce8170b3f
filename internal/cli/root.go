package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/facet/internal/config"
	"github.com/dshills/facet/internal/output"
)

// version is overridden at build time with -ldflags "-X".
var version = "0.1.0"

// Exit codes. 0-2 mirror review.Status; 3 and 4 are raised before or
// outside a review.
const (
	ExitOK             = 0
	ExitBelowThreshold = 1
	ExitHardError      = 2
	ExitConfigError    = 3
	ExitRuntimeError   = 4
)

var (
	flagConfig   string
	flagLogLevel string
)

// ui is the shared console; tests swap its writers.
var ui = output.NewUI()

var rootCmd = &cobra.Command{
	Use:   "facet",
	Short: "Multi-perspective LLM code review",
	Long: `Facet reviews source files with a large language model from several
independent perspectives (security, quality, performance) and merges the
results into one ranked report with a CI-friendly exit code.

Exit codes: 0 ok, 1 score below threshold, 2 no usable results,
3 configuration error, 4 runtime error.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Run executes the root command and returns an exit code.
func Run() int {
	return execute(os.Args[1:])
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitOK

func execute(args []string) int {
	exitCode = ExitOK
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		ui.Error("%v", err)
		if errors.Is(err, config.ErrInvalid) || exitCode == ExitOK {
			return ExitConfigError
		}
	}
	return exitCode
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print facet version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "facet version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default $XDG_CONFIG_HOME/facet/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Diagnostic log level (debug, info, warn, error)")

	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(perspectivesCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the effective configuration and validates it.
func loadConfig(overrides map[string]any) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if flagConfig != "" {
		cfg, err = config.LoadFrom(flagConfig, overrides)
	} else {
		cfg, err = config.Load(overrides)
	}
	if err != nil {
		return config.Config{}, err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// configPath is the file config init/set operate on.
func configPath() (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	return config.ConfigPath()
}

// newLogger returns a text logger on w at the named level. Unknown levels
// fall back to warn.
func newLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
