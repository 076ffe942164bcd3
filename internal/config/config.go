// Package config provides the configuration management for the bassfit
// application. It defines the configuration structure, parses command-line
// flags and environment overrides, and validates the result.
package config

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/agbru/bassfit/internal/adoption"
	"github.com/agbru/bassfit/internal/bass"
	apperrors "github.com/agbru/bassfit/internal/errors"
	"github.com/agbru/bassfit/internal/fit"
	"github.com/agbru/bassfit/internal/logging"
)

const (
	// EnvPrefix is the prefix for all environment variables used by bassfit.
	EnvPrefix = "BASSFIT_"
)

// Default configuration values.
// These can be overridden via command-line flags or environment variables.
const (
	// DefaultMethod is the default fitting method.
	DefaultMethod = fit.MethodLM
	// DefaultTimeout is the default analysis timeout.
	DefaultTimeout = 1 * time.Minute
	// DefaultPort is the default server port.
	DefaultPort = "8080"
	// DefaultThresholdBase is the default base for the category thresholds.
	DefaultThresholdBase = string(adoption.BaseMarket)
	// DefaultLogLevel is the default minimum log level.
	DefaultLogLevel = "warn"
	// MaxHorizon bounds the forecast horizon.
	MaxHorizon = 100
)

// AppConfig aggregates the application's configuration parameters, parsed
// from command-line flags and environment variables.
type AppConfig struct {
	// DataFile is a CSV, JSON or YAML series. Empty selects the built-in UPI
	// series.
	DataFile string
	// StartYear is the calendar year of t = 1 for the built-in series.
	StartYear int
	// P0, Q0 and M0 are the initial guess handed to the optimizer.
	P0, Q0, M0 float64
	// MaxIterations is the optimizer iteration budget.
	MaxIterations int
	// Method is "lm", "nelder-mead", "bfgs" or "all".
	Method string
	// ThresholdBase is "market" or "realized".
	ThresholdBase string
	// Horizon is the number of extra years predicted past the last observation.
	Horizon int
	// AutoGuess, if true, replaces the initial guess with a grid search.
	AutoGuess bool
	// Timeout sets the maximum duration for the analysis.
	Timeout time.Duration
	// Details, if true, adds fit statistics and year contributions.
	Details bool
	// JSONOutput, if true, outputs the report in JSON format.
	JSONOutput bool
	// ServerMode, if true, starts the application as an HTTP server.
	ServerMode bool
	// Port specifies the port to listen on in server mode.
	Port string
	// NoColor, if true, disables all color output in the CLI.
	// Also respects the NO_COLOR environment variable.
	NoColor bool
	// OutputFile, if specified, saves the report to this file path.
	OutputFile string
	// Quiet mode prints a single summary line for scripting.
	Quiet bool
	// LogLevel is the minimum level of diagnostic logs (debug, info, warn, error).
	LogLevel string
	// Completion, if set, generates a shell completion script.
	// Valid values are: "bash", "zsh", "fish".
	Completion string
}

// Guess returns the initial guess as Bass parameters.
func (c AppConfig) Guess() bass.Params {
	return bass.Params{P: c.P0, Q: c.Q0, M: c.M0}
}

// ToFitOptions converts the configuration into fit.Options.
func (c AppConfig) ToFitOptions() fit.Options {
	opts := fit.DefaultOptions()
	opts.Guess = c.Guess()
	opts.MaxIterations = c.MaxIterations
	return opts
}

// Validate checks the semantic consistency of the configuration parameters.
//
// Parameters:
//   - availableMethods: The registered fit method keys.
//
// Returns:
//   - error: A ConfigError if the configuration is invalid, nil otherwise.
func (c AppConfig) Validate(availableMethods []string) error {
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if c.MaxIterations <= 0 {
		return apperrors.NewConfigError("max-iter must be strictly positive: %d", c.MaxIterations)
	}
	if c.Horizon < 0 || c.Horizon > MaxHorizon {
		return apperrors.NewConfigError("horizon must be between 0 and %d: %d", MaxHorizon, c.Horizon)
	}
	if !c.AutoGuess {
		if err := c.Guess().Validate(); err != nil {
			return apperrors.NewConfigError("invalid initial guess: %v", err)
		}
	}
	if _, err := adoption.ParseThresholdBase(c.ThresholdBase); err != nil {
		return apperrors.NewConfigError("%v", err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return apperrors.NewConfigError("%v", err)
	}
	switch c.Completion {
	case "", "bash", "zsh", "fish":
	default:
		return apperrors.NewConfigError("unsupported shell for completion: %q", c.Completion)
	}

	isMethodAvailable := false
	for _, m := range availableMethods {
		if m == c.Method {
			isMethodAvailable = true
			break
		}
	}
	if c.Method != fit.MethodAll && !isMethodAvailable {
		return apperrors.NewConfigError("unrecognized fit method: '%s'. Valid methods are: 'all' or [%s]", c.Method, strings.Join(availableMethods, ", "))
	}
	return nil
}

// ParseConfig parses the command-line arguments into an AppConfig, applies
// environment overrides for flags that were not set, and validates the
// result.
//
// Parameters:
//   - programName: The name of the program, used in the usage message.
//   - args: The command-line arguments (typically os.Args[1:]).
//   - errorWriter: Where parsing errors and usage information are printed.
//   - availableMethods: The registered fit method keys.
//
// Returns:
//   - AppConfig: The populated configuration struct.
//   - error: An error if flag parsing or validation fails.
func ParseConfig(programName string, args []string, errorWriter io.Writer, availableMethods []string) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)
	methodHelp := fmt.Sprintf("Fit method: 'lm' (default), 'all' or one of [%s].", strings.Join(availableMethods, ", "))

	guess := fit.DefaultGuess
	config := AppConfig{}
	fs.StringVar(&config.DataFile, "data", "", "Observation series file (.csv, .json, .yaml). Defaults to the built-in UPI series.")
	fs.IntVar(&config.StartYear, "start-year", bass.DefaultStartYear, "Calendar year of the first observation of the built-in series.")
	fs.Float64Var(&config.P0, "p0", guess.P, "Initial guess for the coefficient of innovation p.")
	fs.Float64Var(&config.Q0, "q0", guess.Q, "Initial guess for the coefficient of imitation q.")
	fs.Float64Var(&config.M0, "m0", guess.M, "Initial guess for the market potential m.")
	fs.IntVar(&config.MaxIterations, "max-iter", fit.DefaultMaxIterations, "Maximum optimizer iterations before the fit fails.")
	fs.StringVar(&config.Method, "method", DefaultMethod, methodHelp)
	fs.StringVar(&config.ThresholdBase, "threshold-base", DefaultThresholdBase, "Scale category cutoffs by the market potential ('market') or the final prediction ('realized').")
	fs.IntVar(&config.Horizon, "horizon", 0, "Extra years to predict past the last observation.")
	fs.BoolVar(&config.AutoGuess, "auto-guess", false, "Search a parameter grid for the initial guess instead of -p0/-q0/-m0.")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum execution time for the analysis.")
	fs.BoolVar(&config.Details, "d", false, "Display fit statistics and year contributions.")
	fs.BoolVar(&config.Details, "details", false, "Alias for -d.")
	fs.BoolVar(&config.JSONOutput, "json", false, "Output the report in JSON format.")
	fs.BoolVar(&config.ServerMode, "server", false, "Start in HTTP server mode.")
	fs.StringVar(&config.Port, "port", DefaultPort, "Port to listen on in server mode.")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.StringVar(&config.OutputFile, "output", "", "Output file path for the report.")
	fs.StringVar(&config.OutputFile, "o", "", "Output file path (shorthand).")
	fs.BoolVar(&config.Quiet, "quiet", false, "Quiet mode - minimal output for scripts.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "Diagnostic log level: debug, info, warn or error.")
	fs.StringVar(&config.Completion, "completion", "", "Generate shell completion script (bash, zsh, fish).")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	applyEnvOverrides(&config, fs)

	config.Method = strings.ToLower(config.Method)
	config.ThresholdBase = strings.ToLower(config.ThresholdBase)
	if err := config.Validate(availableMethods); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}
