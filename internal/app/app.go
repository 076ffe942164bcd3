package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/agbru/bassfit/internal/adoption"
	"github.com/agbru/bassfit/internal/bass"
	"github.com/agbru/bassfit/internal/calibration"
	"github.com/agbru/bassfit/internal/cli"
	"github.com/agbru/bassfit/internal/config"
	"github.com/agbru/bassfit/internal/dataset"
	apperrors "github.com/agbru/bassfit/internal/errors"
	"github.com/agbru/bassfit/internal/fit"
	"github.com/agbru/bassfit/internal/logging"
	"github.com/agbru/bassfit/internal/orchestration"
	"github.com/agbru/bassfit/internal/server"
	"github.com/agbru/bassfit/internal/service"
	"github.com/agbru/bassfit/internal/ui"
)

// builtinSource names the default series in the execution summary.
const builtinSource = "built-in UPI series"

// Application represents the bassfit application instance.
// It encapsulates the configuration and provides methods to run
// the application in CLI or server mode.
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// Factory provides access to the fit method implementations.
	Factory fit.Factory
	// ErrWriter is the writer for error output (typically os.Stderr).
	ErrWriter io.Writer
}

// New creates a new Application instance by parsing command-line arguments.
// It validates the configuration and returns an error if parsing or validation fails.
//
// Parameters:
//   - args: The command-line arguments (typically os.Args).
//   - errWriter: The writer for error output.
//
// Returns:
//   - *Application: A new application instance.
//   - error: An error if configuration parsing or validation fails.
func New(args []string, errWriter io.Writer) (*Application, error) {
	factory := fit.GlobalFactory()

	// args[0] is program name, args[1:] are the actual arguments
	programName := "bassfit"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, factory.List())
	if err != nil {
		return nil, err
	}
	if err := logging.SetGlobalLevel(cfg.LogLevel); err != nil {
		return nil, apperrors.NewConfigError("invalid log level: %v", err)
	}

	return &Application{
		Config:    cfg,
		Factory:   factory,
		ErrWriter: errWriter,
	}, nil
}

// Run executes the application based on the configured mode.
// It dispatches to the appropriate handler (completion, server, or CLI).
//
// Parameters:
//   - ctx: The context for managing cancellation and timeouts.
//   - out: The writer for standard output.
//
// Returns:
//   - int: An exit code (0 for success, non-zero for errors).
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	// Initialize CLI theme (respects --no-color flag and NO_COLOR env var)
	ui.InitTheme(a.Config.NoColor)

	if a.Config.ServerMode {
		return a.runServer()
	}

	return a.runAnalysis(ctx, out)
}

// runCompletion generates shell completion scripts.
func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion, a.Factory.List()); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

// runServer starts the HTTP server mode.
func (a *Application) runServer() int {
	logger := logging.NewLogger(os.Stdout, "server")
	srv := server.NewServer(a.Factory, a.Config, server.WithLogger(logger))
	if err := srv.Start(); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// loadSeries reads the configured data file, or returns the built-in
// series re-based on the configured start year.
func (a *Application) loadSeries() (bass.Series, string, error) {
	if a.Config.DataFile == "" {
		series := bass.NewSeries(a.Config.StartYear, bass.DefaultSeries().Counts())
		return series, builtinSource, nil
	}
	ds, err := dataset.Load(a.Config.DataFile)
	if err != nil {
		return nil, "", err
	}
	source := a.Config.DataFile
	if ds.Name != "" {
		source = fmt.Sprintf("%s (%s)", ds.Name, a.Config.DataFile)
	}
	return ds.Series, source, nil
}

// runAnalysis fits the series with the configured methods, builds the report
// from the best fit and prints it.
func (a *Application) runAnalysis(ctx context.Context, out io.Writer) int {
	series, source, err := a.loadSeries()
	if err != nil {
		return apperrors.HandleFitError(err, 0, a.ErrWriter, cli.CLIColorProvider{})
	}
	if err := series.Validate(); err != nil {
		return apperrors.HandleFitError(err, 0, a.ErrWriter, cli.CLIColorProvider{})
	}

	ctx, cancel := SetupLifecycle(ctx, a.Config.Timeout)
	defer cancel.Cleanup()

	fitters := cli.GetFittersToRun(a.Config.Method, a.Factory)
	if len(fitters) == 0 {
		fmt.Fprintf(a.ErrWriter, "No fit method matches %q.\n", a.Config.Method)
		return apperrors.ExitErrorConfig
	}

	verbose := !a.Config.JSONOutput && !a.Config.Quiet
	if verbose {
		cli.PrintExecutionConfig(a.Config, source, series, out)
		cli.PrintExecutionMode(fitters, out)
	}

	// Progress and comparison tables would corrupt JSON and quiet output.
	progressOut := out
	if !verbose {
		progressOut = io.Discard
	}

	opts, guessSource, err := a.fitOptions(ctx, series)
	if err != nil {
		return apperrors.HandleFitError(err, 0, out, cli.CLIColorProvider{})
	}

	outcomes := orchestration.ExecuteFits(ctx, fitters, series, opts, progressOut)

	var best *orchestration.FitOutcome
	exitCode := apperrors.ExitSuccess
	if len(outcomes) == 1 {
		if outcomes[0].Err != nil {
			err := apperrors.NewFitError(outcomes[0].Name, outcomes[0].Err)
			return apperrors.HandleFitError(err, outcomes[0].Duration, out, cli.CLIColorProvider{})
		}
		best = &outcomes[0]
	} else {
		best, exitCode = orchestration.AnalyzeFitResults(outcomes, progressOut)
		if best == nil {
			return exitCode
		}
	}

	report, err := service.BuildReport(series, best.Result, adoption.ThresholdBase(a.Config.ThresholdBase), a.Config.Horizon)
	if err != nil {
		return apperrors.HandleFitError(err, best.Duration, out, cli.CLIColorProvider{})
	}
	report.Guess = opts.Guess
	report.GuessSource = guessSource

	outputCfg := cli.OutputConfig{
		OutputFile: a.Config.OutputFile,
		JSON:       a.Config.JSONOutput,
		Quiet:      a.Config.Quiet,
		Details:    a.Config.Details,
	}
	if err := cli.DisplayReportWithConfig(out, report, outputCfg); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error writing report: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return exitCode
}

// fitOptions returns the optimizer options and the origin of the initial
// guess. With AutoGuess the guess comes from a grid search over the series.
func (a *Application) fitOptions(ctx context.Context, series bass.Series) (fit.Options, string, error) {
	opts := a.Config.ToFitOptions()
	if !a.Config.AutoGuess {
		return opts, service.GuessSupplied, nil
	}

	start := time.Now()
	est, err := calibration.EstimateInitialGuess(ctx, series)
	if err != nil {
		return fit.Options{}, "", err
	}
	logging.NewLogger(a.ErrWriter, "app").Debug("grid search finished",
		logging.String("guess", est.Params.String()),
		logging.Float64("sse", est.SSE),
		logging.Int("evaluated", est.Evaluated),
		logging.Duration("duration", time.Since(start)))
	opts.Guess = est.Params
	return opts, service.GuessGrid, nil
}

// IsHelpError checks if the error is a help flag error (--help was used).
// This is useful for determining if the application should exit with success
// after displaying help text.
//
// Parameters:
//   - err: The error to check.
//
// Returns:
//   - bool: True if the error indicates help was requested.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
