package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/bassfit/internal/bass"
	"github.com/agbru/bassfit/internal/config"
	"github.com/agbru/bassfit/internal/fit"
	"github.com/agbru/bassfit/internal/ui"
)

// GetFittersToRun returns the fitter named by method, or every registered
// fitter in name order for "all". Unknown names yield nil.
func GetFittersToRun(method string, factory fit.Factory) []fit.Fitter {
	if method == fit.MethodAll {
		keys := factory.List()
		fitters := make([]fit.Fitter, 0, len(keys))
		for _, k := range keys {
			if f, err := factory.Get(k); err == nil {
				fitters = append(fitters, f)
			}
		}
		return fitters
	}
	if f, err := factory.Get(method); err == nil {
		return []fit.Fitter{f}
	}
	return nil
}

// PrintExecutionConfig describes the series and the fit settings.
func PrintExecutionConfig(cfg config.AppConfig, source string, series bass.Series, out io.Writer) {
	fmt.Fprintf(out, "--- Execution configuration ---\n")
	fmt.Fprintf(out, "Fitting %s%d%s observations (%d-%d) from %s%s%s with a timeout of %s%s%s.\n",
		ui.ColorMagenta(), len(series), ui.ColorReset(),
		series.StartYear(), series.Last().Year,
		ui.ColorCyan(), source, ui.ColorReset(),
		ui.ColorYellow(), cfg.Timeout, ui.ColorReset())
	if cfg.AutoGuess {
		fmt.Fprintf(out, "Initial guess: grid search.\n")
	} else {
		fmt.Fprintf(out, "Initial guess: %s%s%s.\n", ui.ColorCyan(), cfg.Guess(), ui.ColorReset())
	}
	fmt.Fprintf(out, "Iteration budget: %s%d%s, threshold base: %s%s%s, horizon: %s%d%s years.\n",
		ui.ColorCyan(), cfg.MaxIterations, ui.ColorReset(),
		ui.ColorCyan(), cfg.ThresholdBase, ui.ColorReset(),
		ui.ColorCyan(), cfg.Horizon, ui.ColorReset())
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, Go %s%s%s.\n",
		ui.ColorCyan(), runtime.NumCPU(), ui.ColorReset(), ui.ColorCyan(), runtime.Version(), ui.ColorReset())
}

// PrintExecutionMode announces a single fit or a comparison of methods.
func PrintExecutionMode(fitters []fit.Fitter, out io.Writer) {
	if len(fitters) == 0 {
		return
	}
	var modeDesc string
	if len(fitters) > 1 {
		modeDesc = "Parallel comparison of all fit methods"
	} else {
		modeDesc = fmt.Sprintf("Single fit with %s%s%s", ui.ColorGreen(), fitters[0].Name(), ui.ColorReset())
	}
	fmt.Fprintf(out, "Execution mode: %s.\n", modeDesc)
	fmt.Fprintf(out, "\n--- Starting execution ---\n")
}
