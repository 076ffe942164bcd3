// Package orchestration runs one or several fit methods concurrently and
// compares their outcomes.
package orchestration

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/bassfit/internal/bass"
	"github.com/agbru/bassfit/internal/cli"
	apperrors "github.com/agbru/bassfit/internal/errors"
	"github.com/agbru/bassfit/internal/fit"
	"github.com/agbru/bassfit/internal/ui"
)

// FitOutcome is the outcome of one fit method.
type FitOutcome struct {
	// Name is the display name of the method.
	Name string
	// Result is nil when the fit failed.
	Result *fit.Result
	// Duration is the wall time of the fit.
	Duration time.Duration
	// Err is the failure cause.
	Err error
}

// ProgressBufferMultiplier sizes the progress channel per fitter so slow
// rendering does not block the optimizers.
const ProgressBufferMultiplier = 5

// MismatchTolerance is the relative spread of m above which successful
// methods are reported as inconsistent.
const MismatchTolerance = 0.01

// ExecuteFits runs every fitter on series concurrently and renders their
// progress to out. Individual failures are recorded in the outcomes, never
// returned.
func ExecuteFits(ctx context.Context, fitters []fit.Fitter, series bass.Series, opts fit.Options, out io.Writer) []FitOutcome {
	g, ctx := errgroup.WithContext(ctx)
	outcomes := make([]FitOutcome, len(fitters))
	progressChan := make(chan fit.ProgressUpdate, len(fitters)*ProgressBufferMultiplier)

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go cli.DisplayProgress(&displayWg, progressChan, len(fitters), out)

	for i, f := range fitters {
		g.Go(func() error {
			start := time.Now()
			res, err := f.Fit(ctx, progressChan, i, series, opts)
			outcomes[i] = FitOutcome{Name: f.Name(), Result: res, Duration: time.Since(start), Err: err}
			return nil
		})
	}

	_ = g.Wait()
	close(progressChan)
	displayWg.Wait()

	return outcomes
}

// AnalyzeFitResults prints a comparison table and returns the successful
// outcome with the lowest SSE along with the exit code. A failure of every
// method returns nil and the code of the first error; a spread of m beyond
// MismatchTolerance returns the best outcome with ExitErrorMismatch.
func AnalyzeFitResults(outcomes []FitOutcome, out io.Writer) (*FitOutcome, int) {
	sort.SliceStable(outcomes, func(i, j int) bool {
		if (outcomes[i].Err == nil) != (outcomes[j].Err == nil) {
			return outcomes[i].Err == nil
		}
		if outcomes[i].Err == nil && outcomes[i].Result.SSE != outcomes[j].Result.SSE {
			return outcomes[i].Result.SSE < outcomes[j].Result.SSE
		}
		return outcomes[i].Duration < outcomes[j].Duration
	})

	var best *FitOutcome
	var firstError error
	fmt.Fprintf(out, "\n--- Comparison summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sMethod%s\t%sDuration%s\t%sSSE%s\t%sm%s\t%sStatus%s\n",
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset())

	for i := range outcomes {
		o := &outcomes[i]
		sse, m := "-", "-"
		var status string
		if o.Err != nil {
			status = fmt.Sprintf("%s❌ Failure (%v)%s", ui.ColorRed(), o.Err, ui.ColorReset())
			if firstError == nil {
				firstError = o.Err
			}
		} else {
			status = fmt.Sprintf("%s✅ Success%s", ui.ColorGreen(), ui.ColorReset())
			sse = fmt.Sprintf("%.6g", o.Result.SSE)
			m = fmt.Sprintf("%.6g", o.Result.Params.M)
			if best == nil {
				best = o
			}
		}
		duration := cli.FormatExecutionDuration(o.Duration)
		if o.Duration == 0 {
			duration = "< 1µs"
		}
		fmt.Fprintf(tw, "%s%s%s\t%s%s%s\t%s\t%s\t%s\n",
			ui.ColorBlue(), o.Name, ui.ColorReset(),
			ui.ColorYellow(), duration, ui.ColorReset(),
			sse, m, status)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}

	if best == nil {
		fmt.Fprintf(out, "\nGlobal Status: Failure. No method could fit the series.\n")
		return nil, apperrors.HandleFitError(firstError, 0, out, cli.CLIColorProvider{})
	}

	if spread := marketSpread(outcomes); spread > MismatchTolerance {
		fmt.Fprintf(out, "\n%sGlobal Status: Inconsistent. Market potential estimates differ by %.2f%%; reporting %s (lowest SSE).%s\n",
			ui.ColorYellow(), spread*100, best.Name, ui.ColorReset())
		return best, apperrors.ExitErrorMismatch
	}

	fmt.Fprintf(out, "\nGlobal Status: Success. All fits agree; reporting %s (lowest SSE).\n", best.Name)
	return best, apperrors.ExitSuccess
}

// marketSpread returns (max m - min m) / min m over successful outcomes.
func marketSpread(outcomes []FitOutcome) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, o := range outcomes {
		if o.Err != nil || o.Result == nil {
			continue
		}
		lo = math.Min(lo, o.Result.Params.M)
		hi = math.Max(hi, o.Result.Params.M)
	}
	if math.IsInf(lo, 1) || lo <= 0 {
		return 0
	}
	return (hi - lo) / lo
}
