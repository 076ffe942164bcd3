package fit

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/optimize"
)

// gonumMethod adapts a gonum/optimize method to coreFitter. The search runs
// over (ln p, q, ln m) and minimizes the SSE directly.
type gonumMethod struct {
	name     string
	method   func() optimize.Method
	gradient bool
}

// NelderMead returns the derivative-free simplex method.
func NelderMead() coreFitter {
	return &gonumMethod{
		name:   "Nelder-Mead",
		method: func() optimize.Method { return &optimize.NelderMead{} },
	}
}

// BFGS returns the quasi-Newton method driven by the analytic SSE gradient.
func BFGS() coreFitter {
	return &gonumMethod{
		name:     "BFGS",
		method:   func() optimize.Method { return &optimize.BFGS{} },
		gradient: true,
	}
}

// Name returns the display name of the method.
func (g *gonumMethod) Name() string {
	return g.name
}

// FitCore implements coreFitter.
func (g *gonumMethod) FitCore(ctx context.Context, reporter ProgressReporter, pr *problem, opts Options) (solution, error) {
	prob := optimize.Problem{
		Func: func(x []float64) float64 {
			return pr.sse(fromLogSpace(x))
		},
	}
	if g.gradient {
		prob.Grad = pr.logSpaceGradient
	}

	settings := &optimize.Settings{
		MajorIterations: opts.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   opts.FTol,
			Iterations: 50,
		},
		Recorder: &progressRecorder{ctx: ctx, reporter: reporter, budget: opts.MaxIterations},
	}

	res, err := optimize.Minimize(prob, toLogSpace(opts.Guess), settings, g.method())
	if ctxErr := ctx.Err(); ctxErr != nil {
		return solution{}, ctxErr
	}
	if res == nil {
		return solution{}, fmt.Errorf("%w: %s: %v", ErrFitDidNotConverge, g.name, err)
	}
	switch {
	case errors.Is(err, optimize.ErrNoProgress), errors.Is(err, optimize.ErrLinesearcherFailure):
		// The line search cannot lower the SSE any further: res.X is a
		// minimum to machine precision.
	case err != nil:
		return solution{}, fmt.Errorf("%w: %s stopped with status %s: %v", ErrFitDidNotConverge, g.name, res.Status, err)
	case res.Status.Err() != nil:
		return solution{}, fmt.Errorf("%w: %s stopped with status %s", ErrFitDidNotConverge, g.name, res.Status)
	}

	return solution{
		x:           fromLogSpace(res.X).Vector(),
		iterations:  res.Stats.MajorIterations,
		evaluations: res.Stats.FuncEvaluations,
	}, nil
}

// progressRecorder reports iteration progress and aborts the optimization
// when the context ends.
type progressRecorder struct {
	ctx      context.Context
	reporter ProgressReporter
	budget   int
}

func (r *progressRecorder) Init() error { return nil }

func (r *progressRecorder) Record(_ *optimize.Location, op optimize.Operation, stats *optimize.Stats) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	if op == optimize.MajorIteration && r.budget > 0 {
		r.reporter(float64(stats.MajorIterations) / float64(r.budget))
	}
	return nil
}
