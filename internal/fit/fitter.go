package fit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gonum.org/v1/gonum/mat"

	"github.com/agbru/bassfit/internal/bass"
)

// ErrFitDidNotConverge is returned when the optimizer exhausts its iteration
// budget, or otherwise terminates, without meeting its convergence tolerance.
var ErrFitDidNotConverge = errors.New("fit did not converge")

var (
	fitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bassfit_fits_total",
			Help: "The total number of Bass model fits processed",
		},
		[]string{"method", "status"},
	)
	fitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bassfit_fit_duration_seconds",
			Help:    "The duration of Bass model fits in seconds",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
		},
		[]string{"method"},
	)
)

// Result is the outcome of a successful fit.
type Result struct {
	// Method is the display name of the fitting method.
	Method string
	// Params are the fitted Bass coefficients.
	Params bass.Params
	// SSE is the sum of squared residuals at Params.
	SSE float64
	// RMSE is the root mean squared residual.
	RMSE float64
	// RSquared is the coefficient of determination.
	RSquared float64
	// Covariance is the estimated parameter covariance (p, q, m order), or nil
	// when it cannot be estimated.
	Covariance *mat.SymDense
	// StdErrors are the square roots of the covariance diagonal.
	StdErrors [3]float64
	// Iterations is the number of major iterations the optimizer performed.
	Iterations int
	// Evaluations is the number of objective evaluations.
	Evaluations int
	// Duration is the wall time of the fit.
	Duration time.Duration
}

// Fitter is the interface used by the service and orchestration layers to
// run a fitting method.
type Fitter interface {
	// Fit estimates (p, q, m) for series. Progress updates are sent to
	// progressChan, which may be nil.
	//
	// Returns ErrInvalidObservationSeries, ErrInvalidModelParameters or
	// ErrFitDidNotConverge (all matchable with errors.Is), or the context
	// error when ctx ends first.
	Fit(ctx context.Context, progressChan chan<- ProgressUpdate, fitterIndex int, series bass.Series, opts Options) (*Result, error)

	// Name returns the display name of the method.
	Name() string
}

// solution is what a method hands back to the decorator.
type solution struct {
	x           []float64
	iterations  int
	evaluations int
}

// coreFitter is a bare optimization method.
type coreFitter interface {
	FitCore(ctx context.Context, reporter ProgressReporter, pr *problem, opts Options) (solution, error)
	Name() string
}

// BassFitter decorates a coreFitter with input validation, the p > ε guard,
// fit statistics, metrics, tracing and logging.
type BassFitter struct {
	core coreFitter
}

// NewFitter wraps core. It panics when core is nil.
func NewFitter(core coreFitter) Fitter {
	if core == nil {
		panic("fit: the `coreFitter` implementation cannot be nil")
	}
	return &BassFitter{core: core}
}

// Name returns the name of the wrapped method.
func (f *BassFitter) Name() string {
	return f.core.Name()
}

// Fit implements Fitter with channel-based progress reporting.
func (f *BassFitter) Fit(ctx context.Context, progressChan chan<- ProgressUpdate, fitterIndex int, series bass.Series, opts Options) (*Result, error) {
	subject := NewProgressSubject()
	if progressChan != nil {
		subject.Register(NewChannelObserver(progressChan))
	}
	return f.FitWithObservers(ctx, subject, fitterIndex, series, opts)
}

// FitWithObservers runs the fit and notifies the observers registered on
// subject. A nil subject disables progress reporting.
func (f *BassFitter) FitWithObservers(ctx context.Context, subject *ProgressSubject, fitterIndex int, series bass.Series, opts Options) (result *Result, err error) {
	ctx, span := otel.Tracer("github.com/agbru/bassfit/internal/fit").Start(ctx, "Fit")
	defer span.End()

	method := f.core.Name()
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		fitsTotal.WithLabelValues(method, status).Inc()
		fitDuration.WithLabelValues(method).Observe(elapsed.Seconds())

		log.Debug().
			Str("method", method).
			Int("observations", len(series)).
			Dur("duration", elapsed).
			Str("status", status).
			Msg("fit completed")
	}()

	opts = opts.withDefaults()
	span.SetAttributes(
		attribute.String("fit.method", method),
		attribute.Int("fit.observations", len(series)),
		attribute.Int("fit.max_iterations", opts.MaxIterations),
	)

	if err := series.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Guess.Validate(); err != nil {
		return nil, fmt.Errorf("initial guess: %w", err)
	}

	reporter := func(float64) {}
	if subject != nil {
		reporter = subject.AsProgressReporter(fitterIndex)
	}

	pr := newProblem(series)
	sol, err := f.core.FitCore(ctx, reporter, pr, opts)
	if err != nil {
		return nil, err
	}

	params := bass.FromVector(sol.x)
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("fitted %w", err)
	}
	reporter(1.0)

	g := assess(pr, params)
	span.SetAttributes(
		attribute.Float64("fit.p", params.P),
		attribute.Float64("fit.q", params.Q),
		attribute.Float64("fit.m", params.M),
		attribute.Float64("fit.sse", g.sse),
	)
	return &Result{
		Method:      method,
		Params:      params,
		SSE:         g.sse,
		RMSE:        g.rmse,
		RSquared:    g.rSquared,
		Covariance:  g.covariance,
		StdErrors:   g.stdErrors,
		Iterations:  sol.iterations,
		Evaluations: sol.evaluations,
		Duration:    time.Since(start),
	}, nil
}
