// Package service runs the complete analysis pipeline: fit the Bass curve,
// predict yearly adoption and allocate the adopters to Rogers' categories.
package service

//go:generate mockgen -source=analysis_service.go -destination=mocks/mock_service.go -package=mocks

import (
	"context"
	"errors"
	"fmt"

	"github.com/agbru/bassfit/internal/adoption"
	"github.com/agbru/bassfit/internal/bass"
	"github.com/agbru/bassfit/internal/calibration"
	"github.com/agbru/bassfit/internal/config"
	"github.com/agbru/bassfit/internal/fit"
)

var (
	// ErrUnknownMethod is returned when the requested fit method is not registered.
	ErrUnknownMethod = errors.New("unknown fit method")
	// ErrTooManyObservations is returned when a series exceeds the configured limit.
	ErrTooManyObservations = errors.New("too many observations")

	errBothSeriesForms = fmt.Errorf("%w: both counts and observations given", bass.ErrInvalidObservationSeries)
)

// Guess sources reported in Report.GuessSource.
const (
	GuessSupplied = "supplied"
	GuessGrid     = "grid"
)

// Request describes one analysis. Zero fields fall back to the service
// configuration.
type Request struct {
	Series        bass.Series
	Method        string
	Guess         bass.Params
	MaxIterations int
	ThresholdBase adoption.ThresholdBase
	Horizon       int
	AutoGuess     bool
}

// Report is the outcome of an analysis.
type Report struct {
	Series bass.Series
	Fit    *fit.Result
	// Guess is the starting point actually handed to the optimizer.
	Guess       bass.Params
	GuessSource string
	// Points covers the observed years followed by the forecast horizon.
	Points []bass.Point
	// Observed is the number of leading Points matching observations.
	Observed int
	// PeakYear is the calendar year of the maximum adoption rate, or zero
	// when q <= p and adoption only slows down.
	PeakYear      float64
	ThresholdBase adoption.ThresholdBase
	Allocation    *adoption.Allocation
}

// FinalPrediction returns the predicted cumulative value at the last
// observed year.
func (r *Report) FinalPrediction() float64 {
	if r.Observed == 0 || r.Observed > len(r.Points) {
		return 0
	}
	return r.Points[r.Observed-1].Cumulative
}

// Service defines the analysis API used by the CLI and the HTTP server.
type Service interface {
	// Analyze fits, predicts and allocates for one request.
	Analyze(ctx context.Context, req Request) (*Report, error)
	// Methods lists the available fit methods.
	Methods() []string
}

// AnalysisService is the default Service implementation.
type AnalysisService struct {
	factory         fit.Factory
	config          config.AppConfig
	maxObservations int
}

// Ensure AnalysisService implements Service interface.
var _ Service = (*AnalysisService)(nil)

// NewAnalysisService creates a service backed by factory. cfg supplies the
// defaults for empty request fields; maxObservations limits the series
// length (0 for no limit).
func NewAnalysisService(factory fit.Factory, cfg config.AppConfig, maxObservations int) *AnalysisService {
	return &AnalysisService{
		factory:         factory,
		config:          cfg,
		maxObservations: maxObservations,
	}
}

// Methods lists the registered fit methods.
func (s *AnalysisService) Methods() []string {
	return s.factory.List()
}

// Analyze validates the request, fits the requested method and builds the
// report.
func (s *AnalysisService) Analyze(ctx context.Context, req Request) (*Report, error) {
	req = s.withDefaults(req)

	if s.maxObservations > 0 && len(req.Series) > s.maxObservations {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyObservations, len(req.Series), s.maxObservations)
	}
	if err := req.Series.Validate(); err != nil {
		return nil, err
	}
	fitter, err := s.factory.Get(req.Method)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, req.Method)
	}

	opts := fit.DefaultOptions()
	opts.Guess = req.Guess
	opts.MaxIterations = req.MaxIterations
	source := GuessSupplied
	if req.AutoGuess {
		est, err := calibration.EstimateInitialGuess(ctx, req.Series)
		if err != nil {
			return nil, err
		}
		opts.Guess = est.Params
		source = GuessGrid
	}

	res, err := fitter.Fit(ctx, nil, 0, req.Series, opts)
	if err != nil {
		return nil, err
	}

	report, err := BuildReport(req.Series, res, req.ThresholdBase, req.Horizon)
	if err != nil {
		return nil, err
	}
	report.Guess = opts.Guess
	report.GuessSource = source
	return report, nil
}

func (s *AnalysisService) withDefaults(req Request) Request {
	if req.Series == nil {
		req.Series = bass.DefaultSeries()
	}
	if req.Method == "" {
		req.Method = s.config.Method
		if req.Method == "" || req.Method == fit.MethodAll {
			req.Method = fit.MethodLM
		}
	}
	if req.Guess == (bass.Params{}) {
		req.Guess = s.config.Guess()
		if req.Guess == (bass.Params{}) {
			req.Guess = fit.DefaultGuess
		}
	}
	if req.MaxIterations <= 0 {
		req.MaxIterations = s.config.MaxIterations
	}
	if req.ThresholdBase == "" {
		req.ThresholdBase = adoption.ThresholdBase(s.config.ThresholdBase)
	}
	if req.Horizon <= 0 {
		req.Horizon = s.config.Horizon
	}
	return req
}

// BuildReport predicts the observed years plus horizon from a fit result
// and allocates the predicted adopters with the given threshold base.
func BuildReport(series bass.Series, res *fit.Result, base adoption.ThresholdBase, horizon int) (*Report, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no observations", bass.ErrInvalidObservationSeries)
	}
	if horizon < 0 {
		horizon = 0
	}
	if base == "" {
		base = adoption.BaseMarket
	}

	// Observations may skip years; the prediction covers every year up to
	// the last observed time index.
	observed := int(series.Last().T + 0.5)
	points, err := bass.Predict(res.Params, series.StartYear(), observed+horizon)
	if err != nil {
		return nil, err
	}

	value, err := adoption.BaseFor(base, res.Params, points)
	if err != nil {
		return nil, err
	}
	alloc, err := adoption.Allocate(points, value)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Series:        series,
		Fit:           res,
		Guess:         res.Params,
		Points:        points,
		Observed:      observed,
		ThresholdBase: base,
		Allocation:    alloc,
	}
	if peak := res.Params.PeakTime(); peak > 0 {
		report.PeakYear = float64(series.StartYear()) + peak - 1
	}
	return report, nil
}
