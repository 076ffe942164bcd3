package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agbru/bassfit/internal/adoption"
	"github.com/agbru/bassfit/internal/bass"
	"github.com/agbru/bassfit/internal/fit"
	"github.com/agbru/bassfit/internal/logging"
	"github.com/agbru/bassfit/internal/service"
	"github.com/agbru/bassfit/pkg/models"
)

// requestError is a client error detected before the analysis runs.
type requestError struct {
	Message    string
	StatusCode int
}

func (e requestError) Error() string {
	return e.Message
}

func badRequest(format string, args ...any) requestError {
	return requestError{Message: fmt.Sprintf(format, args...), StatusCode: http.StatusBadRequest}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Unix(),
	})
}

func (s *Server) handleMethods(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, models.MethodsResponse{Methods: s.service.Methods()})
}

// handleAnalyze fits a series and returns the full report. POST takes a
// models.AnalyzeRequest body; GET takes the same fields as query
// parameters, with counts as a comma-separated list.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var (
		req models.AnalyzeRequest
		err error
	)
	switch r.Method {
	case http.MethodGet:
		req, err = parseAnalyzeQuery(r.URL.Query())
	case http.MethodPost:
		req, err = s.decodeAnalyzeBody(w, r)
	default:
		s.writeErrorResponse(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if err == nil {
		err = s.checkLimits(req)
	}
	if err != nil {
		s.metrics.RecordAnalysis(outcomeRejected)
		var reqErr requestError
		if errors.As(err, &reqErr) {
			s.writeErrorResponse(w, r, reqErr.StatusCode, reqErr.Message)
		} else {
			s.writeErrorResponse(w, r, http.StatusBadRequest, err.Error())
		}
		return
	}

	start := time.Now()
	key, keyErr := cacheKey(req)
	if keyErr == nil {
		if report, ok := s.cache.get(key); ok {
			s.metrics.RecordAnalysis(outcomeCached)
			s.writeJSONResponse(w, http.StatusOK, models.AnalyzeResponse{
				RequestID: RequestID(r.Context()),
				Cached:    true,
				Duration:  time.Since(start).String(),
				Report:    report,
			})
			return
		}
	}

	svcReq, err := service.RequestFromModel(req)
	if err != nil {
		s.metrics.RecordAnalysis(outcomeRejected)
		s.writeErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
	defer cancel()
	ctx, span := otel.Tracer("github.com/agbru/bassfit/internal/server").Start(ctx, "Analyze",
		trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		attribute.String("request_id", RequestID(r.Context())),
		attribute.Int("observations", len(svcReq.Series)),
		attribute.String("method", svcReq.Method),
	)
	defer span.End()

	report, err := s.service.Analyze(ctx, svcReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.metrics.RecordAnalysis(outcomeFailed)
			s.logger.Error("analysis failed", err, logging.String("request_id", RequestID(r.Context())))
		} else {
			s.metrics.RecordAnalysis(outcomeRejected)
		}
		s.writeErrorResponse(w, r, status, err.Error())
		return
	}

	out := report.ToModel()
	if keyErr == nil {
		s.cache.add(key, out)
	}
	s.metrics.RecordAnalysis(outcomeOK)
	s.metrics.ObserveAnalysis(time.Since(start))
	s.writeJSONResponse(w, http.StatusOK, models.AnalyzeResponse{
		RequestID: RequestID(r.Context()),
		Duration:  time.Since(start).String(),
		Report:    out,
	})
}

func (s *Server) decodeAnalyzeBody(w http.ResponseWriter, r *http.Request) (models.AnalyzeRequest, error) {
	var req models.AnalyzeRequest
	if r.Body == nil || r.Body == http.NoBody {
		return req, nil
	}
	body := http.MaxBytesReader(w, r.Body, s.securityConfig.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, requestError{Message: "Request body too large", StatusCode: http.StatusRequestEntityTooLarge}
		}
		return req, badRequest("Invalid JSON body: %v", err)
	}
	return req, nil
}

func (s *Server) checkLimits(req models.AnalyzeRequest) error {
	if req.Horizon < 0 {
		return badRequest("Invalid 'horizon': must not be negative")
	}
	if limit := s.securityConfig.MaxHorizon; limit > 0 && req.Horizon > limit {
		return badRequest("Invalid 'horizon': exceeds maximum allowed (%d)", limit)
	}
	if req.MaxIterations < 0 {
		return badRequest("Invalid 'max_iterations': must not be negative")
	}
	if limit := s.securityConfig.MaxObservations; limit > 0 && (len(req.Counts) > limit || len(req.Observations) > limit) {
		return requestError{
			Message:    fmt.Sprintf("Series exceeds maximum allowed length (%d)", limit),
			StatusCode: http.StatusRequestEntityTooLarge,
		}
	}
	return nil
}

// parseAnalyzeQuery reads method, horizon, base, auto_guess, max_iterations,
// p0, q0, m0, start_year and counts.
func parseAnalyzeQuery(q url.Values) (models.AnalyzeRequest, error) {
	req := models.AnalyzeRequest{
		Method:        q.Get("method"),
		ThresholdBase: q.Get("base"),
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"horizon", &req.Horizon},
		{"max_iterations", &req.MaxIterations},
		{"start_year", &req.StartYear},
	}
	for _, p := range ints {
		if v := q.Get(p.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return req, badRequest("Invalid '%s' parameter: must be an integer", p.name)
			}
			*p.dst = n
		}
	}

	if v := q.Get("auto_guess"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, badRequest("Invalid 'auto_guess' parameter: must be a boolean")
		}
		req.AutoGuess = b
	}

	var guess models.Params
	set := 0
	for _, p := range []struct {
		name string
		dst  *float64
	}{{"p0", &guess.P}, {"q0", &guess.Q}, {"m0", &guess.M}} {
		if v := q.Get(p.name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return req, badRequest("Invalid '%s' parameter: must be a number", p.name)
			}
			*p.dst = f
			set++
		}
	}
	switch set {
	case 0:
	case 3:
		req.Guess = &guess
	default:
		return req, badRequest("Parameters 'p0', 'q0' and 'm0' must be given together")
	}

	if v := q.Get("counts"); v != "" {
		for _, field := range strings.Split(v, ",") {
			f, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return req, badRequest("Invalid 'counts' parameter: %q is not a number", field)
			}
			req.Counts = append(req.Counts, f)
		}
	}
	return req, nil
}

// statusFor maps analysis errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, bass.ErrInvalidObservationSeries),
		errors.Is(err, bass.ErrInvalidModelParameters),
		errors.Is(err, adoption.ErrInvalidBase),
		errors.Is(err, service.ErrUnknownMethod):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrTooManyObservations):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, fit.ErrFitDidNotConverge),
		errors.Is(err, adoption.ErrDecreasingPrediction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encoding JSON response", err)
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	s.writeJSONResponse(w, statusCode, models.ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   message,
		RequestID: RequestID(r.Context()),
	})
}
