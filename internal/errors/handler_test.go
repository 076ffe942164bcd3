package apperrors

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/agbru/bassfit/internal/adoption"
	"github.com/agbru/bassfit/internal/bass"
	"github.com/agbru/bassfit/internal/fit"
)

type MockColorProvider struct{}

func (m MockColorProvider) Yellow() string { return "[YELLOW]" }
func (m MockColorProvider) Reset() string  { return "[RESET]" }

func TestHandleFitError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		err          error
		duration     time.Duration
		colors       ColorProvider
		expectedCode int
		expectedMsg  string
	}{
		{
			name:         "No Error",
			err:          nil,
			expectedCode: ExitSuccess,
			expectedMsg:  "",
		},
		{
			name:         "Timeout Error",
			err:          context.DeadlineExceeded,
			duration:     1 * time.Second,
			colors:       MockColorProvider{},
			expectedCode: ExitErrorTimeout,
			expectedMsg:  "Status: Failure (Timeout). The execution limit was reached after [YELLOW]1s[RESET].",
		},
		{
			name:         "Canceled Error",
			err:          context.Canceled,
			duration:     500 * time.Millisecond,
			colors:       MockColorProvider{},
			expectedCode: ExitErrorCanceled,
			expectedMsg:  "[YELLOW]Status: Canceled after [YELLOW]500ms[RESET].[RESET]",
		},
		{
			name:         "No Convergence",
			err:          NewFitError("Levenberg-Marquardt", fmt.Errorf("%w: budget spent", fit.ErrFitDidNotConverge)),
			expectedCode: ExitErrorFit,
			expectedMsg:  "Status: Failure (No convergence): Levenberg-Marquardt: fit did not converge: budget spent",
		},
		{
			name:         "Singular Parameters",
			err:          fmt.Errorf("fitted %w: p=0", bass.ErrInvalidModelParameters),
			expectedCode: ExitErrorFit,
			expectedMsg:  "Status: Failure (Invalid parameters)",
		},
		{
			name:         "Decreasing Prediction",
			err:          fmt.Errorf("%w: 2036 ends at 0.1 below 0.2", adoption.ErrDecreasingPrediction),
			expectedCode: ExitErrorFit,
			expectedMsg:  "Status: Failure (Decreasing prediction): prediction is decreasing",
		},
		{
			name:         "Malformed Series",
			err:          fmt.Errorf("%w: no observations", bass.ErrInvalidObservationSeries),
			expectedCode: ExitErrorInput,
			expectedMsg:  "Status: Failure (Invalid data)",
		},
		{
			name:         "Config Error",
			err:          NewConfigError("bad flag"),
			expectedCode: ExitErrorConfig,
			expectedMsg:  "Status: Failure (Configuration): bad flag",
		},
		{
			name:         "Generic Error",
			err:          fmt.Errorf("random error"),
			expectedCode: ExitErrorGeneric,
			expectedMsg:  "Status: Failure. An unexpected error occurred: random error",
		},
		{
			name:         "Default Colors",
			err:          context.DeadlineExceeded,
			duration:     1 * time.Second,
			colors:       nil,
			expectedCode: ExitErrorTimeout,
			expectedMsg:  "Status: Failure (Timeout). The execution limit was reached after 1s.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := new(bytes.Buffer)
			code := HandleFitError(tt.err, tt.duration, out, tt.colors)

			if code != tt.expectedCode {
				t.Errorf("HandleFitError() code = %v, want %v", code, tt.expectedCode)
			}
			if code != ExitCodeFor(tt.err) {
				t.Errorf("HandleFitError() and ExitCodeFor() disagree for %v", tt.err)
			}

			if tt.expectedMsg != "" && !strings.Contains(out.String(), tt.expectedMsg) {
				t.Errorf("HandleFitError() output = %q, want %q", out.String(), tt.expectedMsg)
			}
		})
	}
}

func TestDefaultColorProvider(t *testing.T) {
	t.Parallel()
	p := DefaultColorProvider{}
	if p.Yellow() != "" {
		t.Error("DefaultColorProvider.Yellow should return empty string")
	}
	if p.Reset() != "" {
		t.Error("DefaultColorProvider.Reset should return empty string")
	}
}
