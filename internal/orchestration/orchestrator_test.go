package orchestration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/agbru/bassfit/internal/bass"
	apperrors "github.com/agbru/bassfit/internal/errors"
	"github.com/agbru/bassfit/internal/fit"
	"github.com/agbru/bassfit/internal/testutil"
)

// MockFitter is a fit.Fitter whose behavior is supplied by FitFunc.
type MockFitter struct {
	NameValue string
	FitFunc   func(ctx context.Context, reporter fit.ProgressReporter, series bass.Series, opts fit.Options) (*fit.Result, error)
}

func (m *MockFitter) Name() string {
	if m.NameValue != "" {
		return m.NameValue
	}
	return "Mock"
}

func (m *MockFitter) Fit(ctx context.Context, progressChan chan<- fit.ProgressUpdate, index int, series bass.Series, opts fit.Options) (*fit.Result, error) {
	reporter := func(progress float64) {
		if progressChan != nil {
			progressChan <- fit.ProgressUpdate{FitterIndex: index, Value: progress}
		}
	}
	if m.FitFunc == nil {
		return &fit.Result{Method: m.Name()}, nil
	}
	return m.FitFunc(ctx, reporter, series, opts)
}

func result(m, sse float64) *fit.Result {
	return &fit.Result{Params: bass.Params{P: 0.01, Q: 0.4, M: m}, SSE: sse}
}

func TestExecuteFits(t *testing.T) {
	t.Parallel()
	var seen fit.Options
	fitters := []fit.Fitter{
		&MockFitter{NameValue: "ok", FitFunc: func(_ context.Context, report fit.ProgressReporter, _ bass.Series, opts fit.Options) (*fit.Result, error) {
			seen = opts
			report(0.5)
			report(1)
			return result(700, 1), nil
		}},
		&MockFitter{NameValue: "fail", FitFunc: func(context.Context, fit.ProgressReporter, bass.Series, fit.Options) (*fit.Result, error) {
			return nil, fmt.Errorf("%w: budget", fit.ErrFitDidNotConverge)
		}},
	}
	opts := fit.DefaultOptions()
	opts.MaxIterations = 42

	outcomes := ExecuteFits(context.Background(), fitters, bass.DefaultSeries(), opts, io.Discard)

	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(outcomes))
	}
	if outcomes[0].Name != "ok" || outcomes[0].Err != nil || outcomes[0].Result.Params.M != 700 {
		t.Errorf("first outcome = %+v", outcomes[0])
	}
	if !errors.Is(outcomes[1].Err, fit.ErrFitDidNotConverge) {
		t.Errorf("second outcome error = %v", outcomes[1].Err)
	}
	if seen.MaxIterations != 42 {
		t.Errorf("options were not passed through: %+v", seen)
	}
}

func TestExecuteFitsRealMethods(t *testing.T) {
	t.Parallel()
	factory := fit.GlobalFactory()
	var fitters []fit.Fitter
	for _, name := range factory.List() {
		f, err := factory.Get(name)
		if err != nil {
			t.Fatal(err)
		}
		fitters = append(fitters, f)
	}

	outcomes := ExecuteFits(context.Background(), fitters, bass.DefaultSeries(), fit.DefaultOptions(), io.Discard)
	best, code := AnalyzeFitResults(outcomes, io.Discard)
	if best == nil {
		t.Fatalf("no method succeeded (code %d)", code)
	}
	if m := best.Result.Params.M; m < 650 || m > 690 {
		t.Errorf("best m = %g, want about 666", m)
	}
}

func TestAnalyzeFitResults(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		outcomes []FitOutcome
		wantCode int
		wantBest string
	}{
		{
			name: "agreement",
			outcomes: []FitOutcome{
				{Name: "A", Result: result(700, 2), Duration: time.Millisecond},
				{Name: "B", Result: result(703, 1), Duration: time.Millisecond},
			},
			wantCode: apperrors.ExitSuccess,
			wantBest: "B",
		},
		{
			name: "mismatch",
			outcomes: []FitOutcome{
				{Name: "A", Result: result(700, 1), Duration: time.Millisecond},
				{Name: "B", Result: result(900, 5), Duration: time.Millisecond},
			},
			wantCode: apperrors.ExitErrorMismatch,
			wantBest: "A",
		},
		{
			name: "all failed",
			outcomes: []FitOutcome{
				{Name: "A", Err: fmt.Errorf("%w: budget", fit.ErrFitDidNotConverge)},
				{Name: "B", Err: errors.New("boom")},
			},
			wantCode: apperrors.ExitErrorFit,
		},
		{
			name: "partial failure",
			outcomes: []FitOutcome{
				{Name: "A", Err: errors.New("boom")},
				{Name: "B", Result: result(700, 3)},
			},
			wantCode: apperrors.ExitSuccess,
			wantBest: "B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			best, code := AnalyzeFitResults(tt.outcomes, io.Discard)
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
			switch {
			case tt.wantBest == "" && best != nil:
				t.Errorf("best = %s, want none", best.Name)
			case tt.wantBest != "" && (best == nil || best.Name != tt.wantBest):
				t.Errorf("best = %v, want %s", best, tt.wantBest)
			}
		})
	}
}

func TestAnalyzeFitResultsTable(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	AnalyzeFitResults([]FitOutcome{
		{Name: "Levenberg-Marquardt", Result: result(666.11, 1886.07), Duration: 2 * time.Millisecond},
		{Name: "BFGS", Err: errors.New("line search failed")},
	}, &buf)
	got := testutil.StripAnsiCodes(buf.String())

	for _, want := range []string{"Method", "Levenberg-Marquardt", "1886.07", "666.11", "Success", "Failure (line search failed)", "Global Status: Success"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary lacks %q:\n%s", want, got)
		}
	}
}

func TestMarketSpread(t *testing.T) {
	t.Parallel()
	if got := marketSpread(nil); got != 0 {
		t.Errorf("empty spread = %g", got)
	}
	got := marketSpread([]FitOutcome{{Result: result(100, 0)}, {Result: result(110, 0)}, {Err: errors.New("x")}})
	if got < 0.0999 || got > 0.1001 {
		t.Errorf("spread = %g, want 0.1", got)
	}
}
