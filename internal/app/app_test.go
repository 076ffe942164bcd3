package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agbru/bassfit/internal/bass"
	"github.com/agbru/bassfit/internal/config"
	apperrors "github.com/agbru/bassfit/internal/errors"
	"github.com/agbru/bassfit/internal/fit"
	"github.com/agbru/bassfit/internal/service"
	"github.com/agbru/bassfit/internal/testutil"
	"github.com/agbru/bassfit/pkg/models"
)

// stubFitter returns a fixed result or error without optimizing.
type stubFitter struct {
	name   string
	params bass.Params
	sse    float64
	err    error
}

func (s stubFitter) Name() string { return s.name }

func (s stubFitter) Fit(_ context.Context, progressChan chan<- fit.ProgressUpdate, index int, _ bass.Series, _ fit.Options) (*fit.Result, error) {
	if progressChan != nil {
		progressChan <- fit.ProgressUpdate{FitterIndex: index, Value: 1}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &fit.Result{Method: s.name, Params: s.params, SSE: s.sse, Iterations: 1}, nil
}

var upiParams = bass.Params{P: 0.0083177, Q: 0.47719, M: 666.1137}

// testConfig parses args exactly as the command line would.
func testConfig(t *testing.T, args ...string) config.AppConfig {
	t.Helper()
	cfg, err := config.ParseConfig("bassfit", args, io.Discard, fit.GlobalFactory().List())
	if err != nil {
		t.Fatalf("ParseConfig(%v) failed: %v", args, err)
	}
	return cfg
}

// TestNew tests the New function for creating Application instances.
func TestNew(t *testing.T) {
	t.Parallel()
	t.Run("Valid args create application", func(t *testing.T) {
		t.Parallel()
		var errBuf bytes.Buffer
		args := []string{"bassfit", "-method", "all", "-horizon", "5"}

		app, err := New(args, &errBuf)

		if err != nil {
			t.Fatalf("New() returned unexpected error: %v", err)
		}
		if app == nil {
			t.Fatal("New() returned nil application")
		}
		if app.Config.Method != fit.MethodAll {
			t.Errorf("Expected method %q, got %q", fit.MethodAll, app.Config.Method)
		}
		if app.Config.Horizon != 5 {
			t.Errorf("Expected horizon 5, got %d", app.Config.Horizon)
		}
		if app.Factory == nil {
			t.Error("Factory should not be nil")
		}
	})

	t.Run("Invalid args return error", func(t *testing.T) {
		t.Parallel()
		var errBuf bytes.Buffer
		args := []string{"bassfit", "-invalid-flag"}

		app, err := New(args, &errBuf)

		if err == nil {
			t.Error("New() should return error for invalid args")
		}
		if app != nil {
			t.Error("New() should return nil application on error")
		}
	})

	t.Run("Unknown method is a config error", func(t *testing.T) {
		t.Parallel()
		_, err := New([]string{"bassfit", "-method", "simplex"}, io.Discard)
		if apperrors.ExitCodeFor(err) != apperrors.ExitErrorConfig {
			t.Errorf("Expected config error, got %v", err)
		}
	})

	t.Run("Help flag returns error", func(t *testing.T) {
		t.Parallel()
		var errBuf bytes.Buffer
		args := []string{"bassfit", "-h"}

		_, err := New(args, &errBuf)

		if err == nil {
			t.Error("New() should return error for help flag")
		}
		if !IsHelpError(err) {
			t.Error("Error should be a help error")
		}
	})

	t.Run("Empty args slice handled correctly", func(t *testing.T) {
		t.Parallel()
		app, err := New([]string{}, io.Discard)

		if err != nil {
			t.Fatalf("New() should handle empty args without error, got: %v", err)
		}
		if app.Config.Method != config.DefaultMethod {
			t.Errorf("Expected default method %q, got %q", config.DefaultMethod, app.Config.Method)
		}
		if app.Config.ThresholdBase != config.DefaultThresholdBase {
			t.Errorf("Expected default base %q, got %q", config.DefaultThresholdBase, app.Config.ThresholdBase)
		}
	})
}

// TestApplicationRun fits the built-in series end to end with the real
// Levenberg-Marquardt fitter.
func TestApplicationRun(t *testing.T) {
	t.Run("Quiet output is a single summary line", func(t *testing.T) {
		var out bytes.Buffer
		app := &Application{Config: testConfig(t, "-quiet"), Factory: fit.GlobalFactory(), ErrWriter: io.Discard}

		exitCode := app.Run(context.Background(), &out)

		if exitCode != apperrors.ExitSuccess {
			t.Fatalf("Expected exit code %d, got %d (output %q)", apperrors.ExitSuccess, exitCode, out.String())
		}
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		if len(lines) != 1 {
			t.Fatalf("Expected one line, got %d:\n%s", len(lines), out.String())
		}
		if !strings.HasPrefix(lines[0], "p=") || !strings.Contains(lines[0], "final=") {
			t.Errorf("Unexpected quiet line %q", lines[0])
		}
	})

	t.Run("JSON output decodes into the report model", func(t *testing.T) {
		var out bytes.Buffer
		app := &Application{Config: testConfig(t, "-json", "-horizon", "3"), Factory: fit.GlobalFactory(), ErrWriter: io.Discard}

		if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
			t.Fatalf("Expected exit code %d, got %d", apperrors.ExitSuccess, code)
		}
		var report models.Report
		if err := json.Unmarshal(out.Bytes(), &report); err != nil {
			t.Fatalf("output is not a JSON report: %v\n%s", err, out.String())
		}
		if len(report.Years) != 18 {
			t.Errorf("Expected 15 observed + 3 forecast years, got %d", len(report.Years))
		}
		if len(report.Categories) != 5 {
			t.Errorf("Expected 5 categories, got %d", len(report.Categories))
		}
		if math.Abs(report.Params.M-upiParams.M)/upiParams.M > 1e-3 {
			t.Errorf("m = %g, want about %g", report.Params.M, upiParams.M)
		}
		if report.GuessSource != service.GuessSupplied {
			t.Errorf("Expected guess source %q, got %q", service.GuessSupplied, report.GuessSource)
		}
	})

	t.Run("Tables include the execution summary", func(t *testing.T) {
		var out bytes.Buffer
		cfg := testConfig(t, "-no-color", "-details")
		app := &Application{Config: cfg, Factory: fit.GlobalFactory(), ErrWriter: io.Discard}

		if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
			t.Fatalf("Expected exit code %d, got %d", apperrors.ExitSuccess, code)
		}
		output := testutil.StripAnsiCodes(out.String())
		for _, want := range []string{"built-in UPI series", "Innovators", "Laggards"} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q:\n%s", want, output)
			}
		}
	})
}

func TestRunWithAutoGuess(t *testing.T) {
	var out bytes.Buffer
	app := &Application{Config: testConfig(t, "-json", "-auto-guess"), Factory: fit.GlobalFactory(), ErrWriter: io.Discard}

	if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
		t.Fatalf("Expected exit code %d, got %d", apperrors.ExitSuccess, code)
	}
	var report models.Report
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("output is not a JSON report: %v", err)
	}
	if report.GuessSource != service.GuessGrid {
		t.Errorf("Expected guess source %q, got %q", service.GuessGrid, report.GuessSource)
	}
}

func TestRunWithDataFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("CSV series", func(t *testing.T) {
		path := filepath.Join(dir, "series.csv")
		data := "year,count\n2016,1\n2017,5\n2018,15\n2019,45\n2020,90\n2021,160\n2022,240\n2023,310\n2024,380\n2025,450\n2026,510\n2027,560\n2028,600\n2029,630\n2030,650\n"
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		var out bytes.Buffer
		app := &Application{Config: testConfig(t, "-quiet", "-data", path), Factory: fit.GlobalFactory(), ErrWriter: io.Discard}
		if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
			t.Fatalf("Expected exit code %d, got %d", apperrors.ExitSuccess, code)
		}
	})

	t.Run("Decreasing counts are rejected", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		if err := os.WriteFile(path, []byte(`{"counts":[1,5,3]}`), 0o644); err != nil {
			t.Fatal(err)
		}
		var errBuf bytes.Buffer
		app := &Application{Config: testConfig(t, "-data", path), Factory: fit.GlobalFactory(), ErrWriter: &errBuf}
		if code := app.Run(context.Background(), io.Discard); code != apperrors.ExitErrorInput {
			t.Errorf("Expected exit code %d, got %d", apperrors.ExitErrorInput, code)
		}
		if !strings.Contains(errBuf.String(), "Invalid data") {
			t.Errorf("Expected an invalid data message, got %q", errBuf.String())
		}
	})
}

func TestRunFitFailure(t *testing.T) {
	factory := fit.NewTestFactory(map[string]fit.Fitter{
		fit.MethodLM: stubFitter{name: "Levenberg-Marquardt", err: fit.ErrFitDidNotConverge},
	})
	var out bytes.Buffer
	app := &Application{Config: testConfig(t, "-no-color"), Factory: factory, ErrWriter: io.Discard}

	if code := app.Run(context.Background(), &out); code != apperrors.ExitErrorFit {
		t.Errorf("Expected exit code %d, got %d", apperrors.ExitErrorFit, code)
	}
	if !strings.Contains(out.String(), "No convergence") {
		t.Errorf("Expected a convergence failure message, got:\n%s", out.String())
	}
}

func TestRunComparison(t *testing.T) {
	t.Run("Agreeing methods succeed", func(t *testing.T) {
		factory := fit.NewTestFactory(map[string]fit.Fitter{
			fit.MethodLM:   stubFitter{name: "LM", params: upiParams, sse: 1886},
			fit.MethodBFGS: stubFitter{name: "BFGS", params: upiParams, sse: 1887},
		})
		var out bytes.Buffer
		app := &Application{Config: testConfig(t, "-method", "all", "-no-color"), Factory: factory, ErrWriter: io.Discard}

		if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
			t.Errorf("Expected exit code %d, got %d\n%s", apperrors.ExitSuccess, code, out.String())
		}
		if !strings.Contains(out.String(), "Comparison summary") {
			t.Errorf("Expected a comparison table:\n%s", out.String())
		}
	})

	t.Run("Disagreeing methods report the mismatch", func(t *testing.T) {
		other := upiParams
		other.M = 700
		factory := fit.NewTestFactory(map[string]fit.Fitter{
			fit.MethodLM:   stubFitter{name: "LM", params: upiParams, sse: 1886},
			fit.MethodBFGS: stubFitter{name: "BFGS", params: other, sse: 2500},
		})
		var out bytes.Buffer
		app := &Application{Config: testConfig(t, "-method", "all", "-quiet"), Factory: factory, ErrWriter: io.Discard}

		if code := app.Run(context.Background(), &out); code != apperrors.ExitErrorMismatch {
			t.Errorf("Expected exit code %d, got %d", apperrors.ExitErrorMismatch, code)
		}
		// The lowest-SSE fit is still reported.
		if !strings.Contains(out.String(), "m=666.114") {
			t.Errorf("Expected the LM result in %q", out.String())
		}
	})

	t.Run("Every method failing", func(t *testing.T) {
		factory := fit.NewTestFactory(map[string]fit.Fitter{
			fit.MethodLM:   stubFitter{name: "LM", err: context.DeadlineExceeded},
			fit.MethodBFGS: stubFitter{name: "BFGS", err: context.DeadlineExceeded},
		})
		app := &Application{Config: testConfig(t, "-method", "all"), Factory: factory, ErrWriter: io.Discard}

		if code := app.Run(context.Background(), io.Discard); code != apperrors.ExitErrorTimeout {
			t.Errorf("Expected exit code %d, got %d", apperrors.ExitErrorTimeout, code)
		}
	})
}

func TestRunWritesOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.yaml")
	app := &Application{Config: testConfig(t, "-quiet", "-o", path), Factory: fit.GlobalFactory(), ErrWriter: io.Discard}

	if code := app.Run(context.Background(), io.Discard); code != apperrors.ExitSuccess {
		t.Fatalf("Expected exit code %d, got %d", apperrors.ExitSuccess, code)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("report file not written: %v", err)
	}
	if !strings.Contains(string(data), "categories:") {
		t.Errorf("YAML report missing categories:\n%s", data)
	}
}

func TestIsHelpError(t *testing.T) {
	t.Parallel()
	_, err := New([]string{"bassfit", "-h"}, io.Discard)

	if !IsHelpError(err) {
		t.Error("IsHelpError should return true for help flag error")
	}
	if IsHelpError(nil) {
		t.Error("IsHelpError(nil) should be false")
	}
}

// TestRunCompletion tests the completion script generation.
func TestRunCompletion(t *testing.T) {
	t.Parallel()
	var outBuf bytes.Buffer
	app := &Application{
		Config:    config.AppConfig{Completion: "bash"},
		Factory:   fit.GlobalFactory(),
		ErrWriter: &bytes.Buffer{},
	}

	exitCode := app.Run(context.Background(), &outBuf)

	if exitCode != apperrors.ExitSuccess {
		t.Errorf("Expected exit code %d, got %d", apperrors.ExitSuccess, exitCode)
	}
	if !strings.Contains(outBuf.String(), "complete") {
		t.Errorf("Output should contain bash completion script. Got:\n%s", outBuf.String())
	}
}

// TestRunCompletionInvalid tests invalid completion shell.
func TestRunCompletionInvalid(t *testing.T) {
	t.Parallel()
	var errBuf bytes.Buffer
	app := &Application{
		Config:    config.AppConfig{Completion: "invalid-shell"},
		Factory:   fit.GlobalFactory(),
		ErrWriter: &errBuf,
	}

	if exitCode := app.Run(context.Background(), io.Discard); exitCode != apperrors.ExitErrorConfig {
		t.Errorf("Expected exit code %d, got %d", apperrors.ExitErrorConfig, exitCode)
	}
}

func TestSetupLifecycle(t *testing.T) {
	t.Parallel()
	ctx, cancel := SetupLifecycle(context.Background(), 10*time.Millisecond)
	defer cancel.Cleanup()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context should expire after the timeout")
	}
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("Expected deadline exceeded, got %v", ctx.Err())
	}
}

func TestSetupSignals(t *testing.T) {
	t.Parallel()
	ctxWithSignals, stop := SetupSignals(context.Background())
	defer stop()

	if ctxWithSignals == nil {
		t.Error("Context should not be nil")
	}
	// Stop should not panic
	stop()
}

func TestSetupContextWithoutTimeout(t *testing.T) {
	t.Parallel()
	ctx, cancel := SetupContext(context.Background(), 0)
	if _, ok := ctx.Deadline(); ok {
		t.Error("a zero timeout should not set a deadline")
	}
	cancel()
	if ctx.Err() != context.Canceled {
		t.Errorf("Expected canceled after cancel, got %v", ctx.Err())
	}

	var empty CancelFuncs
	empty.Cleanup()
}
