package bass

import (
	"errors"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

func TestParamsValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"Valid", Params{P: 0.03, Q: 0.4, M: 700}, false},
		{"Negative imitation is allowed", Params{P: 0.03, Q: -0.01, M: 700}, false},
		{"Zero p", Params{P: 0, Q: 0.4, M: 700}, true},
		{"Tiny p", Params{P: Epsilon / 2, Q: 0.4, M: 700}, true},
		{"Negative p", Params{P: -0.1, Q: 0.4, M: 700}, true},
		{"Zero m", Params{P: 0.03, Q: 0.4, M: 0}, true},
		{"NaN q", Params{P: 0.03, Q: math.NaN(), M: 700}, true},
		{"Infinite m", Params{P: 0.03, Q: 0.4, M: math.Inf(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.params.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidModelParameters) {
					t.Errorf("expected ErrInvalidModelParameters, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCumulativeKnownValues(t *testing.T) {
	t.Parallel()
	p := Params{P: 0.03, Q: 0.38, M: 100}

	if got := p.Cumulative(0); got != 0 {
		t.Errorf("F(0) = %g, want 0", got)
	}
	// F(1) = 100 * (1 - e^-0.41) / (1 + (0.38/0.03) e^-0.41)
	e := math.Exp(-0.41)
	want := 100 * (1 - e) / (1 + (0.38/0.03)*e)
	if got := p.Cumulative(1); math.Abs(got-want) > 1e-12 {
		t.Errorf("F(1) = %g, want %g", got, want)
	}
}

// TestCumulative_PropertyBased checks the shape of the curve for random
// valid parameters: F(0) = 0, F is non-decreasing, and F approaches m.
func TestCumulative_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	pGen := gen.Float64Range(0.0005, 0.5)
	qGen := gen.Float64Range(0, 1.5)
	mGen := gen.Float64Range(1, 1e6)

	properties.Property("F(0) is zero", prop.ForAll(
		func(p, q, m float64) bool {
			return Params{P: p, Q: q, M: m}.Cumulative(0) == 0
		},
		pGen, qGen, mGen,
	))

	properties.Property("F is non-decreasing in t", prop.ForAll(
		func(p, q, m float64) bool {
			params := Params{P: p, Q: q, M: m}
			prev := params.Cumulative(0)
			for step := 1; step <= 400; step++ {
				cur := params.Cumulative(float64(step) * 0.25)
				if cur < prev-1e-9*m {
					return false
				}
				prev = cur
			}
			return true
		},
		pGen, qGen, mGen,
	))

	properties.Property("F tends to m", prop.ForAll(
		func(p, q, m float64) bool {
			params := Params{P: p, Q: q, M: m}
			return math.Abs(params.Cumulative(1e6)-m) <= 1e-9*m
		},
		pGen, qGen, mGen,
	))

	properties.TestingRun(t)
}

// TestGradientMatchesFiniteDifferences compares the analytic partials with a
// central finite-difference Jacobian.
func TestGradientMatchesFiniteDifferences(t *testing.T) {
	t.Parallel()
	cases := []Params{
		{P: 0.03, Q: 0.4, M: 700},
		{P: 0.0083, Q: 0.4772, M: 666.1},
		{P: 0.2, Q: 0.05, M: 1},
	}
	times := []float64{0.5, 1, 3, 7.5, 15, 30}

	for _, params := range cases {
		for _, tm := range times {
			jac := mat.NewDense(1, 3, nil)
			fd.Jacobian(jac, func(y, x []float64) {
				y[0] = FromVector(x).Cumulative(tm)
			}, params.Vector(), &fd.JacobianSettings{Formula: fd.Central})

			dp, dq, dm := params.Gradient(tm)
			got := []float64{dp, dq, dm}
			for j, g := range got {
				want := jac.At(0, j)
				scale := math.Max(1, math.Abs(want))
				if math.Abs(g-want) > 1e-5*scale {
					t.Errorf("%s t=%g: partial %d = %g, finite difference %g", params, tm, j, g, want)
				}
			}
		}
	}
}

func TestPeakTime(t *testing.T) {
	t.Parallel()
	p := Params{P: 0.01, Q: 0.4, M: 700}
	want := math.Log(40) / 0.41
	if got := p.PeakTime(); math.Abs(got-want) > 1e-12 {
		t.Errorf("PeakTime() = %g, want %g", got, want)
	}

	// The yearly increment is largest around t*.
	tPeak := p.PeakTime()
	slope := func(tm float64) float64 { return p.Cumulative(tm+1e-4) - p.Cumulative(tm-1e-4) }
	if slope(tPeak) < slope(tPeak-1) || slope(tPeak) < slope(tPeak+1) {
		t.Errorf("adoption rate is not maximal at t*=%g", tPeak)
	}

	if got := (Params{P: 0.3, Q: 0.1, M: 10}).PeakTime(); got != 0 {
		t.Errorf("PeakTime() with q <= p = %g, want 0", got)
	}
}
