package bass

import (
	"errors"
	"math"
	"testing"
)

func TestPredict(t *testing.T) {
	t.Parallel()
	params := Params{P: 0.01, Q: 0.4, M: 700}
	points, err := Predict(params, 2016, 15)
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	if len(points) != 15 {
		t.Fatalf("expected 15 points, got %d", len(points))
	}

	var sumNew, sumShare float64
	prev := 0.0
	for i, pt := range points {
		if pt.Year != 2016+i || pt.T != i+1 {
			t.Errorf("point %d has year %d and t %d", i, pt.Year, pt.T)
		}
		if pt.Previous != prev {
			t.Errorf("point %d: Previous = %g, want %g", i, pt.Previous, prev)
		}
		if want := params.Cumulative(float64(i + 1)); pt.Cumulative != want {
			t.Errorf("point %d: Cumulative = %g, want %g", i, pt.Cumulative, want)
		}
		if pt.NewAdopters < 0 {
			t.Errorf("point %d: negative increment %g", i, pt.NewAdopters)
		}
		sumNew += pt.NewAdopters
		sumShare += pt.Share
		prev = pt.Cumulative
	}

	final := points[len(points)-1].Cumulative
	if math.Abs(sumNew-final) > 1e-9*final {
		t.Errorf("increments sum to %g, final cumulative is %g", sumNew, final)
	}
	if math.Abs(sumShare-100) > 1e-9 {
		t.Errorf("shares sum to %g, want 100", sumShare)
	}
	if points[0].NewAdopters != points[0].Cumulative {
		t.Errorf("first increment should be measured against zero")
	}
}

func TestPredictErrors(t *testing.T) {
	t.Parallel()
	if _, err := Predict(Params{P: 0, Q: 0.4, M: 700}, 2016, 5); !errors.Is(err, ErrInvalidModelParameters) {
		t.Errorf("expected ErrInvalidModelParameters, got %v", err)
	}
	if _, err := Predict(Params{P: 0.01, Q: 0.4, M: 700}, 2016, 0); err == nil {
		t.Error("expected an error for zero periods")
	}
}

func TestCumulativeSeries(t *testing.T) {
	t.Parallel()
	points, _ := Predict(Params{P: 0.02, Q: 0.3, M: 50}, 2000, 4)
	cs := CumulativeSeries(points)
	for i := range points {
		if cs[i] != points[i].Cumulative {
			t.Errorf("index %d: %g != %g", i, cs[i], points[i].Cumulative)
		}
	}
}
