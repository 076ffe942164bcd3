package bass

import "fmt"

// Point is one year of a predicted adoption curve.
type Point struct {
	Year int
	T    int
	// Previous is F(T-1), the cumulative value when the period starts.
	Previous float64
	// Cumulative is F(T).
	Cumulative float64
	// NewAdopters is F(T) - F(T-1), with F(0) = 0.
	NewAdopters float64
	// Share is NewAdopters as a percentage of the final cumulative value.
	Share float64
}

// Predict evaluates the closed form at t = 1..periods and derives the yearly
// increments. Year of t=1 is startYear.
func Predict(params Params, startYear, periods int) ([]Point, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if periods <= 0 {
		return nil, fmt.Errorf("%w: %d periods requested", ErrInvalidObservationSeries, periods)
	}

	points := make([]Point, periods)
	prev := 0.0
	for i := range points {
		t := i + 1
		cum := params.Cumulative(float64(t))
		points[i] = Point{
			Year:        startYear + i,
			T:           t,
			Previous:    prev,
			Cumulative:  cum,
			NewAdopters: cum - prev,
		}
		prev = cum
	}

	total := points[periods-1].Cumulative
	if total > 0 {
		for i := range points {
			points[i].Share = points[i].NewAdopters / total * 100
		}
	}
	return points, nil
}

// CumulativeSeries returns only the cumulative values of a prediction.
func CumulativeSeries(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, pt := range points {
		out[i] = pt.Cumulative
	}
	return out
}
