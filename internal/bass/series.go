package bass

import (
	"fmt"
	"math"
)

// DefaultStartYear is the first year of the built-in UPI series.
const DefaultStartYear = 2016

// defaultCounts are the cumulative UPI users (millions) for 2016-2030.
var defaultCounts = []float64{1, 5, 15, 45, 90, 160, 240, 310, 380, 450, 510, 560, 600, 630, 650}

// Observation is one point of an adoption series.
type Observation struct {
	// Year is the calendar year of the observation.
	Year int `json:"year" yaml:"year"`
	// T is the model time index, 1 for the first observed year.
	T float64 `json:"t" yaml:"t"`
	// Count is the cumulative number of adopters at the end of Year.
	Count float64 `json:"count" yaml:"count"`
}

// Series is an ordered sequence of cumulative observations.
type Series []Observation

// NewSeries builds a series of consecutive years starting at startYear, with
// time indices 1..len(counts).
func NewSeries(startYear int, counts []float64) Series {
	s := make(Series, len(counts))
	for i, c := range counts {
		s[i] = Observation{Year: startYear + i, T: float64(i + 1), Count: c}
	}
	return s
}

// DefaultSeries returns the UPI adoption series used when no data file is given.
func DefaultSeries() Series {
	return NewSeries(DefaultStartYear, defaultCounts)
}

// Validate rejects series that cannot be fitted: empty, time indices that
// are not strictly increasing, counts that decrease, are negative, or are
// not finite.
func (s Series) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: no observations", ErrInvalidObservationSeries)
	}
	for i, o := range s {
		if math.IsNaN(o.Count) || math.IsInf(o.Count, 0) || math.IsNaN(o.T) || math.IsInf(o.T, 0) {
			return fmt.Errorf("%w: non-finite value at index %d", ErrInvalidObservationSeries, i)
		}
		if o.Count < 0 {
			return fmt.Errorf("%w: negative count %g in %d", ErrInvalidObservationSeries, o.Count, o.Year)
		}
		if i == 0 {
			continue
		}
		prev := s[i-1]
		if o.T <= prev.T {
			return fmt.Errorf("%w: time index %g does not follow %g", ErrInvalidObservationSeries, o.T, prev.T)
		}
		if o.Count < prev.Count {
			return fmt.Errorf("%w: count drops from %g to %g in %d", ErrInvalidObservationSeries, prev.Count, o.Count, o.Year)
		}
	}
	return nil
}

// Times returns the time indices of the series.
func (s Series) Times() []float64 {
	ts := make([]float64, len(s))
	for i, o := range s {
		ts[i] = o.T
	}
	return ts
}

// Counts returns the cumulative counts of the series.
func (s Series) Counts() []float64 {
	ys := make([]float64, len(s))
	for i, o := range s {
		ys[i] = o.Count
	}
	return ys
}

// StartYear returns the calendar year matching t = 1.
func (s Series) StartYear() int {
	if len(s) == 0 {
		return DefaultStartYear
	}
	return s[0].Year - int(math.Round(s[0].T)) + 1
}

// Last returns the final observation. The series must not be empty.
func (s Series) Last() Observation {
	return s[len(s)-1]
}
