package fit

import "github.com/agbru/bassfit/internal/bass"

const (
	// DefaultMaxIterations bounds the number of major optimizer iterations.
	DefaultMaxIterations = 10000
	// DefaultTolerance is the relative tolerance on SSE reduction and on the
	// parameter step, the same value MINPACK uses (sqrt of machine epsilon).
	DefaultTolerance = 1.49012e-8
)

// DefaultGuess is the starting point used for the UPI series.
var DefaultGuess = bass.Params{P: 0.03, Q: 0.4, M: 700}

// Options configures a single fit.
type Options struct {
	// Guess is the optimizer starting point.
	Guess bass.Params
	// MaxIterations is the iteration budget. Exceeding it fails the fit with
	// ErrFitDidNotConverge.
	MaxIterations int
	// FTol is the relative SSE reduction below which the fit has converged.
	FTol float64
	// XTol is the relative parameter step below which the fit has converged.
	XTol float64
}

// DefaultOptions returns options with the default guess and budget.
func DefaultOptions() Options {
	return Options{
		Guess:         DefaultGuess,
		MaxIterations: DefaultMaxIterations,
		FTol:          DefaultTolerance,
		XTol:          DefaultTolerance,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.FTol <= 0 {
		o.FTol = DefaultTolerance
	}
	if o.XTol <= 0 {
		o.XTol = DefaultTolerance
	}
	return o
}
