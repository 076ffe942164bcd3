package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/agbru/bassfit/internal/adoption"
	"github.com/agbru/bassfit/internal/bass"
	"github.com/agbru/bassfit/internal/fit"
)

// ColorProvider defines the interface for obtaining terminal color codes.
// This abstraction breaks the import cycle with cli.
type ColorProvider interface {
	Yellow() string
	Reset() string
}

// DefaultColorProvider provides no color codes (for non-terminal output).
type DefaultColorProvider struct{}

func (d DefaultColorProvider) Yellow() string { return "" }
func (d DefaultColorProvider) Reset() string  { return "" }

// ExitCodeFor maps an error to the process exit code without printing
// anything.
func ExitCodeFor(err error) int {
	var cfgErr ConfigError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	case errors.As(err, &cfgErr):
		return ExitErrorConfig
	case errors.Is(err, bass.ErrInvalidObservationSeries):
		return ExitErrorInput
	case errors.Is(err, fit.ErrFitDidNotConverge),
		errors.Is(err, bass.ErrInvalidModelParameters),
		errors.Is(err, adoption.ErrDecreasingPrediction):
		return ExitErrorFit
	default:
		return ExitErrorGeneric
	}
}

// HandleFitError formats and prints the message for a failed fit and
// returns the matching exit code. Timeouts, cancellation, non-convergence,
// singular parameters and malformed input each get their own message.
//
// Parameters:
//   - err: The error that occurred.
//   - duration: The duration of the fit before it failed.
//   - out: The io.Writer to which the error message will be written.
//   - colors: Provider for terminal color codes (can be nil for no colors).
//
// Returns:
//   - int: The appropriate exit code for the error type.
func HandleFitError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}
	if colors == nil {
		colors = DefaultColorProvider{}
	}

	msgSuffix := ""
	if duration > 0 {
		msgSuffix = fmt.Sprintf(" after %s%s%s", colors.Yellow(), duration, colors.Reset())
	}

	code := ExitCodeFor(err)
	switch code {
	case ExitErrorTimeout:
		fmt.Fprintf(out, "Status: Failure (Timeout). The execution limit was reached%s.\n", msgSuffix)
	case ExitErrorCanceled:
		fmt.Fprintf(out, "%sStatus: Canceled%s.%s\n", colors.Yellow(), msgSuffix, colors.Reset())
	case ExitErrorFit:
		switch {
		case errors.Is(err, fit.ErrFitDidNotConverge):
			fmt.Fprintf(out, "Status: Failure (No convergence)%s: %v\nTry another initial guess (-p0, -q0, -m0), -auto-guess or a larger -max-iter.\n", msgSuffix, err)
		case errors.Is(err, adoption.ErrDecreasingPrediction):
			fmt.Fprintf(out, "Status: Failure (Decreasing prediction)%s: %v\nThe fitted curve cannot be allocated; try -auto-guess.\n", msgSuffix, err)
		default:
			fmt.Fprintf(out, "Status: Failure (Invalid parameters)%s: %v\n", msgSuffix, err)
		}
	case ExitErrorInput:
		fmt.Fprintf(out, "Status: Failure (Invalid data): %v\n", err)
	case ExitErrorConfig:
		fmt.Fprintf(out, "Status: Failure (Configuration): %v\n", err)
	default:
		fmt.Fprintf(out, "Status: Failure. An unexpected error occurred: %v\n", err)
	}
	return code
}
