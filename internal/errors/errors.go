// Package apperrors defines the application's error classes and exit codes.
// Configuration, fit and server failures each have their own type. Every type
// that carries a cause implements Unwrap, so errors.Is still reaches the
// sentinels of the bass and fit packages.
package apperrors

import "fmt"

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorTimeout  = 2   // Indicates the operation timed out.
	ExitErrorMismatch = 3   // Indicates fit methods disagree on the prediction.
	ExitErrorConfig   = 4   // Indicates a configuration error.
	ExitErrorFit      = 5   // Indicates the fit did not converge or is singular.
	ExitErrorInput    = 6   // Indicates a malformed observation series.
	ExitErrorCanceled = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ConfigError reports invalid flags, environment values or their
// combination. The application cannot start with such a configuration.
type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a ConfigError with a formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// FitError attaches the name of the fitting method to the failure it
// produced.
type FitError struct {
	// Method is the display name of the method that failed.
	Method string
	// Cause is the underlying error, typically fit.ErrFitDidNotConverge or
	// bass.ErrInvalidModelParameters.
	Cause error
}

func (e FitError) Error() string {
	if e.Method == "" {
		return e.Cause.Error()
	}
	return fmt.Sprintf("%s: %v", e.Method, e.Cause)
}

func (e FitError) Unwrap() error { return e.Cause }

// NewFitError wraps cause with the method name. It returns nil when cause
// is nil.
func NewFitError(method string, cause error) error {
	if cause == nil {
		return nil
	}
	return FitError{Method: method, Cause: cause}
}

// ServerError is returned by the HTTP server when it cannot start or shut
// down cleanly.
type ServerError struct {
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

func (e ServerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e ServerError) Unwrap() error { return e.Cause }

// NewServerError creates a ServerError. cause may be nil.
func NewServerError(message string, cause error) error {
	return ServerError{Message: message, Cause: cause}
}
