// Package bass implements the Bass diffusion model: the closed-form cumulative
// adoption curve, its analytic derivatives, the observation series it is fitted
// to, and the yearly predictions derived from a fitted curve.
package bass

import (
	"errors"
	"fmt"
	"math"
)

// Epsilon is the smallest coefficient of innovation accepted by the model.
// The closed form divides by p, so anything at or below it is singular.
const Epsilon = 1e-12

var (
	// ErrInvalidModelParameters is returned when p is numerically zero or
	// negative, m is not positive, or a parameter is not finite.
	ErrInvalidModelParameters = errors.New("invalid model parameters")
	// ErrInvalidObservationSeries is returned for empty or non-monotonic
	// observation series.
	ErrInvalidObservationSeries = errors.New("invalid observation series")
)

// Params holds the three Bass coefficients.
type Params struct {
	// P is the coefficient of innovation.
	P float64 `json:"p"`
	// Q is the coefficient of imitation.
	Q float64 `json:"q"`
	// M is the market potential, in the same unit as the observed counts.
	M float64 `json:"m"`
}

// Validate reports ErrInvalidModelParameters when the parameters cannot be
// evaluated by the closed form.
func (p Params) Validate() error {
	for _, v := range []float64{p.P, p.Q, p.M} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value in %s", ErrInvalidModelParameters, p)
		}
	}
	if p.P <= Epsilon {
		return fmt.Errorf("%w: p=%g must be greater than %g", ErrInvalidModelParameters, p.P, Epsilon)
	}
	if p.M <= 0 {
		return fmt.Errorf("%w: m=%g must be positive", ErrInvalidModelParameters, p.M)
	}
	return nil
}

// String formats the parameters the way the CLI reports them.
func (p Params) String() string {
	return fmt.Sprintf("p=%.4f q=%.4f m=%.3f", p.P, p.Q, p.M)
}

// Vector returns the parameters as a (p, q, m) slice.
func (p Params) Vector() []float64 {
	return []float64{p.P, p.Q, p.M}
}

// FromVector builds Params from a (p, q, m) slice.
func FromVector(x []float64) Params {
	return Params{P: x[0], Q: x[1], M: x[2]}
}

// Cumulative evaluates F(t) = m(1 - e^{-(p+q)t}) / (1 + (q/p)e^{-(p+q)t}).
// Callers are expected to have validated the parameters.
func (p Params) Cumulative(t float64) float64 {
	e := math.Exp(-(p.P + p.Q) * t)
	return p.M * (1 - e) / (1 + (p.Q/p.P)*e)
}

// Gradient returns the partial derivatives of F(t) with respect to p, q and m.
func (p Params) Gradient(t float64) (dp, dq, dm float64) {
	e := math.Exp(-(p.P + p.Q) * t)
	num := 1 - e
	den := 1 + (p.Q/p.P)*e
	ratio := p.Q / p.P

	// d(num)/dp == d(num)/dq == t·e
	dNum := t * e
	dDenP := -p.Q*e/(p.P*p.P) - ratio*t*e
	dDenQ := e/p.P - ratio*t*e

	den2 := den * den
	dp = p.M * (dNum*den - num*dDenP) / den2
	dq = p.M * (dNum*den - num*dDenQ) / den2
	dm = num / den
	return dp, dq, dm
}

// PeakTime returns the time at which yearly adoption peaks, t* = ln(q/p)/(p+q).
// When imitation does not dominate innovation (q <= p) adoption is highest at
// the start and 0 is returned.
func (p Params) PeakTime() float64 {
	if p.Q <= p.P {
		return 0
	}
	return math.Log(p.Q/p.P) / (p.P + p.Q)
}
