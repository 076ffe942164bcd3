package fit

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/agbru/bassfit/internal/bass"
)

// problem is the least-squares objective for one observation series.
type problem struct {
	t []float64
	y []float64
}

func newProblem(series bass.Series) *problem {
	return &problem{t: series.Times(), y: series.Counts()}
}

func (pr *problem) size() int { return len(pr.t) }

// residuals writes y_i - F(t_i) into r.
func (pr *problem) residuals(params bass.Params, r []float64) {
	for i, ti := range pr.t {
		r[i] = pr.y[i] - params.Cumulative(ti)
	}
}

// sse returns the sum of squared residuals. Parameters the closed form cannot
// evaluate yield +Inf so that optimizers step away from them.
func (pr *problem) sse(params bass.Params) float64 {
	if params.Validate() != nil {
		return math.Inf(1)
	}
	var sum float64
	for i, ti := range pr.t {
		d := pr.y[i] - params.Cumulative(ti)
		sum += d * d
	}
	if math.IsNaN(sum) {
		return math.Inf(1)
	}
	return sum
}

// Objective returns the sum of squared errors of a parameter set against
// series. It is the function every fitter minimizes, so an initial guess
// search that scores candidates with it ranks them the same way the fit
// will.
func Objective(series bass.Series) func(bass.Params) float64 {
	return newProblem(series).sse
}

// jacobian fills jac (n×3) with ∂F(t_i)/∂(p, q, m).
func (pr *problem) jacobian(params bass.Params, jac *mat.Dense) {
	for i, ti := range pr.t {
		dp, dq, dm := params.Gradient(ti)
		jac.Set(i, 0, dp)
		jac.Set(i, 1, dq)
		jac.Set(i, 2, dm)
	}
}

// Gradient-free and quasi-Newton methods search over (ln p, q, ln m) so the
// positivity of p and m holds by construction.

func toLogSpace(p bass.Params) []float64 {
	return []float64{math.Log(p.P), p.Q, math.Log(p.M)}
}

func fromLogSpace(x []float64) bass.Params {
	return bass.Params{P: math.Exp(x[0]), Q: x[1], M: math.Exp(x[2])}
}

// logSpaceGradient writes ∂SSE/∂(ln p, q, ln m) into grad.
func (pr *problem) logSpaceGradient(grad, x []float64) {
	params := fromLogSpace(x)
	grad[0], grad[1], grad[2] = 0, 0, 0
	for i, ti := range pr.t {
		r := pr.y[i] - params.Cumulative(ti)
		dp, dq, dm := params.Gradient(ti)
		grad[0] += -2 * r * dp * params.P
		grad[1] += -2 * r * dq
		grad[2] += -2 * r * dm * params.M
	}
}
