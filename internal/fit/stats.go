package fit

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/agbru/bassfit/internal/bass"
)

// goodness holds the fit statistics derived from the final parameters.
type goodness struct {
	sse        float64
	rmse       float64
	rSquared   float64
	covariance *mat.SymDense
	stdErrors  [3]float64
}

// assess computes SSE, RMSE, R² and the parameter covariance
// s²(JᵀJ)⁻¹ with s² = SSE/(n-3). The covariance is nil when it is undefined
// (fewer than four observations or a singular JᵀJ); standard errors are then
// +Inf.
func assess(pr *problem, params bass.Params) goodness {
	n := pr.size()
	fitted := make([]float64, n)
	for i, ti := range pr.t {
		fitted[i] = params.Cumulative(ti)
	}

	var g goodness
	for i := range fitted {
		d := pr.y[i] - fitted[i]
		g.sse += d * d
	}
	g.rmse = math.Sqrt(g.sse / float64(n))
	if n > 1 {
		g.rSquared = stat.RSquaredFrom(fitted, pr.y, nil)
	}
	for i := range g.stdErrors {
		g.stdErrors[i] = math.Inf(1)
	}

	dof := n - 3
	if dof <= 0 {
		return g
	}

	jac := mat.NewDense(n, 3, nil)
	pr.jacobian(params, jac)
	var jtj mat.SymDense
	jtj.SymOuterK(1, jac.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(&jtj); !ok {
		return g
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return g
	}
	inv.ScaleSym(g.sse/float64(dof), &inv)
	g.covariance = &inv
	for i := range g.stdErrors {
		g.stdErrors[i] = math.Sqrt(inv.At(i, i))
	}
	return g
}
