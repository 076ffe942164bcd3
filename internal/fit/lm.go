package fit

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/agbru/bassfit/internal/bass"
)

const (
	lmInitialDamping = 1e-3
	lmMaxDamping     = 1e16
	lmMinDamping     = 1e-15
	lmMinDiagonal    = 1e-12
)

// LevenbergMarquardt is a damped Gauss-Newton least-squares solver using the
// analytic Jacobian of the Bass curve. Each major iteration solves
//
//	(JᵀJ + λ·diag(JᵀJ)) δ = Jᵀr
//
// and raises λ tenfold until the step lowers the SSE.
type LevenbergMarquardt struct{}

// Name returns the display name of the method.
func (LevenbergMarquardt) Name() string {
	return "Levenberg-Marquardt"
}

// FitCore implements coreFitter.
func (LevenbergMarquardt) FitCore(ctx context.Context, reporter ProgressReporter, pr *problem, opts Options) (solution, error) {
	n := pr.size()
	x := opts.Guess.Vector()
	params := opts.Guess

	r := make([]float64, n)
	jac := mat.NewDense(n, 3, nil)
	var jtj mat.Dense
	var damped mat.Dense
	var step mat.VecDense
	g := mat.NewVecDense(3, nil)
	candidate := make([]float64, 3)

	current := pr.sse(params)
	evaluations := 1
	lambda := lmInitialDamping

	for iter := 1; iter <= opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return solution{}, err
		}
		reporter(float64(iter-1) / float64(opts.MaxIterations))

		pr.residuals(params, r)
		pr.jacobian(params, jac)
		jtj.Mul(jac.T(), jac)
		g.MulVec(jac.T(), mat.NewVecDense(n, r))

		improved := false
		var next float64
		for lambda < lmMaxDamping {
			damped.CloneFrom(&jtj)
			for i := 0; i < 3; i++ {
				d := math.Max(jtj.At(i, i), lmMinDiagonal)
				damped.Set(i, i, jtj.At(i, i)+lambda*d)
			}
			if err := step.SolveVec(&damped, g); err != nil {
				// A mat.Condition error still carries a usable solution.
				var cond mat.Condition
				if !errors.As(err, &cond) {
					lambda *= 10
					continue
				}
			}
			for i := range candidate {
				candidate[i] = x[i] + step.AtVec(i)
			}
			next = pr.sse(bass.FromVector(candidate))
			evaluations++
			if next < current {
				improved = true
				break
			}
			lambda *= 10
		}

		// No damping lowers the SSE any further: x is a minimum to
		// machine precision.
		if !improved {
			return solution{x: x, iterations: iter, evaluations: evaluations}, nil
		}

		stepNorm := floats.Norm(step.RawVector().Data, 2)
		reduction := current - next
		previous := current
		copy(x, candidate)
		params = bass.FromVector(x)
		current = next
		lambda = math.Max(lambda/10, lmMinDamping)

		if current == 0 ||
			reduction <= opts.FTol*previous ||
			stepNorm <= opts.XTol*(floats.Norm(x, 2)+opts.XTol) {
			return solution{x: x, iterations: iter, evaluations: evaluations}, nil
		}
	}

	return solution{}, fmt.Errorf("%w: %s reached %d iterations (sse=%g, %s)",
		ErrFitDidNotConverge, LevenbergMarquardt{}.Name(), opts.MaxIterations, current, params)
}
