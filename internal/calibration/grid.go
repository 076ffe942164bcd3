// Package calibration estimates a starting point for the Bass fit.
// The least-squares objective is non-convex, so a poor initial guess can
// leave the optimizer in a flat region; a coarse grid scan avoids that.
package calibration

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/agbru/bassfit/internal/bass"
	"github.com/agbru/bassfit/internal/fit"
)

// ─────────────────────────────────────────────────────────────────────────────
// Search Grid
// ─────────────────────────────────────────────────────────────────────────────

// Grid describes the candidate coefficients scanned by EstimateInitialGuess.
type Grid struct {
	// PMin and PMax bound the innovation coefficient; points are log-spaced.
	PMin, PMax float64
	PSteps     int
	// QMin and QMax bound the imitation coefficient; points are evenly spaced.
	QMin, QMax float64
	QSteps     int
	// MFactors scale the last observed count into candidate market
	// potentials.
	MFactors []float64
}

// DefaultGrid returns the grid used by -auto-guess.
func DefaultGrid() Grid {
	return Grid{
		PMin: 1e-4, PMax: 0.2, PSteps: 24,
		QMin: 0, QMax: 1.5, QSteps: 31,
		MFactors: []float64{1.05, 1.25, 1.5, 2, 3},
	}
}

// QuickGrid returns a coarser grid, about a tenth of the default size.
func QuickGrid() Grid {
	return Grid{
		PMin: 1e-3, PMax: 0.1, PSteps: 8,
		QMin: 0.1, QMax: 1.0, QSteps: 10,
		MFactors: []float64{1.1, 1.5},
	}
}

// Validate checks that the grid describes at least one valid point.
func (g Grid) Validate() error {
	switch {
	case !(g.PMin > bass.Epsilon) || g.PMax < g.PMin:
		return fmt.Errorf("invalid p range [%g, %g]", g.PMin, g.PMax)
	case g.QMax < g.QMin:
		return fmt.Errorf("invalid q range [%g, %g]", g.QMin, g.QMax)
	case g.PSteps < 1 || g.QSteps < 1:
		return errors.New("grid needs at least one step per axis")
	case len(g.MFactors) == 0:
		return errors.New("grid needs at least one market factor")
	}
	for _, f := range g.MFactors {
		if !(f > 0) {
			return fmt.Errorf("invalid market factor %g", f)
		}
	}
	return nil
}

// Size returns the number of grid points.
func (g Grid) Size() int {
	return g.PSteps * g.QSteps * len(g.MFactors)
}

func (g Grid) axes() (ps, qs []float64) {
	ps = make([]float64, g.PSteps)
	qs = make([]float64, g.QSteps)
	if g.PSteps == 1 {
		ps[0] = g.PMin
	} else {
		floats.LogSpan(ps, g.PMin, g.PMax)
	}
	if g.QSteps == 1 {
		qs[0] = g.QMin
	} else {
		floats.Span(qs, g.QMin, g.QMax)
	}
	return ps, qs
}

// ─────────────────────────────────────────────────────────────────────────────
// Estimation
// ─────────────────────────────────────────────────────────────────────────────

// Estimate is the best grid point and its sum of squared errors.
type Estimate struct {
	Params bass.Params
	SSE    float64
	// Evaluated is the number of grid points scored.
	Evaluated int
}

// EstimateInitialGuess scans DefaultGrid and returns the point with the
// lowest SSE against series.
func EstimateInitialGuess(ctx context.Context, series bass.Series) (Estimate, error) {
	return EstimateWithGrid(ctx, series, DefaultGrid())
}

// EstimateWithGrid scans grid, one p row per goroutine, and returns the
// point with the lowest SSE. Ties go to the first point in (p, q, m) order,
// so the result does not depend on scheduling.
func EstimateWithGrid(ctx context.Context, series bass.Series, grid Grid) (Estimate, error) {
	if err := series.Validate(); err != nil {
		return Estimate{}, err
	}
	if err := grid.Validate(); err != nil {
		return Estimate{}, err
	}

	sse := fit.Objective(series)
	scale := math.Max(series.Last().Count, 1)
	ps, qs := grid.axes()

	rows := make([]Estimate, len(ps))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for i, p := range ps {
		eg.Go(func() error {
			best := Estimate{SSE: math.Inf(1)}
			for _, q := range qs {
				if err := ctx.Err(); err != nil {
					return err
				}
				for _, f := range grid.MFactors {
					params := bass.Params{P: p, Q: q, M: f * scale}
					s := sse(params)
					best.Evaluated++
					if s < best.SSE {
						best.Params, best.SSE = params, s
					}
				}
			}
			rows[i] = best
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Estimate{}, err
	}

	result := Estimate{SSE: math.Inf(1)}
	for _, row := range rows {
		result.Evaluated += row.Evaluated
		if row.SSE < result.SSE {
			result.Params, result.SSE = row.Params, row.SSE
		}
	}
	if math.IsInf(result.SSE, 1) {
		return Estimate{}, fmt.Errorf("%w: no grid point could be evaluated", bass.ErrInvalidModelParameters)
	}
	return result, nil
}
