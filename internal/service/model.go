package service

import (
	"math"

	"github.com/agbru/bassfit/internal/adoption"
	"github.com/agbru/bassfit/internal/bass"
	"github.com/agbru/bassfit/pkg/models"
)

// ToModel converts the report into its JSON document. Values that are not
// finite, such as an undefined R², are omitted.
func (r *Report) ToModel() *models.Report {
	out := &models.Report{
		Params:          params(r.Fit.Params),
		Guess:           params(r.Guess),
		GuessSource:     r.GuessSource,
		FinalPrediction: r.FinalPrediction(),
		ThresholdBase:   string(r.ThresholdBase),
		Base:            r.Allocation.Base,
		ModeledTotal:    r.Allocation.ModeledTotal,
		Unrealized:      r.Allocation.Unrealized(),
		Fit: models.FitStats{
			Method:      r.Fit.Method,
			SSE:         r.Fit.SSE,
			RMSE:        r.Fit.RMSE,
			RSquared:    finite(r.Fit.RSquared),
			Iterations:  r.Fit.Iterations,
			Evaluations: r.Fit.Evaluations,
			DurationMS:  float64(r.Fit.Duration.Microseconds()) / 1000,
		},
	}
	if p, q, m := finite(r.Fit.StdErrors[0]), finite(r.Fit.StdErrors[1]), finite(r.Fit.StdErrors[2]); p != nil || q != nil || m != nil {
		out.Fit.StdErrors = &models.StdErrors{P: p, Q: q, M: m}
	}
	if r.PeakYear > 0 {
		out.PeakYear = finite(r.PeakYear)
	}

	observed := make(map[int]float64, len(r.Series))
	for _, o := range r.Series {
		observed[o.Year] = o.Count
	}
	out.Years = make([]models.YearRow, len(r.Points))
	for i, pt := range r.Points {
		row := models.YearRow{
			Year:         pt.Year,
			Cumulative:   pt.Cumulative,
			NewAdopters:  pt.NewAdopters,
			SharePercent: pt.Share,
			Forecast:     i >= r.Observed,
		}
		if v, ok := observed[pt.Year]; ok {
			row.Observed = &v
		}
		out.Years[i] = row
	}

	theoretical := adoption.TheoreticalShares()
	out.Categories = make([]models.CategoryRow, len(r.Allocation.Shares))
	for i, s := range r.Allocation.Shares {
		row := models.CategoryRow{
			Name:          s.Category.Name,
			Users:         s.Users,
			Percent:       s.Percent,
			LowerFraction: s.Category.Lower,
			UpperFraction: s.Category.Upper,
			LowerUsers:    s.LowerUsers,
			UpperUsers:    s.UpperUsers,
		}
		if i < len(theoretical) {
			row.TheoreticalPercent = theoretical[i]
		}
		for _, c := range s.Contributions {
			row.Contributions = append(row.Contributions, models.Contribution{Year: c.Year, Users: c.Users})
		}
		out.Categories[i] = row
	}
	return out
}

// RequestFromModel converts an API request into a service request.
func RequestFromModel(in models.AnalyzeRequest) (Request, error) {
	req := Request{
		Method:        in.Method,
		MaxIterations: in.MaxIterations,
		Horizon:       in.Horizon,
		AutoGuess:     in.AutoGuess,
	}
	if in.ThresholdBase != "" {
		base, err := adoption.ParseThresholdBase(in.ThresholdBase)
		if err != nil {
			return Request{}, err
		}
		req.ThresholdBase = base
	}
	if in.Guess != nil {
		req.Guess = bass.Params{P: in.Guess.P, Q: in.Guess.Q, M: in.Guess.M}
	}

	switch {
	case len(in.Counts) > 0 && len(in.Observations) > 0:
		return Request{}, errBothSeriesForms
	case len(in.Counts) > 0:
		start := in.StartYear
		if start == 0 {
			start = bass.DefaultStartYear
		}
		req.Series = bass.NewSeries(start, in.Counts)
	case len(in.Observations) > 0:
		req.Series = make(bass.Series, len(in.Observations))
		first := in.Observations[0].Year
		for i, o := range in.Observations {
			req.Series[i] = bass.Observation{Year: o.Year, T: float64(o.Year - first + 1), Count: o.Count}
		}
	}
	return req, nil
}

func params(p bass.Params) models.Params {
	return models.Params{P: p.P, Q: p.Q, M: p.M}
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
