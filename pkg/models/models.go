/*
Package models defines the JSON documents exchanged by bassfit.

The same types back the -json CLI output, the report file written with -o
and the HTTP API, so a report saved by the CLI can be compared with one
returned by the server.
*/
package models

// Params is a Bass parameter triple.
type Params struct {
	P float64 `json:"p" yaml:"p"`
	Q float64 `json:"q" yaml:"q"`
	M float64 `json:"m" yaml:"m"`
}

// StdErrors holds the standard errors of a fit. A nil field means the
// error could not be estimated.
type StdErrors struct {
	P *float64 `json:"p,omitempty" yaml:"p,omitempty"`
	Q *float64 `json:"q,omitempty" yaml:"q,omitempty"`
	M *float64 `json:"m,omitempty" yaml:"m,omitempty"`
}

// FitStats describes how a fit went.
type FitStats struct {
	Method      string     `json:"method" yaml:"method"`
	SSE         float64    `json:"sse" yaml:"sse"`
	RMSE        float64    `json:"rmse" yaml:"rmse"`
	RSquared    *float64   `json:"r_squared,omitempty" yaml:"r_squared,omitempty"`
	StdErrors   *StdErrors `json:"std_errors,omitempty" yaml:"std_errors,omitempty"`
	Iterations  int        `json:"iterations" yaml:"iterations"`
	Evaluations int        `json:"evaluations" yaml:"evaluations"`
	DurationMS  float64    `json:"duration_ms" yaml:"duration_ms"`
}

// YearRow is one row of the yearly prediction table.
type YearRow struct {
	Year         int      `json:"year" yaml:"year"`
	Observed     *float64 `json:"observed,omitempty" yaml:"observed,omitempty"`
	Cumulative   float64  `json:"cumulative" yaml:"cumulative"`
	NewAdopters  float64  `json:"new_adopters" yaml:"new_adopters"`
	SharePercent float64  `json:"share_percent" yaml:"share_percent"`
	Forecast     bool     `json:"forecast,omitempty" yaml:"forecast,omitempty"`
}

// Contribution is the part of a year's new adopters assigned to a category.
type Contribution struct {
	Year  int     `json:"year" yaml:"year"`
	Users float64 `json:"users" yaml:"users"`
}

// CategoryRow is one adopter category of the allocation.
type CategoryRow struct {
	Name               string         `json:"name" yaml:"name"`
	Users              float64        `json:"users" yaml:"users"`
	Percent            float64        `json:"percent" yaml:"percent"`
	TheoreticalPercent float64        `json:"theoretical_percent" yaml:"theoretical_percent"`
	LowerFraction      float64        `json:"lower_fraction" yaml:"lower_fraction"`
	UpperFraction      float64        `json:"upper_fraction" yaml:"upper_fraction"`
	LowerUsers         float64        `json:"lower_users" yaml:"lower_users"`
	UpperUsers         float64        `json:"upper_users" yaml:"upper_users"`
	Contributions      []Contribution `json:"contributions,omitempty" yaml:"contributions,omitempty"`
}

// Report is the complete analysis result.
type Report struct {
	Params          Params        `json:"params" yaml:"params"`
	Guess           Params        `json:"initial_guess" yaml:"initial_guess"`
	GuessSource     string        `json:"guess_source" yaml:"guess_source"`
	Fit             FitStats      `json:"fit" yaml:"fit"`
	PeakYear        *float64      `json:"peak_year,omitempty" yaml:"peak_year,omitempty"`
	FinalPrediction float64       `json:"final_prediction" yaml:"final_prediction"`
	ThresholdBase   string        `json:"threshold_base" yaml:"threshold_base"`
	Base            float64       `json:"base" yaml:"base"`
	ModeledTotal    float64       `json:"modeled_total" yaml:"modeled_total"`
	Unrealized      float64       `json:"unrealized" yaml:"unrealized"`
	Years           []YearRow     `json:"years" yaml:"years"`
	Categories      []CategoryRow `json:"categories" yaml:"categories"`
}

// Observation is one input data point.
type Observation struct {
	Year  int     `json:"year" yaml:"year"`
	Count float64 `json:"count" yaml:"count"`
}

// AnalyzeRequest is the body of POST /analyze. Either Counts (with an
// optional StartYear) or Observations may be given; neither selects the
// built-in UPI series. Omitted numeric fields use the server defaults.
type AnalyzeRequest struct {
	StartYear     int           `json:"start_year,omitempty" yaml:"start_year,omitempty"`
	Counts        []float64     `json:"counts,omitempty" yaml:"counts,omitempty"`
	Observations  []Observation `json:"observations,omitempty" yaml:"observations,omitempty"`
	Method        string        `json:"method,omitempty" yaml:"method,omitempty"`
	Guess         *Params       `json:"initial_guess,omitempty" yaml:"initial_guess,omitempty"`
	MaxIterations int           `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty"`
	ThresholdBase string        `json:"threshold_base,omitempty" yaml:"threshold_base,omitempty"`
	Horizon       int           `json:"horizon,omitempty" yaml:"horizon,omitempty"`
	AutoGuess     bool          `json:"auto_guess,omitempty" yaml:"auto_guess,omitempty"`
}

// AnalyzeResponse wraps a report with request metadata.
type AnalyzeResponse struct {
	RequestID string  `json:"request_id,omitempty" yaml:"request_id,omitempty"`
	Cached    bool    `json:"cached" yaml:"cached"`
	Duration  string  `json:"duration" yaml:"duration"`
	Report    *Report `json:"report" yaml:"report"`
}

// MethodsResponse is the body of GET /methods.
type MethodsResponse struct {
	Methods []string `json:"methods" yaml:"methods"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status" yaml:"status"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error     string `json:"error" yaml:"error"`
	Message   string `json:"message" yaml:"message"`
	RequestID string `json:"request_id,omitempty" yaml:"request_id,omitempty"`
}
