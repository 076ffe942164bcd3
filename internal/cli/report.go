package cli

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/agbru/bassfit/internal/service"
	"github.com/agbru/bassfit/internal/ui"
)

// DisplayReport prints the fitted parameters, the yearly prediction and the
// adopter categories. details adds the fit statistics and the per-year
// contributions of each category.
func DisplayReport(report *service.Report, details bool, out io.Writer) {
	displayParams(report, details, out)
	displayYears(report, out)
	displayCategories(report, details, out)
}

func displayParams(report *service.Report, details bool, out io.Writer) {
	res := report.Fit
	fmt.Fprintf(out, "\n%s--- Fitted parameters (%s) ---%s\n", ui.ColorBold(), res.Method, ui.ColorReset())

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	rows := []struct {
		label string
		value float64
		err   float64
	}{
		{"p (innovation)", res.Params.P, res.StdErrors[0]},
		{"q (imitation)", res.Params.Q, res.StdErrors[1]},
		{"m (market potential)", res.Params.M, res.StdErrors[2]},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t: %s%s%s\t%s\n", r.label, ui.ColorCyan(), formatFloat(r.value), ui.ColorReset(), formatStdErr(r.err))
	}
	if report.PeakYear > 0 {
		fmt.Fprintf(tw, "Peak adoption year\t: %s%.1f%s\t\n", ui.ColorCyan(), report.PeakYear, ui.ColorReset())
	} else {
		fmt.Fprintf(tw, "Peak adoption year\t: none (q <= p)\t\n")
	}
	fmt.Fprintf(tw, "Final prediction\t: %s%s%s\t\n", ui.ColorGreen(), formatFloat(report.FinalPrediction()), ui.ColorReset())
	_ = tw.Flush()

	if !details {
		return
	}
	fmt.Fprintf(out, "\n%s--- Fit statistics ---%s\n", ui.ColorBold(), ui.ColorReset())
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "SSE\t: %s\n", formatFloat(res.SSE))
	fmt.Fprintf(tw, "RMSE\t: %s\n", formatFloat(res.RMSE))
	fmt.Fprintf(tw, "R²\t: %s\n", formatFloat(res.RSquared))
	fmt.Fprintf(tw, "Iterations\t: %d (%d evaluations)\n", res.Iterations, res.Evaluations)
	fmt.Fprintf(tw, "Initial guess\t: %s (%s)\n", report.Guess, report.GuessSource)
	fmt.Fprintf(tw, "Fit time\t: %s\n", FormatExecutionDuration(res.Duration))
	_ = tw.Flush()
}

func displayYears(report *service.Report, out io.Writer) {
	fmt.Fprintf(out, "\n%s--- Yearly prediction ---%s\n", ui.ColorBold(), ui.ColorReset())

	observed := make(map[int]float64, len(report.Series))
	for _, o := range report.Series {
		observed[o.Year] = o.Count
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Year\tObserved\tCumulative\tNew adopters\tShare\t\n")
	for i, pt := range report.Points {
		year := strconv.Itoa(pt.Year)
		if i >= report.Observed {
			year += "*"
		}
		obs := "-"
		if v, ok := observed[pt.Year]; ok {
			obs = formatFloat(v)
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%.2f%%\t\n", year, obs, pt.Cumulative, pt.NewAdopters, pt.Share)
	}
	_ = tw.Flush()
	if len(report.Points) > report.Observed {
		fmt.Fprintf(out, "* forecast\n")
	}
}

func displayCategories(report *service.Report, details bool, out io.Writer) {
	alloc := report.Allocation
	fmt.Fprintf(out, "\n%s--- Adopter categories (base: %s = %s) ---%s\n",
		ui.ColorBold(), report.ThresholdBase, formatFloat(alloc.Base), ui.ColorReset())

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Category\tRange\tUsers\tModeled\tRogers\n")
	for i, row := range alloc.Comparison() {
		s := alloc.Shares[i]
		fmt.Fprintf(tw, "%s%s%s\t%.2f - %.2f\t%.2f\t%.2f%%\t%.1f%%\n",
			ui.ColorBlue(), row.Name, ui.ColorReset(),
			s.LowerUsers, s.UpperUsers, row.Users, row.Modeled, row.Theoretical)
	}
	_ = tw.Flush()
	fmt.Fprintf(out, "Modeled total: %s%.2f%s\n", ui.ColorGreen(), alloc.ModeledTotal, ui.ColorReset())
	if rest := alloc.Unrealized(); rest > 1e-9 {
		fmt.Fprintf(out, "Unrealized potential: %s%.2f%s (%.2f%% of the base)\n",
			ui.ColorYellow(), rest, ui.ColorReset(), 100*rest/alloc.Base)
	}

	if !details {
		return
	}
	fmt.Fprintf(out, "\n%s--- Contributions by year ---%s\n", ui.ColorBold(), ui.ColorReset())
	for _, s := range alloc.Shares {
		if len(s.Contributions) == 0 {
			fmt.Fprintf(out, "%s: none\n", s.Category.Name)
			continue
		}
		parts := make([]string, len(s.Contributions))
		for i, c := range s.Contributions {
			parts[i] = fmt.Sprintf("%d: %.4f", c.Year, c.Users)
		}
		fmt.Fprintf(out, "%s: %s\n", s.Category.Name, strings.Join(parts, ", "))
	}
}

// formatFloat prints six significant digits, and "n/a" for NaN or Inf.
func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func formatStdErr(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return "± " + formatFloat(v)
}
