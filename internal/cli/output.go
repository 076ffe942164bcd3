package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/agbru/bassfit/internal/service"
	"github.com/agbru/bassfit/internal/ui"
	"github.com/agbru/bassfit/pkg/models"
)

// OutputConfig holds configuration for report output.
type OutputConfig struct {
	// OutputFile is the path to save the report (empty for no file output).
	// The extension selects the format: .yaml/.yml, .csv (yearly table) or
	// JSON for anything else.
	OutputFile string
	// JSON prints the report as JSON instead of tables.
	JSON bool
	// Quiet prints a single summary line.
	Quiet bool
	// Details adds fit statistics and contributions to the tables.
	Details bool
}

// WriteReportToFile saves report to path, creating parent directories.
func WriteReportToFile(report *service.Report, path string) error {
	if path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		enc := yaml.NewEncoder(file)
		enc.SetIndent(2)
		err = enc.Encode(report.ToModel())
		if err == nil {
			err = enc.Close()
		}
	case ".csv":
		err = writeYearsCSV(file, report.ToModel())
	default:
		err = writeJSON(file, report.ToModel())
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYearsCSV(w io.Writer, report *models.Report) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"year", "observed", "cumulative", "new_adopters", "share_percent", "forecast"})
	for _, y := range report.Years {
		observed := ""
		if y.Observed != nil {
			observed = strconv.FormatFloat(*y.Observed, 'g', -1, 64)
		}
		_ = cw.Write([]string{
			strconv.Itoa(y.Year),
			observed,
			strconv.FormatFloat(y.Cumulative, 'f', 6, 64),
			strconv.FormatFloat(y.NewAdopters, 'f', 6, 64),
			strconv.FormatFloat(y.SharePercent, 'f', 4, 64),
			strconv.FormatBool(y.Forecast),
		})
	}
	cw.Flush()
	return cw.Error()
}

// FormatQuietResult returns a single line suitable for scripting.
func FormatQuietResult(report *service.Report) string {
	p := report.Fit.Params
	return fmt.Sprintf("p=%s q=%s m=%s sse=%s final=%s",
		formatFloat(p.P), formatFloat(p.Q), formatFloat(p.M),
		formatFloat(report.Fit.SSE), formatFloat(report.FinalPrediction()))
}

// DisplayReportWithConfig prints report in the configured mode and saves it
// when an output file is set.
func DisplayReportWithConfig(out io.Writer, report *service.Report, config OutputConfig) error {
	switch {
	case config.Quiet:
		fmt.Fprintln(out, FormatQuietResult(report))
	case config.JSON:
		if err := writeJSON(out, report.ToModel()); err != nil {
			return err
		}
	default:
		DisplayReport(report, config.Details, out)
	}

	if config.OutputFile != "" {
		if err := WriteReportToFile(report, config.OutputFile); err != nil {
			return err
		}
		if !config.Quiet && !config.JSON {
			fmt.Fprintf(out, "\n%s✓ Report saved to: %s%s%s\n",
				ui.ColorGreen(), ui.ColorCyan(), config.OutputFile, ui.ColorReset())
		}
	}
	return nil
}
