// Package dataset reads adoption series from CSV, JSON or YAML files.
//
// CSV files hold one "year,count" row per observation, with an optional
// header row. JSON and YAML files hold either a start year and a list of
// counts, or a list of {year, count} observations:
//
//	name: UPI
//	start_year: 2016
//	counts: [1, 5, 15, 45]
package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/agbru/bassfit/internal/bass"
)

// Format is a supported file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnsupportedFormat is returned for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// Dataset is a named observation series.
type Dataset struct {
	Name   string
	Series bass.Series
}

// document is the JSON/YAML layout.
type document struct {
	Name         string        `json:"name" yaml:"name"`
	StartYear    int           `json:"start_year" yaml:"start_year"`
	Counts       []float64     `json:"counts" yaml:"counts"`
	Observations []observation `json:"observations" yaml:"observations"`
}

type observation struct {
	Year  int     `json:"year" yaml:"year"`
	Count float64 `json:"count" yaml:"count"`
}

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads and validates the dataset at path.
func Load(path string) (*Dataset, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	ds, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if ds.Name == "" {
		ds.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return ds, nil
}

// Parse decodes data in the given format and validates the series.
func Parse(data []byte, format Format) (*Dataset, error) {
	var (
		ds  *Dataset
		err error
	)
	switch format {
	case FormatCSV:
		ds, err = parseCSV(bytes.NewReader(data))
	case FormatJSON:
		var doc document
		if err = json.Unmarshal(data, &doc); err == nil {
			ds, err = doc.dataset()
		}
	case FormatYAML:
		var doc document
		if err = yaml.Unmarshal(data, &doc); err == nil {
			ds, err = doc.dataset()
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	if err := ds.Series.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

func (d document) dataset() (*Dataset, error) {
	switch {
	case len(d.Counts) > 0 && len(d.Observations) > 0:
		return nil, fmt.Errorf("%w: both counts and observations given", bass.ErrInvalidObservationSeries)
	case len(d.Counts) > 0:
		start := d.StartYear
		if start == 0 {
			start = bass.DefaultStartYear
		}
		return &Dataset{Name: d.Name, Series: bass.NewSeries(start, d.Counts)}, nil
	default:
		years := make([]int, len(d.Observations))
		counts := make([]float64, len(d.Observations))
		for i, o := range d.Observations {
			years[i], counts[i] = o.Year, o.Count
		}
		return &Dataset{Name: d.Name, Series: fromYears(years, counts)}, nil
	}
}

func parseCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bass.ErrInvalidObservationSeries, err)
	}

	var years []int
	var counts []float64
	for i, rec := range records {
		year, yerr := strconv.Atoi(strings.TrimSpace(rec[0]))
		count, cerr := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if yerr != nil || cerr != nil {
			if i == 0 {
				continue // header
			}
			return nil, fmt.Errorf("%w: line %d: %q", bass.ErrInvalidObservationSeries, i+1, strings.Join(rec, ","))
		}
		years = append(years, year)
		counts = append(counts, count)
	}
	return &Dataset{Series: fromYears(years, counts)}, nil
}

// fromYears sets t = year - firstYear + 1, so gaps between years keep their
// spacing on the time axis.
func fromYears(years []int, counts []float64) bass.Series {
	s := make(bass.Series, len(years))
	for i := range years {
		s[i] = bass.Observation{
			Year:  years[i],
			T:     float64(years[i] - years[0] + 1),
			Count: counts[i],
		}
	}
	return s
}
