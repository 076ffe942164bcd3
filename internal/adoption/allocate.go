package adoption

import (
	"errors"
	"fmt"
	"math"

	"github.com/agbru/bassfit/internal/bass"
)

var (
	// ErrEmptyPrediction is returned when there is nothing to allocate.
	ErrEmptyPrediction = errors.New("empty prediction")
	// ErrInvalidBase is returned when the threshold base is not positive or
	// does not cover the final predicted cumulative value.
	ErrInvalidBase = errors.New("invalid threshold base")
	// ErrDecreasingPrediction is returned when a period ends below its start.
	ErrDecreasingPrediction = errors.New("prediction is decreasing")
)

// roundingSlack bounds the relative drop between two consecutive predicted
// values that is treated as floating-point noise on a flat curve.
const roundingSlack = 8 * 0x1p-52

// Contribution is the part of one year's new adopters that fell into a
// category.
type Contribution struct {
	Year  int     `json:"year"`
	Users float64 `json:"users"`
}

// Share is the allocation of one category.
type Share struct {
	Category Category
	// LowerUsers and UpperUsers are the absolute thresholds of the band.
	LowerUsers float64
	UpperUsers float64
	// Users is the number of adopters allocated to the band.
	Users float64
	// Percent is Users as a percentage of the modeled total.
	Percent float64
	// Contributions lists the years that contributed, in year order.
	Contributions []Contribution
}

// Allocation is the result of Allocate.
type Allocation struct {
	// Base is the value the cutoffs were scaled by.
	Base float64
	// Shares holds one entry per category, in adoption order.
	Shares []Share
	// ModeledTotal is the sum of all allocated users.
	ModeledTotal float64
}

// BaseFor returns the threshold base value for kind.
func BaseFor(kind ThresholdBase, params bass.Params, points []bass.Point) (float64, error) {
	switch kind {
	case BaseMarket, "":
		return params.M, nil
	case BaseRealized:
		if len(points) == 0 {
			return 0, ErrEmptyPrediction
		}
		return points[len(points)-1].Cumulative, nil
	default:
		return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidBase, kind)
	}
}

// Allocate distributes the new adopters of every period over the Rogers
// categories. Each period covers the cumulative interval
// [Previous, Cumulative] and each band covers [Lower·base, Upper·base]; a
// band receives the length of their intersection.
func Allocate(points []bass.Point, base float64) (*Allocation, error) {
	return AllocateCategories(points, base, rogersCategories)
}

// AllocateCategories is Allocate with a custom set of bands. The bands must
// be sorted, contiguous and cover [0, 1].
func AllocateCategories(points []bass.Point, base float64, categories []Category) (*Allocation, error) {
	if len(points) == 0 {
		return nil, ErrEmptyPrediction
	}
	if !(base > 0) || math.IsInf(base, 0) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidBase, base)
	}
	if final := points[len(points)-1].Cumulative; final > base {
		return nil, fmt.Errorf("%w: final cumulative %g exceeds base %g", ErrInvalidBase, final, base)
	}
	if err := checkCategories(categories); err != nil {
		return nil, err
	}

	shares := make([]Share, len(categories))
	for j, c := range categories {
		shares[j] = Share{
			Category:   c,
			LowerUsers: c.Lower * base,
			UpperUsers: c.Upper * base,
		}
	}

	for _, pt := range points {
		before, after := pt.Previous, pt.Cumulative
		if after < before {
			if before-after <= roundingSlack*math.Max(math.Abs(before), 1) {
				continue
			}
			return nil, fmt.Errorf("%w: %d ends at %g below %g", ErrDecreasingPrediction, pt.Year, after, before)
		}
		for j := range shares {
			s := &shares[j]
			if after <= s.LowerUsers || before >= s.UpperUsers {
				continue
			}
			overlap := math.Max(0, math.Min(after, s.UpperUsers)-math.Max(before, s.LowerUsers))
			if overlap > 0 {
				s.Users += overlap
				s.Contributions = append(s.Contributions, Contribution{Year: pt.Year, Users: overlap})
			}
		}
	}

	a := &Allocation{Base: base, Shares: shares}
	for _, s := range shares {
		a.ModeledTotal += s.Users
	}
	if a.ModeledTotal > 0 {
		for j := range a.Shares {
			a.Shares[j].Percent = a.Shares[j].Users / a.ModeledTotal * 100
		}
	}
	return a, nil
}

func checkCategories(categories []Category) error {
	if len(categories) == 0 {
		return errors.New("no categories")
	}
	if categories[0].Lower != 0 || categories[len(categories)-1].Upper != 1 {
		return errors.New("categories must cover [0, 1]")
	}
	for i, c := range categories {
		if !(c.Lower < c.Upper) {
			return fmt.Errorf("category %q is empty", c.Name)
		}
		if i > 0 && c.Lower != categories[i-1].Upper {
			return fmt.Errorf("category %q does not start where %q ends", c.Name, categories[i-1].Name)
		}
	}
	return nil
}

// ComparisonRow sets a category's theoretical share beside the modeled one.
type ComparisonRow struct {
	Name        string
	Theoretical float64
	Modeled     float64
	Users       float64
}

// Comparison pairs each share with the textbook Rogers percentage. It
// assumes the allocation used the Rogers categories.
func (a *Allocation) Comparison() []ComparisonRow {
	theoretical := TheoreticalShares()
	rows := make([]ComparisonRow, len(a.Shares))
	for i, s := range a.Shares {
		rows[i] = ComparisonRow{Name: s.Category.Name, Modeled: s.Percent, Users: s.Users}
		if i < len(theoretical) {
			rows[i].Theoretical = theoretical[i]
		}
	}
	return rows
}

// Unrealized returns the part of the threshold base that no predicted
// adopter reaches, Base - ModeledTotal. With BaseMarket it is the market
// potential m left after the last predicted year; with BaseRealized it is
// zero up to rounding.
func (a *Allocation) Unrealized() float64 {
	return math.Max(0, a.Base-a.ModeledTotal)
}
