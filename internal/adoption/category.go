// Package adoption splits a predicted adoption curve into Rogers' five
// adopter categories by cumulative-share cutoffs.
package adoption

import (
	"fmt"
	"strings"
)

// Category is a band of the cumulative adoption share. Lower is inclusive,
// Upper exclusive, except for the last band which ends at 1.
type Category struct {
	Name  string  `json:"name"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Width returns Upper - Lower.
func (c Category) Width() float64 {
	return c.Upper - c.Lower
}

var rogersCategories = []Category{
	{Name: "Innovators", Lower: 0, Upper: 0.025},
	{Name: "Early Adopters", Lower: 0.025, Upper: 0.16},
	{Name: "Early Majority", Lower: 0.16, Upper: 0.50},
	{Name: "Late Majority", Lower: 0.50, Upper: 0.84},
	{Name: "Laggards", Lower: 0.84, Upper: 1.00},
}

// RogersCategories returns a copy of the five fixed bands, in adoption order.
func RogersCategories() []Category {
	out := make([]Category, len(rogersCategories))
	copy(out, rogersCategories)
	return out
}

// TheoreticalShares returns the textbook percentage of adopters in each
// Rogers category, in the same order as RogersCategories.
func TheoreticalShares() []float64 {
	return []float64{2.5, 13.5, 34, 34, 16}
}

// ThresholdBase selects the quantity the cumulative-share cutoffs are
// multiplied by to obtain absolute user thresholds.
type ThresholdBase string

const (
	// BaseMarket uses the market potential m.
	BaseMarket ThresholdBase = "market"
	// BaseRealized uses the final predicted cumulative value.
	BaseRealized ThresholdBase = "realized"
)

// ParseThresholdBase parses "market" or "realized", case-insensitively. The
// empty string selects BaseMarket.
func ParseThresholdBase(s string) (ThresholdBase, error) {
	switch ThresholdBase(strings.ToLower(strings.TrimSpace(s))) {
	case "", BaseMarket:
		return BaseMarket, nil
	case BaseRealized:
		return BaseRealized, nil
	default:
		return "", fmt.Errorf("%w %q (want %q or %q)", ErrInvalidBase, s, BaseMarket, BaseRealized)
	}
}
