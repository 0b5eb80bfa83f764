// Package model defines the core domain models used throughout the application.
package model

// Deal represents a single extracted product listing with pricing metadata.
// Deals are immutable once extracted; their identity within a run is their
// position in the run's deal list.
type Deal struct {
	Name            string  `json:"product_name"`
	Description     string  `json:"product_description"`
	Category        string  `json:"category"`
	ImageURL        string  `json:"image_url"`
	ProductURL      string  `json:"product_url"`
	SalePrice       float64 `json:"sale_price"`
	RegularPrice    float64 `json:"regular_price"`
	DiscountPercent float64 `json:"discount_percentage"`
}

// ComputeDiscount recalculates the discount percentage from the two prices.
// Returns 0 when the regular price is zero.
func (d *Deal) ComputeDiscount() float64 {
	if d.RegularPrice <= 0 {
		return 0
	}
	return (d.RegularPrice - d.SalePrice) / d.RegularPrice * 100
}

// MatchResult pairs a deal with the oracle's confidence and explanation for
// why it matched the user's preferences. Confidence is always in [0, 100].
type MatchResult struct {
	Explanation string
	Deal        Deal
	DealIndex   int
	Confidence  int
}
