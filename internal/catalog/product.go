// Package catalog holds the product model and the pure filtering/sorting
// engine that derives the visible product list from a filter specification.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is an immutable catalog entry. Optional fields are explicit: an
// absent price comparison field is the zero value, never a dynamic lookup.
type Product struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description,omitempty"`
	ShortDescription string          `json:"shortDescription,omitempty"`
	Price            decimal.Decimal `json:"price"`
	// OriginalPrice is the pre-discount price. Zero means no discount is
	// advertised; a discount is shown only when OriginalPrice > Price.
	OriginalPrice decimal.Decimal `json:"originalPrice,omitempty"`
	Category      string          `json:"category"`
	Stock         int32           `json:"stock"`
	Images        []string        `json:"images,omitempty"`
	// Rating is 0..5; 0 means unrated. Unrated products sort last under the
	// rating sort key and render as unrated.
	Rating      float64   `json:"rating,omitempty"`
	ReviewCount int32     `json:"reviewCount,omitempty"`
	SKU         string    `json:"sku,omitempty"`
	WeightLabel string    `json:"weightLabel,omitempty"`
	Origin      string    `json:"origin,omitempty"`
	Badges      []string  `json:"badges,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	IsActive    bool      `json:"isActive"`
	IsFeatured  bool      `json:"isFeatured"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Categories is the fixed category set products are filed under.
var Categories = []string{
	"Pure Honey",
	"Premium",
	"Honey Products",
	"Gift Sets",
}

// HasDiscount reports whether the product advertises a discount.
func (p *Product) HasDiscount() bool {
	return p.OriginalPrice.GreaterThan(p.Price)
}
