package catalog

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// AllCategories is the FilterSpec sentinel that disables category filtering.
const AllCategories = "all"

// SortKey orders a filtered view.
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortRating    SortKey = "rating"
)

// ParseSortKey maps a raw sort parameter to a SortKey, defaulting to newest.
func ParseSortKey(raw string) SortKey {
	switch SortKey(raw) {
	case SortPriceLow, SortPriceHigh, SortRating:
		return SortKey(raw)
	default:
		return SortNewest
	}
}

// FilterSpec is the ephemeral filter/sort criteria for one derivation.
// The zero value of PriceMax means "no upper bound".
type FilterSpec struct {
	Search   string
	Category string
	PriceMin decimal.Decimal
	PriceMax decimal.Decimal
	SortBy   SortKey
}

// Filter derives the visible subset of products: every predicate must pass
// (logical AND), then the result is stably sorted per the sort key. Pure
// function, recomputed in full on every call; the catalog is small enough
// that incremental evaluation would buy nothing.
func Filter(products []Product, spec FilterSpec) []Product {
	visible := make([]Product, 0, len(products))
	for _, p := range products {
		if matchesSearch(&p, spec.Search) &&
			matchesCategory(&p, spec.Category) &&
			matchesPriceRange(&p, spec.PriceMin, spec.PriceMax) {
			visible = append(visible, p)
		}
	}
	sortProducts(visible, spec.SortBy)
	return visible
}

// matchesSearch passes when any searchable field contains the term,
// case-insensitively. An empty term always passes.
func matchesSearch(p *Product, term string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)

	fields := []string{
		p.Title,
		p.Description,
		p.ShortDescription,
		p.Category,
		p.SKU,
		p.WeightLabel,
		p.Origin,
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	for _, b := range p.Badges {
		if strings.Contains(strings.ToLower(b), needle) {
			return true
		}
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

func matchesCategory(p *Product, category string) bool {
	if category == "" || strings.EqualFold(category, AllCategories) {
		return true
	}
	return strings.EqualFold(p.Category, category)
}

// matchesPriceRange is inclusive on both ends. A zero max means unbounded.
func matchesPriceRange(p *Product, min, max decimal.Decimal) bool {
	if p.Price.LessThan(min) {
		return false
	}
	if max.IsPositive() && p.Price.GreaterThan(max) {
		return false
	}
	return true
}

func sortProducts(products []Product, key SortKey) {
	switch key {
	case SortPriceLow:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.LessThan(products[j].Price)
		})
	case SortPriceHigh:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.GreaterThan(products[j].Price)
		})
	case SortRating:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Rating > products[j].Rating
		})
	default: // SortNewest
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].CreatedAt.After(products[j].CreatedAt)
		})
	}
}
