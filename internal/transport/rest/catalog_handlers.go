package rest

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/honeyfield/storefront/internal/catalog"
	"github.com/honeyfield/storefront/pkg/web"
	"github.com/shopspring/decimal"
)

// ProductDto is a catalog entry as rendered to the storefront, with the
// discount percentage computed server-side.
type ProductDto struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	ShortDescription string    `json:"shortDescription,omitempty"`
	Price            string    `json:"price"`
	OriginalPrice    string    `json:"originalPrice,omitempty"`
	DiscountPercent  int64     `json:"discountPercent,omitempty"`
	Category         string    `json:"category"`
	Stock            int32     `json:"stock"`
	Images           []string  `json:"images,omitempty"`
	Rating           float64   `json:"rating,omitempty"`
	ReviewCount      int32     `json:"reviewCount,omitempty"`
	SKU              string    `json:"sku,omitempty"`
	WeightLabel      string    `json:"weightLabel,omitempty"`
	Origin           string    `json:"origin,omitempty"`
	Badges           []string  `json:"badges,omitempty"`
	Tags             []string  `json:"tags,omitempty"`
	IsFeatured       bool      `json:"isFeatured"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ListProducts returns the visible product list for the given filter params:
// search, category, min, max and sort.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	spec, ok := h.parseFilterSpec(w, r)
	if !ok {
		return
	}

	products, err := h.products.Products(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error loading product list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}

	view := catalog.Filter(products, spec)
	dtos := make([]ProductDto, len(view))
	for i, p := range view {
		dtos[i] = toProductDto(&p)
	}
	mLogger.DebugContext(r.Context(), "Filtered product list", "total", len(products), "visible", len(view))
	web.RespondJSON(w, mLogger, http.StatusOK, dtos)
}

// GetProduct retrieves a single product by its ID.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id := r.PathValue("id")

	product, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve product with ID %s", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, toProductDto(product))
}

// parseFilterSpec builds a FilterSpec from the query string. Malformed price
// bounds are rejected with 400.
func (h *Handler) parseFilterSpec(w http.ResponseWriter, r *http.Request) (catalog.FilterSpec, bool) {
	mLogger := h.loggerWithReqID(r)
	q := r.URL.Query()

	spec := catalog.FilterSpec{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		SortBy:   catalog.ParseSortKey(q.Get("sort")),
	}
	if raw := q.Get("min"); raw != "" {
		min, err := decimal.NewFromString(raw)
		if err != nil || min.IsNegative() {
			web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Invalid min price: %s", raw))
			return spec, false
		}
		spec.PriceMin = min
	}
	if raw := q.Get("max"); raw != "" {
		max, err := decimal.NewFromString(raw)
		if err != nil || max.IsNegative() {
			web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Invalid max price: %s", raw))
			return spec, false
		}
		spec.PriceMax = max
	}
	return spec, true
}

func toProductDto(p *catalog.Product) ProductDto {
	dto := ProductDto{
		ID:               p.ID,
		Title:            p.Title,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		Price:            p.Price.String(),
		DiscountPercent:  catalog.DiscountPercent(p.Price, p.OriginalPrice),
		Category:         p.Category,
		Stock:            p.Stock,
		Images:           p.Images,
		Rating:           p.Rating,
		ReviewCount:      p.ReviewCount,
		SKU:              p.SKU,
		WeightLabel:      p.WeightLabel,
		Origin:           p.Origin,
		Badges:           p.Badges,
		Tags:             p.Tags,
		IsFeatured:       p.IsFeatured,
		CreatedAt:        p.CreatedAt,
	}
	if p.HasDiscount() {
		dto.OriginalPrice = p.OriginalPrice.String()
	}
	return dto
}
