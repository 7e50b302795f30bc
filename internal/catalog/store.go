package catalog

import (
	"context"
	"errors"
)

// ErrProductNotFound is returned when no product exists with the given ID.
var ErrProductNotFound = errors.New("product not found")

// ProductStore is the read boundary to the catalog of record. Products are
// created and edited by an external admin flow; this core only reads them.
type ProductStore interface {
	// ListActive returns all active products.
	// Returns an empty slice if none exist.
	ListActive(ctx context.Context) ([]Product, error)

	// FindByID retrieves a single product by its identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id string) (*Product, error)
}
