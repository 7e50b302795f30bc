// Package docstore defines the minimal document-store contract the storefront
// relies on: per-user cart line and favorite mark collections with atomic
// mutations and live full-snapshot subscriptions.
package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a mutation targets a document that does not exist.
var ErrNotFound = errors.New("document not found")

// CartLine represents "owner wants Quantity of ProductID".
// At most one CartLine exists per (owner, product) pair, and Quantity is
// always positive; a line whose quantity would drop to zero is deleted.
type CartLine struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   string    `json:"owner_id"`
	ProductID string    `json:"product_id"`
	Quantity  int32     `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FavoriteMark represents a binary "owner favorited ProductID" flag.
// At most one FavoriteMark exists per (owner, product) pair.
type FavoriteMark struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   string    `json:"owner_id"`
	ProductID string    `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CancelFunc detaches a subscription. Safe to call more than once.
type CancelFunc func()

// Store is the document store of record for per-user collections.
//
// Subscriptions have full-snapshot semantics: the callback receives the
// entire owned collection once on subscribe and again after every change,
// never an incremental delta. Callbacks may be invoked from the mutating
// goroutine or from a notification listener; implementations never invoke a
// callback while holding internal locks.
type Store interface {
	// AddCartLine adds delta to the owner's cart line for the product,
	// creating the line when none exists. The increment is atomic, so
	// concurrent adds never lose updates.
	AddCartLine(ctx context.Context, ownerID, productID string, delta int32) (*CartLine, error)

	// SetCartLineQuantity sets the line's quantity to an exact value.
	// Returns ErrNotFound if the owner has no line for the product.
	SetCartLineQuantity(ctx context.Context, ownerID, productID string, quantity int32) (*CartLine, error)

	// DeleteCartLine removes the owner's line for the product.
	// Deleting an absent line is not an error.
	DeleteCartLine(ctx context.Context, ownerID, productID string) error

	// ClearCartLines removes every line owned by ownerID as a single
	// all-or-nothing batch.
	ClearCartLines(ctx context.Context, ownerID string) error

	// ListCartLines returns all lines owned by ownerID.
	ListCartLines(ctx context.Context, ownerID string) ([]CartLine, error)

	// CreateFavoriteMark marks the product as a favorite of the owner.
	// Creating an already-present mark is not an error and leaves a single mark.
	CreateFavoriteMark(ctx context.Context, ownerID, productID string) (*FavoriteMark, error)

	// DeleteFavoriteMark removes the owner's mark for the product.
	// Deleting an absent mark is not an error.
	DeleteFavoriteMark(ctx context.Context, ownerID, productID string) error

	// ListFavoriteMarks returns all marks owned by ownerID.
	ListFavoriteMarks(ctx context.Context, ownerID string) ([]FavoriteMark, error)

	// SubscribeCartLines delivers the owner's full cart line collection to fn
	// on subscribe and after every change until the subscription is cancelled.
	SubscribeCartLines(ctx context.Context, ownerID string, fn func([]CartLine)) (CancelFunc, error)

	// SubscribeFavoriteMarks delivers the owner's full favorite mark
	// collection to fn on subscribe and after every change until the
	// subscription is cancelled.
	SubscribeFavoriteMarks(ctx context.Context, ownerID string, fn func([]FavoriteMark)) (CancelFunc, error)
}
