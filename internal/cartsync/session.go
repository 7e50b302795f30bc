// Package cartsync maintains a per-user reactive mirror of the cart line and
// favorite mark collections and exposes the mutation operations the
// storefront UI calls. The mirror is fed exclusively by full-snapshot
// subscriptions on the document store: mutations never touch local state
// directly, so a failed write leaves the mirror exactly as it was.
package cartsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/honeyfield/storefront/internal/docstore"
	"github.com/honeyfield/storefront/internal/identity"
)

// ErrUnauthenticated is returned by mutating operations invoked with no
// signed-in user.
var ErrUnauthenticated = errors.New("user is not authenticated")

// Actions reported by cart and favorite mutations.
const (
	ActionAdded   = "added"
	ActionUpdated = "updated"
	ActionRemoved = "removed"
)

// CartMutation reports the declared end state of an AddToCart call.
type CartMutation struct {
	Action      string `json:"action"`
	NewQuantity int32  `json:"newQuantity"`
}

// FavoriteMutation reports the outcome of a ToggleFavorite call.
type FavoriteMutation struct {
	Action string `json:"action"`
}

// Session mirrors one authenticated user's cart and favorites.
//
// The mirror is written only by subscription callbacks and read by everything
// else. When the identity provider reports a user change, the session clears
// the mirror and resubscribes under a new generation; snapshots from a stale
// generation are discarded, so one user's items are never observable in
// another user's session, even transiently.
type Session struct {
	store  docstore.Store
	users  identity.Provider
	logger *slog.Logger

	mu        sync.RWMutex
	userID    string
	gen       uint64
	cartLines map[string]docstore.CartLine
	favorites map[string]docstore.FavoriteMark
	cancels   []docstore.CancelFunc

	// opLocks serializes mutations per product id, closing the
	// read-then-write window between the mirror lookup and the store write.
	opMu    sync.Mutex
	opLocks map[string]*sync.Mutex
}

// Open creates a session bound to the provider's current user and follows
// user changes until ctx is cancelled.
func Open(ctx context.Context, store docstore.Store, users identity.Provider, logger *slog.Logger) *Session {
	s := &Session{
		store:     store,
		users:     users,
		logger:    logger.With("component", "cartsync"),
		cartLines: make(map[string]docstore.CartLine),
		favorites: make(map[string]docstore.FavoriteMark),
		opLocks:   make(map[string]*sync.Mutex),
	}

	changes := users.Watch(ctx)
	userID, _ := users.UserID()
	s.activate(ctx, userID)

	go func() {
		for {
			select {
			case <-ctx.Done():
				s.activate(context.WithoutCancel(ctx), "")
				return
			case next := <-changes:
				s.activate(ctx, next)
			}
		}
	}()

	return s
}

// activate switches the session to the given user: the old subscriptions are
// detached, the mirror is cleared, and fresh subscriptions are opened, all
// under a new generation. An empty user id deactivates the session.
func (s *Session) activate(ctx context.Context, userID string) {
	s.mu.Lock()
	cancels := s.cancels
	s.cancels = nil
	s.gen++
	gen := s.gen
	s.userID = userID
	s.cartLines = make(map[string]docstore.CartLine)
	s.favorites = make(map[string]docstore.FavoriteMark)
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}

	if userID == "" {
		return
	}

	cartCancel, err := s.store.SubscribeCartLines(ctx, userID, func(lines []docstore.CartLine) {
		s.applyCartSnapshot(gen, lines)
	})
	if err != nil {
		s.logger.Error("failed to subscribe to cart lines", "user_id", userID, "error", err)
		return
	}
	favCancel, err := s.store.SubscribeFavoriteMarks(ctx, userID, func(marks []docstore.FavoriteMark) {
		s.applyFavoritesSnapshot(gen, marks)
	})
	if err != nil {
		s.logger.Error("failed to subscribe to favorite marks", "user_id", userID, "error", err)
		cartCancel()
		return
	}

	s.mu.Lock()
	if s.gen != gen {
		// The user changed again while we were subscribing.
		s.mu.Unlock()
		cartCancel()
		favCancel()
		return
	}
	s.cancels = []docstore.CancelFunc{cartCancel, favCancel}
	s.mu.Unlock()
}

// applyCartSnapshot replaces the cart mirror wholesale with the delivered
// snapshot, unless the session has since moved to another generation.
func (s *Session) applyCartSnapshot(gen uint64, lines []docstore.CartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	mirror := make(map[string]docstore.CartLine, len(lines))
	for _, line := range lines {
		mirror[line.ProductID] = line
	}
	s.cartLines = mirror
}

func (s *Session) applyFavoritesSnapshot(gen uint64, marks []docstore.FavoriteMark) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	mirror := make(map[string]docstore.FavoriteMark, len(marks))
	for _, mark := range marks {
		mirror[mark.ProductID] = mark
	}
	s.favorites = mirror
}

// AddToCart adds quantity to the user's cart line for the product, creating
// the line when none exists. Repeated calls accumulate: adding 1 twice yields
// quantity 2, not 1.
func (s *Session) AddToCart(ctx context.Context, productID string, quantity int32) (*CartMutation, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	userID, ok := s.currentUser()
	if !ok {
		return nil, ErrUnauthenticated
	}

	unlock := s.lockProduct(productID)
	defer unlock()

	action := ActionAdded
	newQuantity := quantity
	if existing, found := s.cartLine(productID); found {
		action = ActionUpdated
		newQuantity = existing.Quantity + quantity
	}

	if _, err := s.store.AddCartLine(ctx, userID, productID, quantity); err != nil {
		return nil, fmt.Errorf("failed to add product %s to cart: %w", productID, err)
	}
	return &CartMutation{Action: action, NewQuantity: newQuantity}, nil
}

// RemoveFromCart deletes the user's cart line for the product. Removing an
// absent line succeeds.
func (s *Session) RemoveFromCart(ctx context.Context, productID string) error {
	userID, ok := s.currentUser()
	if !ok {
		return ErrUnauthenticated
	}

	unlock := s.lockProduct(productID)
	defer unlock()

	if err := s.store.DeleteCartLine(ctx, userID, productID); err != nil {
		return fmt.Errorf("failed to remove product %s from cart: %w", productID, err)
	}
	return nil
}

// UpdateCartQuantity sets the line's quantity to the exact given value.
// A quantity of zero or less deletes the line: zero-quantity cart lines must
// never exist. Updating a product with no line is a no-op.
func (s *Session) UpdateCartQuantity(ctx context.Context, productID string, quantity int32) error {
	if quantity <= 0 {
		return s.RemoveFromCart(ctx, productID)
	}
	userID, ok := s.currentUser()
	if !ok {
		return ErrUnauthenticated
	}

	unlock := s.lockProduct(productID)
	defer unlock()

	// You can only update what you already added; a missing line is left
	// missing rather than created.
	if _, found := s.cartLine(productID); !found {
		return nil
	}

	if _, err := s.store.SetCartLineQuantity(ctx, userID, productID, quantity); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			// The line vanished between the mirror read and the write.
			return nil
		}
		return fmt.Errorf("failed to update quantity for product %s: %w", productID, err)
	}
	return nil
}

// ToggleFavorite flips the presence of the user's favorite mark for the
// product and reports which way it flipped.
func (s *Session) ToggleFavorite(ctx context.Context, productID string) (*FavoriteMutation, error) {
	userID, ok := s.currentUser()
	if !ok {
		return nil, ErrUnauthenticated
	}

	unlock := s.lockProduct(productID)
	defer unlock()

	if _, found := s.favoriteMark(productID); found {
		if err := s.store.DeleteFavoriteMark(ctx, userID, productID); err != nil {
			return nil, fmt.Errorf("failed to remove favorite %s: %w", productID, err)
		}
		return &FavoriteMutation{Action: ActionRemoved}, nil
	}

	if _, err := s.store.CreateFavoriteMark(ctx, userID, productID); err != nil {
		return nil, fmt.Errorf("failed to add favorite %s: %w", productID, err)
	}
	return &FavoriteMutation{Action: ActionAdded}, nil
}

// ClearCart deletes every cart line owned by the current user as a single
// all-or-nothing batch.
func (s *Session) ClearCart(ctx context.Context) error {
	userID, ok := s.currentUser()
	if !ok {
		return ErrUnauthenticated
	}
	if err := s.store.ClearCartLines(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// IsInCart reports whether the product has a cart line in the mirror.
func (s *Session) IsInCart(productID string) bool {
	_, found := s.cartLine(productID)
	return found
}

// IsFavorite reports whether the product is marked as a favorite.
func (s *Session) IsFavorite(productID string) bool {
	_, found := s.favoriteMark(productID)
	return found
}

// CartItemQuantity returns the mirrored quantity for the product, 0 if absent.
func (s *Session) CartItemQuantity(productID string) int32 {
	line, found := s.cartLine(productID)
	if !found {
		return 0
	}
	return line.Quantity
}

// CartTotal returns the sum of quantities across all cart lines. This feeds
// the cart-count badge; it is not a price total.
func (s *Session) CartTotal() int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int32
	for _, line := range s.cartLines {
		total += line.Quantity
	}
	return total
}

// CartLines returns a copy of the mirrored cart lines.
func (s *Session) CartLines() []docstore.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines := make([]docstore.CartLine, 0, len(s.cartLines))
	for _, line := range s.cartLines {
		lines = append(lines, line)
	}
	return lines
}

// Favorites returns a copy of the mirrored favorite marks.
func (s *Session) Favorites() []docstore.FavoriteMark {
	s.mu.RLock()
	defer s.mu.RUnlock()
	marks := make([]docstore.FavoriteMark, 0, len(s.favorites))
	for _, mark := range s.favorites {
		marks = append(marks, mark)
	}
	return marks
}

func (s *Session) currentUser() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.userID != ""
}

func (s *Session) cartLine(productID string) (docstore.CartLine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	line, found := s.cartLines[productID]
	return line, found
}

func (s *Session) favoriteMark(productID string) (docstore.FavoriteMark, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mark, found := s.favorites[productID]
	return mark, found
}

// lockProduct acquires the per-product mutation lock and returns the unlock.
func (s *Session) lockProduct(productID string) func() {
	s.opMu.Lock()
	m, ok := s.opLocks[productID]
	if !ok {
		m = &sync.Mutex{}
		s.opLocks[productID] = m
	}
	s.opMu.Unlock()

	m.Lock()
	return m.Unlock
}
