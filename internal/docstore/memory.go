package docstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore implements Store using in-memory maps. It backs unit tests and
// local development; production deployments use the PostgreSQL store.
type memoryStore struct {
	mu        sync.RWMutex
	cartLines map[string]map[string]CartLine     // ownerID -> productID -> line
	favorites map[string]map[string]FavoriteMark // ownerID -> productID -> mark
	notifier  *LocalNotifier
}

// NewMemoryStore creates a new in-memory Store with synchronous snapshot delivery.
func NewMemoryStore() Store {
	return &memoryStore{
		cartLines: make(map[string]map[string]CartLine),
		favorites: make(map[string]map[string]FavoriteMark),
		notifier:  NewLocalNotifier(),
	}
}

func (s *memoryStore) AddCartLine(ctx context.Context, ownerID, productID string, delta int32) (*CartLine, error) {
	now := time.Now()

	s.mu.Lock()
	if s.cartLines[ownerID] == nil {
		s.cartLines[ownerID] = make(map[string]CartLine)
	}
	line, ok := s.cartLines[ownerID][productID]
	if ok {
		line.Quantity += delta
		line.UpdatedAt = now
	} else {
		line = CartLine{
			ID:        uuid.New(),
			OwnerID:   ownerID,
			ProductID: productID,
			Quantity:  delta,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	s.cartLines[ownerID][productID] = line
	s.mu.Unlock()

	s.notifyCartLines(ctx, ownerID)
	return &line, nil
}

func (s *memoryStore) SetCartLineQuantity(ctx context.Context, ownerID, productID string, quantity int32) (*CartLine, error) {
	s.mu.Lock()
	line, ok := s.cartLines[ownerID][productID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	line.Quantity = quantity
	line.UpdatedAt = time.Now()
	s.cartLines[ownerID][productID] = line
	s.mu.Unlock()

	s.notifyCartLines(ctx, ownerID)
	return &line, nil
}

func (s *memoryStore) DeleteCartLine(ctx context.Context, ownerID, productID string) error {
	s.mu.Lock()
	_, ok := s.cartLines[ownerID][productID]
	delete(s.cartLines[ownerID], productID)
	s.mu.Unlock()

	if ok {
		s.notifyCartLines(ctx, ownerID)
	}
	return nil
}

func (s *memoryStore) ClearCartLines(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	cleared := len(s.cartLines[ownerID]) > 0
	delete(s.cartLines, ownerID)
	s.mu.Unlock()

	if cleared {
		s.notifyCartLines(ctx, ownerID)
	}
	return nil
}

func (s *memoryStore) ListCartLines(_ context.Context, ownerID string) ([]CartLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cartLinesOf(s.cartLines[ownerID]), nil
}

func (s *memoryStore) CreateFavoriteMark(ctx context.Context, ownerID, productID string) (*FavoriteMark, error) {
	s.mu.Lock()
	if s.favorites[ownerID] == nil {
		s.favorites[ownerID] = make(map[string]FavoriteMark)
	}
	mark, ok := s.favorites[ownerID][productID]
	if !ok {
		mark = FavoriteMark{
			ID:        uuid.New(),
			OwnerID:   ownerID,
			ProductID: productID,
			CreatedAt: time.Now(),
		}
		s.favorites[ownerID][productID] = mark
	}
	s.mu.Unlock()

	if !ok {
		s.notifyFavorites(ctx, ownerID)
	}
	return &mark, nil
}

func (s *memoryStore) DeleteFavoriteMark(ctx context.Context, ownerID, productID string) error {
	s.mu.Lock()
	_, ok := s.favorites[ownerID][productID]
	delete(s.favorites[ownerID], productID)
	s.mu.Unlock()

	if ok {
		s.notifyFavorites(ctx, ownerID)
	}
	return nil
}

func (s *memoryStore) ListFavoriteMarks(_ context.Context, ownerID string) ([]FavoriteMark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return favoriteMarksOf(s.favorites[ownerID]), nil
}

func (s *memoryStore) SubscribeCartLines(ctx context.Context, ownerID string, fn func([]CartLine)) (CancelFunc, error) {
	deliver := func() {
		lines, _ := s.ListCartLines(ctx, ownerID)
		fn(lines)
	}
	cancel, err := s.notifier.Subscribe(CollectionCartLines, ownerID, deliver)
	if err != nil {
		return nil, err
	}
	deliver()
	return cancel, nil
}

func (s *memoryStore) SubscribeFavoriteMarks(ctx context.Context, ownerID string, fn func([]FavoriteMark)) (CancelFunc, error) {
	deliver := func() {
		marks, _ := s.ListFavoriteMarks(ctx, ownerID)
		fn(marks)
	}
	cancel, err := s.notifier.Subscribe(CollectionFavoriteMarks, ownerID, deliver)
	if err != nil {
		return nil, err
	}
	deliver()
	return cancel, nil
}

func (s *memoryStore) notifyCartLines(ctx context.Context, ownerID string) {
	_ = s.notifier.Publish(ctx, Change{Collection: CollectionCartLines, OwnerID: ownerID})
}

func (s *memoryStore) notifyFavorites(ctx context.Context, ownerID string) {
	_ = s.notifier.Publish(ctx, Change{Collection: CollectionFavoriteMarks, OwnerID: ownerID})
}

func cartLinesOf(m map[string]CartLine) []CartLine {
	list := make([]CartLine, 0, len(m))
	for _, line := range m {
		list = append(list, line)
	}
	return list
}

func favoriteMarksOf(m map[string]FavoriteMark) []FavoriteMark {
	list := make([]FavoriteMark, 0, len(m))
	for _, mark := range m {
		list = append(list, mark)
	}
	return list
}
