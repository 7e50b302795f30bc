package docstore

import (
	"context"
	"sync"
)

// Collection names used in change signals and storage.
const (
	CollectionCartLines     = "cart_lines"
	CollectionFavoriteMarks = "favorite_marks"
)

// Change identifies an owned collection whose contents changed. The signal
// carries no payload: subscribers re-read the collection and work from the
// store's accepted state.
type Change struct {
	Collection string
	OwnerID    string
}

// Notifier fans out change signals to collection subscribers. A process-local
// implementation serves single-instance deployments and tests; the NATS
// implementation keeps multiple storefront instances converging on the same
// per-user snapshots.
type Notifier interface {
	Publish(ctx context.Context, change Change) error
	Subscribe(collection, ownerID string, fn func()) (CancelFunc, error)
}

// LocalNotifier is an in-process Notifier. Signals published on one goroutine
// are delivered synchronously, after the internal lock is released, so a
// mutation's snapshot reaches subscribers before the mutating call returns.
type LocalNotifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func()
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{
		subs: make(map[string]map[int]func()),
	}
}

// Publish invokes every subscriber registered for the changed collection.
func (n *LocalNotifier) Publish(_ context.Context, change Change) error {
	key := subjectKey(change.Collection, change.OwnerID)

	n.mu.Lock()
	fns := make([]func(), 0, len(n.subs[key]))
	for _, fn := range n.subs[key] {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	// Deliver outside the lock: subscribers re-enter the store to list the
	// collection and must not deadlock against Subscribe/cancel.
	for _, fn := range fns {
		fn()
	}
	return nil
}

// Subscribe registers fn for change signals on the owner's collection.
func (n *LocalNotifier) Subscribe(collection, ownerID string, fn func()) (CancelFunc, error) {
	key := subjectKey(collection, ownerID)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs[key] == nil {
		n.subs[key] = make(map[int]func())
	}
	id := n.nextID
	n.nextID++
	n.subs[key][id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs[key], id)
	}, nil
}

func subjectKey(collection, ownerID string) string {
	return collection + "." + ownerID
}
