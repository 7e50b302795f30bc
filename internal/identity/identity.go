// Package identity abstracts the hosted authentication provider down to the
// only thing the sync layer needs: the current user id, or none, and a way to
// observe changes to it.
package identity

import (
	"context"
	"sync"
)

// Provider reports the current authenticated user.
type Provider interface {
	// UserID returns the current user id. ok is false when nobody is signed in.
	UserID() (id string, ok bool)

	// Watch returns a channel that receives the new user id whenever the
	// authenticated user changes; an empty string means signed out. Only the
	// most recent change is retained for a slow receiver. The channel is
	// valid until ctx is cancelled.
	Watch(ctx context.Context) <-chan string
}

// MemoryProvider is an in-process Provider. The HTTP layer uses one per
// verified user; tests drive user switches through SetUser and SignOut.
type MemoryProvider struct {
	mu       sync.Mutex
	userID   string
	nextID   int
	watchers map[int]chan string
}

// NewMemoryProvider creates a provider with the given initial user.
// An empty id means signed out.
func NewMemoryProvider(userID string) *MemoryProvider {
	return &MemoryProvider{
		userID:   userID,
		watchers: make(map[int]chan string),
	}
}

func (p *MemoryProvider) UserID() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.userID, p.userID != ""
}

// SetUser switches the authenticated user and notifies watchers.
func (p *MemoryProvider) SetUser(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.userID == userID {
		return
	}
	p.userID = userID
	for _, w := range p.watchers {
		// Coalesce: drop an undelivered older value so the watcher always
		// sees the latest user.
		select {
		case <-w:
		default:
		}
		w <- userID
	}
}

// SignOut clears the authenticated user and notifies watchers.
func (p *MemoryProvider) SignOut() {
	p.SetUser("")
}

func (p *MemoryProvider) Watch(ctx context.Context) <-chan string {
	ch := make(chan string, 1)

	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.watchers[id] = ch
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		p.mu.Lock()
		delete(p.watchers, id)
		p.mu.Unlock()
	}()

	return ch
}
