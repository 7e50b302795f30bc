package cartsync

import (
	"context"
	"log/slog"
	"sync"

	"github.com/honeyfield/storefront/internal/docstore"
	"github.com/honeyfield/storefront/internal/identity"
)

// Manager hands the HTTP layer one Session per authenticated user, created
// lazily on first use. Each session gets its own identity provider fixed to
// that user, so the sessions stay isolated from each other by construction.
//
// TODO: evict sessions idle longer than the auth token lifetime.
type Manager struct {
	store  docstore.Store
	logger *slog.Logger

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	sessions map[string]*Session
}

// NewManager creates a session manager. Sessions live until Close or until
// ctx is cancelled.
func NewManager(ctx context.Context, store docstore.Store, logger *slog.Logger) *Manager {
	mCtx, cancel := context.WithCancel(ctx)
	return &Manager{
		store:    store,
		logger:   logger,
		ctx:      mCtx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
}

// Session returns the session for the given user, creating it on first use.
func (m *Manager) Session(userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[userID]; ok {
		return sess
	}
	sess := Open(m.ctx, m.store, identity.NewMemoryProvider(userID), m.logger)
	m.sessions[userID] = sess
	return sess
}

// Close tears down every session and its subscriptions.
func (m *Manager) Close() {
	m.cancel()
	m.mu.Lock()
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
}
