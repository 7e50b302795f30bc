package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProvider_UserID(t *testing.T) {
	p := NewMemoryProvider("alice")
	id, ok := p.UserID()
	assert.True(t, ok)
	assert.Equal(t, "alice", id)

	p = NewMemoryProvider("")
	_, ok = p.UserID()
	assert.False(t, ok)
}

func TestMemoryProvider_WatchReceivesChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := NewMemoryProvider("alice")
	ch := p.Watch(ctx)

	p.SetUser("bob")

	select {
	case got := <-ch:
		assert.Equal(t, "bob", got)
	case <-time.After(time.Second):
		t.Fatal("expected a user change notification")
	}
}

func TestMemoryProvider_SignOutNotifiesEmptyID(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := NewMemoryProvider("alice")
	ch := p.Watch(ctx)

	p.SignOut()

	select {
	case got := <-ch:
		assert.Equal(t, "", got)
	case <-time.After(time.Second):
		t.Fatal("expected a sign-out notification")
	}

	_, ok := p.UserID()
	assert.False(t, ok)
}

func TestMemoryProvider_SetSameUserIsNotReported(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := NewMemoryProvider("alice")
	ch := p.Watch(ctx)

	p.SetUser("alice")

	select {
	case got := <-ch:
		t.Fatalf("unexpected notification for unchanged user: %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryProvider_SlowWatcherSeesLatestUser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := NewMemoryProvider("alice")
	ch := p.Watch(ctx)

	// Two switches before the watcher reads: the stale value is coalesced
	// away and only the latest user is delivered.
	p.SetUser("bob")
	p.SetUser("carol")

	select {
	case got := <-ch:
		require.Equal(t, "carol", got)
	case <-time.After(time.Second):
		t.Fatal("expected a user change notification")
	}

	select {
	case got := <-ch:
		t.Fatalf("expected no further notifications, got %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}
