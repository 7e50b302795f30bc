package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_AddCartLineAccumulates(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	line, err := s.AddCartLine(ctx, "alice", "wildflower", 2)
	require.NoError(t, err)
	assert.Equal(t, int32(2), line.Quantity)
	assert.NotZero(t, line.ID)

	// A second add for the same (owner, product) pair increments the single
	// existing line instead of creating another one.
	line2, err := s.AddCartLine(ctx, "alice", "wildflower", 3)
	require.NoError(t, err)
	assert.Equal(t, int32(5), line2.Quantity)
	assert.Equal(t, line.ID, line2.ID)

	lines, err := s.ListCartLines(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int32(5), lines[0].Quantity)
}

func TestMemoryStore_SetCartLineQuantity(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.SetCartLineQuantity(ctx, "alice", "wildflower", 3)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.AddCartLine(ctx, "alice", "wildflower", 2)
	require.NoError(t, err)

	line, err := s.SetCartLineQuantity(ctx, "alice", "wildflower", 7)
	require.NoError(t, err)
	assert.Equal(t, int32(7), line.Quantity)
}

func TestMemoryStore_DeleteCartLineIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.AddCartLine(ctx, "alice", "wildflower", 2)
	require.NoError(t, err)

	require.NoError(t, s.DeleteCartLine(ctx, "alice", "wildflower"))
	require.NoError(t, s.DeleteCartLine(ctx, "alice", "wildflower"))

	lines, err := s.ListCartLines(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestMemoryStore_ClearCartLines(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.AddCartLine(ctx, "alice", "wildflower", 2)
	require.NoError(t, err)
	_, err = s.AddCartLine(ctx, "alice", "acacia", 1)
	require.NoError(t, err)
	_, err = s.AddCartLine(ctx, "bob", "manuka", 4)
	require.NoError(t, err)

	require.NoError(t, s.ClearCartLines(ctx, "alice"))

	lines, err := s.ListCartLines(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, lines)

	// Other owners are untouched.
	lines, err = s.ListCartLines(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestMemoryStore_CreateFavoriteMarkIsConflictTolerant(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	mark, err := s.CreateFavoriteMark(ctx, "alice", "wildflower")
	require.NoError(t, err)

	again, err := s.CreateFavoriteMark(ctx, "alice", "wildflower")
	require.NoError(t, err)
	assert.Equal(t, mark.ID, again.ID)

	marks, err := s.ListFavoriteMarks(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, marks, 1)
}

func TestMemoryStore_SubscribeCartLinesDeliversSnapshots(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var snapshots [][]CartLine
	cancel, err := s.SubscribeCartLines(ctx, "alice", func(lines []CartLine) {
		snapshots = append(snapshots, lines)
	})
	require.NoError(t, err)
	defer cancel()

	// The initial snapshot arrives on subscribe, before any change.
	require.Len(t, snapshots, 1)
	assert.Empty(t, snapshots[0])

	_, err = s.AddCartLine(ctx, "alice", "wildflower", 2)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	require.Len(t, snapshots[1], 1)
	assert.Equal(t, int32(2), snapshots[1][0].Quantity)

	require.NoError(t, s.DeleteCartLine(ctx, "alice", "wildflower"))
	require.Len(t, snapshots, 3)
	assert.Empty(t, snapshots[2])
}

func TestMemoryStore_SubscriptionsAreScopedToOwner(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var aliceSnapshots int
	cancel, err := s.SubscribeCartLines(ctx, "alice", func([]CartLine) {
		aliceSnapshots++
	})
	require.NoError(t, err)
	defer cancel()
	require.Equal(t, 1, aliceSnapshots)

	_, err = s.AddCartLine(ctx, "bob", "manuka", 1)
	require.NoError(t, err)

	assert.Equal(t, 1, aliceSnapshots, "bob's change must not reach alice's subscription")
}

func TestMemoryStore_CancelStopsDelivery(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var snapshots int
	cancel, err := s.SubscribeFavoriteMarks(ctx, "alice", func([]FavoriteMark) {
		snapshots++
	})
	require.NoError(t, err)
	require.Equal(t, 1, snapshots)

	cancel()

	_, err = s.CreateFavoriteMark(ctx, "alice", "wildflower")
	require.NoError(t, err)
	assert.Equal(t, 1, snapshots)
}

func TestLocalNotifier_PublishReachesOnlyMatchingSubscribers(t *testing.T) {
	n := NewLocalNotifier()
	ctx := context.Background()

	var cartSignals, favoriteSignals int
	cancelCart, err := n.Subscribe(CollectionCartLines, "alice", func() { cartSignals++ })
	require.NoError(t, err)
	defer cancelCart()
	cancelFav, err := n.Subscribe(CollectionFavoriteMarks, "alice", func() { favoriteSignals++ })
	require.NoError(t, err)
	defer cancelFav()

	require.NoError(t, n.Publish(ctx, Change{Collection: CollectionCartLines, OwnerID: "alice"}))
	require.NoError(t, n.Publish(ctx, Change{Collection: CollectionCartLines, OwnerID: "bob"}))

	assert.Equal(t, 1, cartSignals)
	assert.Equal(t, 0, favoriteSignals)
}
