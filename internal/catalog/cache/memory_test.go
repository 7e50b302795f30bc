package cache

import (
	"context"
	"testing"
	"time"

	"github.com/honeyfield/storefront/internal/catalog"
	"github.com/honeyfield/storefront/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetMissWhenEmpty(t *testing.T) {
	c := NewMemory(clock.NewMockClock(time.Now()), 5*time.Minute)

	_, ok, err := c.Get(context.Background())

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_SetThenGet(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	c := NewMemory(clk, 5*time.Minute)
	products := []catalog.Product{{ID: "wildflower"}, {ID: "acacia"}}

	require.NoError(t, c.Set(context.Background(), products))

	got, ok, err := c.Get(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, products, got)
}

func TestMemory_ExpiresAfterTTL(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	c := NewMemory(clk, 5*time.Minute)
	require.NoError(t, c.Set(context.Background(), []catalog.Product{{ID: "wildflower"}}))

	clk.Advance(5*time.Minute - time.Second)
	_, ok, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, ok, "entry should still be fresh just before the TTL")

	clk.Advance(time.Second)
	_, ok, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire exactly at the TTL")
}

func TestMemory_Clear(t *testing.T) {
	clk := clock.NewMockClock(time.Now())
	c := NewMemory(clk, 5*time.Minute)
	require.NoError(t, c.Set(context.Background(), []catalog.Product{{ID: "wildflower"}}))

	require.NoError(t, c.Clear(context.Background()))

	_, ok, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}
