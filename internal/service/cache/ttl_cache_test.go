package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCache(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	c := NewTTLCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.SetBytes(ctx, "a", []byte("1"), time.Second))
	require.NoError(t, c.SetBytes(ctx, "b", []byte("2"), 0))

	b, ok, err := c.GetBytes(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), b)

	now = now.Add(2 * time.Second)
	_, ok, _ = c.GetBytes(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = c.GetBytes(ctx, "b")
	assert.True(t, ok, "zero ttl never expires")
	assert.Equal(t, 1, c.Len())

	_, ok, err = c.GetBytes(ctx, "missing")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestTTLCacheSweepsStaleKeysOnWrite(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	c := NewTTLCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.SetBytes(ctx, "pinned", []byte("p"), 0))
	for i := 0; i < 1000; i++ {
		key := fmt.Sprintf("history:BTC:minute:10:%d", i)
		require.NoError(t, c.SetBytes(ctx, key, []byte("x"), 30*time.Second))
		now = now.Add(time.Minute)
	}
	assert.Equal(t, 2, c.Len(), "only the latest bucket and the non-expiring key remain")

	// writes inside the sweep interval keep live entries
	require.NoError(t, c.SetBytes(ctx, "fresh", []byte("f"), time.Hour))
	now = now.Add(10 * time.Second)
	require.NoError(t, c.SetBytes(ctx, "fresh2", []byte("f"), time.Hour))
	_, ok, _ := c.GetBytes(ctx, "fresh")
	assert.True(t, ok)
}
