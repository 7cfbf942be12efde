package accesscache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestDegradedCacheAlwaysMisses(t *testing.T) {
	c := New("", "", 5*time.Minute, zerolog.Nop())
	ctx := context.Background()

	allowed, ok := c.Get(ctx, 1, 2)
	assert.False(t, ok)
	assert.False(t, allowed)

	// Writes and invalidations are silent no-ops without redis.
	c.Set(ctx, 1, 2, true)
	c.Invalidate(ctx, 1, 2)

	allowed, ok = c.Get(ctx, 1, 2)
	assert.False(t, ok)
	assert.False(t, allowed)
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	allowed, ok := c.Get(ctx, 1, 2)
	assert.False(t, ok)
	assert.False(t, allowed)
	c.Set(ctx, 1, 2, true)
	c.Invalidate(ctx, 1, 2)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "access:7:42", key(7, 42))
}
