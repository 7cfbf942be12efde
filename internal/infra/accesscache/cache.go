package accesscache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache is a best-effort cache-aside layer for trainer→client access checks.
// Any redis failure degrades to a miss; callers fall back to a direct DB
// lookup and the answer is still correct, just slower.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// New returns a degraded (always-miss) cache when addr is empty, so the rest
// of the app does not need to care whether redis is configured.
func New(addr, password string, ttl time.Duration, log zerolog.Logger) *Cache {
	c := &Cache{ttl: ttl, log: log}
	if addr == "" {
		return c
	}
	c.rdb = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	return c
}

func key(trainerID, clientID uint) string {
	return fmt.Sprintf("access:%d:%d", trainerID, clientID)
}

// Get returns (allowed, ok). ok=false means cache miss or redis trouble.
func (c *Cache) Get(ctx context.Context, trainerID, clientID uint) (bool, bool) {
	if c == nil || c.rdb == nil {
		return false, false
	}
	val, err := c.rdb.Get(ctx, key(trainerID, clientID)).Result()
	if err == redis.Nil {
		return false, false
	}
	if err != nil {
		c.log.Warn().Err(err).Msg("access cache get failed, falling back to db")
		return false, false
	}
	return val == "1", true
}

func (c *Cache) Set(ctx context.Context, trainerID, clientID uint, allowed bool) {
	if c == nil || c.rdb == nil {
		return
	}
	val := "0"
	if allowed {
		val = "1"
	}
	if err := c.rdb.Set(ctx, key(trainerID, clientID), val, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("access cache set failed")
	}
}

func (c *Cache) Invalidate(ctx context.Context, trainerID, clientID uint) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, key(trainerID, clientID)).Err(); err != nil {
		c.log.Warn().Err(err).Msg("access cache invalidate failed")
	}
}
