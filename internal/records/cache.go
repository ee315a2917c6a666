package records

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a read-through cache for per-user collection reads. Keys always
// embed the user id, so entries are never shared across users, and every write
// to a table invalidates that user's entry immediately. A nil *Cache is a
// valid no-op cache.
type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache builds a Cache with the given entry lifetime.
func NewCache(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func cacheKey(table string, userID uint) string {
	return fmt.Sprintf("cache:%s:%d", table, userID)
}

// Get loads a cached collection into dest, reporting whether it was a hit.
// Cache failures count as misses; the read falls through to the database.
func (c *Cache) Get(ctx context.Context, table string, userID uint, dest any) bool {
	if c == nil || c.client == nil {
		return false
	}
	raw, err := c.client.Get(ctx, cacheKey(table, userID)).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("cache entry corrupt, dropping",
			slog.String("table", table),
			slog.Uint64("user_id", uint64(userID)),
			slog.Any("error", err),
		)
		c.Invalidate(ctx, table, userID)
		return false
	}
	return true
}

// Set stores a collection snapshot; failures are logged and ignored.
func (c *Cache) Set(ctx context.Context, table string, userID uint, value any) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(table, userID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed",
			slog.String("table", table),
			slog.Any("error", err),
		)
	}
}

// Invalidate removes the user's entry for a table.
func (c *Cache) Invalidate(ctx context.Context, table string, userID uint) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, cacheKey(table, userID)).Err(); err != nil {
		c.logger.Warn("cache invalidate failed",
			slog.String("table", table),
			slog.Any("error", err),
		)
	}
}
