package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheTTL = 2 * time.Minute

// Cache stores built trial balances in Redis under a generation-scoped key.
// Bust bumps the generation instead of scanning for keys; stale entries
// expire on their own TTL.
type Cache struct {
	client *redis.Client
	prefix string
}

// NewCache constructs the report cache.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client, prefix: "gl:reports"}
}

func (c *Cache) generation(ctx context.Context) int64 {
	gen, err := c.client.Get(ctx, c.prefix+":gen").Int64()
	if err != nil {
		return 0
	}
	return gen
}

func (c *Cache) key(ctx context.Context, key string) string {
	return fmt.Sprintf("%s:%d:%s", c.prefix, c.generation(ctx), key)
}

// GetTrialBalance returns a cached report if present in the current generation.
func (c *Cache) GetTrialBalance(ctx context.Context, key string) (TrialBalance, bool) {
	if c == nil || c.client == nil {
		return TrialBalance{}, false
	}
	payload, err := c.client.Get(ctx, c.key(ctx, key)).Bytes()
	if err != nil {
		return TrialBalance{}, false
	}
	var tb TrialBalance
	if err := json.Unmarshal(payload, &tb); err != nil {
		return TrialBalance{}, false
	}
	return tb, true
}

// SetTrialBalance stores a built report. Failures are ignored; the cache is
// best effort.
func (c *Cache) SetTrialBalance(ctx context.Context, key string, tb TrialBalance) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(tb)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.key(ctx, key), payload, cacheTTL).Err()
}

// Bust invalidates every cached report by bumping the generation.
func (c *Cache) Bust(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Incr(ctx, c.prefix+":gen").Err()
}
