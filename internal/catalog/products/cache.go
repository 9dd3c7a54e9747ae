package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "catalog:products:version"

// Cache stores assembled product details in Redis under versioned keys.
// A nil Cache or one without a client never hits.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// version returns the current cache version, initialising when missing.
func (c *Cache) version(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, cacheVersionKey).Int64()
	}
	return ver, err
}

func (c *Cache) detailKey(ctx context.Context, id int64) (string, error) {
	ver, err := c.version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("catalog:products:detail:%d:%d", id, ver), nil
}

// Detail returns the cached detail for id, or nil on a miss, together with
// the key read under the current version. Pass that key to StoreDetailAt so a
// value loaded before a Bump is written under the version that Bump retired.
func (c *Cache) Detail(ctx context.Context, id int64) (*Detail, string, error) {
	if !c.enabled() {
		return nil, "", nil
	}
	key, err := c.detailKey(ctx, id)
	if err != nil {
		return nil, "", err
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, key, nil
	}
	if err != nil {
		return nil, key, err
	}
	var d Detail
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, key, err
	}
	return &d, key, nil
}

// StoreDetailAt caches d under key until the TTL expires. An empty key is a
// no-op.
func (c *Cache) StoreDetailAt(ctx context.Context, key string, d *Detail) error {
	if !c.enabled() || key == "" || d == nil {
		return nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Bump invalidates every cached entry by incrementing the version.
func (c *Cache) Bump(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}
