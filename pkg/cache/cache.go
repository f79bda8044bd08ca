package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/orderdesk-backend/pkg/logger"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Key prefixes for cached upstream documents.
const (
	PrefixSettings = "settings"
	PrefixSeller   = "seller"
	PrefixCatalog  = "catalog"
	PrefixVariants = "variants"
	PrefixAddons   = "addons"
	PrefixUsers    = "users"
)

// Remote is the shared second tier, usually redis.
type Remote interface {
	Get(context.Context, string) (string, error)
	Set(context.Context, string, any, time.Duration) error
	Del(context.Context, ...string) error
	CacheKey(kind string, parts ...string) string
}

// Cache keeps upstream reads in process memory and optionally in a shared
// remote store. Entries are stored as JSON so both tiers hold the same bytes.
type Cache struct {
	local    *gocache.Cache
	remote   Remote
	localTTL time.Duration
	logg     *logger.Logger
}

// New builds a cache. remote may be nil for a process-local cache.
func New(remote Remote, localTTL, cleanup time.Duration, logg *logger.Logger) *Cache {
	return &Cache{
		local:    gocache.New(localTTL, cleanup),
		remote:   remote,
		localTTL: localTTL,
		logg:     logg,
	}
}

// Key builds a namespaced cache key.
func (c *Cache) Key(kind string, parts ...string) string {
	if c.remote != nil {
		return c.remote.CacheKey(kind, parts...)
	}
	clean := []string{kind}
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	return strings.Join(clean, ":")
}

// Invalidate drops key from both tiers.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	c.local.Delete(key)
	if c.remote == nil {
		return
	}
	if err := c.remote.Del(ctx, key); err != nil {
		c.warn(ctx, "cache.invalidate_failed", key, err)
	}
}

func (c *Cache) localGet(key string) ([]byte, bool) {
	raw, ok := c.local.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := raw.([]byte)
	return b, ok
}

func (c *Cache) remoteGet(ctx context.Context, key string) ([]byte, bool) {
	if c.remote == nil {
		return nil, false
	}
	value, err := c.remote.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.warn(ctx, "cache.remote_get_failed", key, err)
		}
		return nil, false
	}
	return []byte(value), true
}

func (c *Cache) store(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	localTTL := c.localTTL
	if ttl > 0 && ttl < localTTL {
		localTTL = ttl
	}
	c.local.Set(key, payload, localTTL)
	if c.remote == nil {
		return
	}
	if err := c.remote.Set(ctx, key, string(payload), ttl); err != nil {
		c.warn(ctx, "cache.remote_set_failed", key, err)
	}
}

func (c *Cache) warn(ctx context.Context, msg, key string, err error) {
	if c.logg == nil {
		return
	}
	ctx = c.logg.WithFields(ctx, map[string]any{"cache_key": key, "error": err.Error()})
	c.logg.Warn(ctx, msg)
}

// GetOrLoad returns the cached value for key, calling load on a miss and
// storing its result for ttl. Cache failures degrade to calling load.
func GetOrLoad[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}

	if raw, ok := c.localGet(key); ok {
		var out T
		if err := json.Unmarshal(raw, &out); err == nil {
			return out, nil
		}
		c.local.Delete(key)
	}

	if raw, ok := c.remoteGet(ctx, key); ok {
		var out T
		if err := json.Unmarshal(raw, &out); err == nil {
			c.local.Set(key, raw, c.localTTL)
			return out, nil
		}
	}

	out, err := load(ctx)
	if err != nil {
		return out, err
	}
	payload, err := json.Marshal(out)
	if err != nil {
		return out, fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	c.store(ctx, key, payload, ttl)
	return out, nil
}
