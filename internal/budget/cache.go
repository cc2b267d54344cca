package budget

import (
	"time"

	"bilancio/internal/cache"
)

// Loader reads a budget configuration from disk.
type Loader func(path string) (*Config, error)

// ConfigCache memoizes loaded budget configurations per path with a TTL
// and an explicit invalidation call. The clock is injected; there is no
// ambient expiry state.
type ConfigCache struct {
	load  Loader
	cache *cache.LRUCache[*Config]
}

// NewConfigCache builds a cache around LoadConfig.
func NewConfigCache(ttl time.Duration, clock cache.Clock) *ConfigCache {
	return NewConfigCacheWithLoader(LoadConfig, ttl, clock)
}

// NewConfigCacheWithLoader builds a cache around a custom loader.
func NewConfigCacheWithLoader(load Loader, ttl time.Duration, clock cache.Clock) *ConfigCache {
	return &ConfigCache{
		load:  load,
		cache: cache.NewLRUCacheWithClock[*Config](8, ttl, clock),
	}
}

// Get returns the cached configuration for path, loading it on a miss or
// after expiry. Load failures are not cached.
func (c *ConfigCache) Get(path string) (*Config, error) {
	if cfg, ok := c.cache.Get(path); ok {
		return cfg, nil
	}
	cfg, err := c.load(path)
	if err != nil {
		return nil, err
	}
	c.cache.Set(path, cfg)
	return cfg, nil
}

// Invalidate drops the cached configuration for path.
func (c *ConfigCache) Invalidate(path string) {
	c.cache.Delete(path)
}
