// Package sysinfo caches the backend's get_system_info result for the
// System page and the uptime estimate.
package sysinfo

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/rileyhilliard/karasu/internal/backend"
	"github.com/rileyhilliard/karasu/internal/errors"
	"github.com/rileyhilliard/karasu/internal/logger"
)

const (
	// DefaultTTL is how long a lookup is reused.
	DefaultTTL = 60 * time.Second

	infoKey = "system_info"

	numCounters = 1e3
	maxCost     = 1 << 10
	bufferItems = 64
)

// Source performs the lookup.
type Source interface {
	SystemInfo(ctx context.Context) (*backend.SystemInfo, error)
}

// Cache wraps Source with a TTL cache.
type Cache struct {
	src   Source
	ttl   time.Duration
	log   logger.Logger
	cache *ristretto.Cache
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) { c.log = l }
}

// New creates a cache. A non-positive ttl uses DefaultTTL.
func New(src Source, ttl time.Duration, opts ...Option) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	rc, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: bufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	c := &Cache{src: src, ttl: ttl, log: logger.Noop(), cache: rc}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get returns the cached info, fetching it when absent or expired.
func (c *Cache) Get(ctx context.Context) (backend.SystemInfo, error) {
	if info, ok := c.cached(); ok {
		return info, nil
	}

	info, err := c.src.SystemInfo(ctx)
	if err != nil {
		c.log.Debug("sysinfo: lookup failed: %s", errors.Short(err))
		return backend.SystemInfo{}, err
	}

	c.cache.SetWithTTL(infoKey, *info, 1, c.ttl)
	c.cache.Wait()
	return *info, nil
}

// BootTime returns the cached boot time without contacting the backend.
// Zero when nothing is cached.
func (c *Cache) BootTime() time.Time {
	info, ok := c.cached()
	if !ok {
		return time.Time{}
	}
	return info.BootTime
}

// Invalidate drops the cached entry.
func (c *Cache) Invalidate() {
	c.cache.Del(infoKey)
}

// Close releases the cache.
func (c *Cache) Close() {
	c.cache.Close()
}

func (c *Cache) cached() (backend.SystemInfo, bool) {
	v, ok := c.cache.Get(infoKey)
	if !ok {
		return backend.SystemInfo{}, false
	}
	info, ok := v.(backend.SystemInfo)
	return info, ok
}
