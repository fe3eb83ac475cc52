// Package cache memoises query results. Every index mutation bumps a
// generation number that is part of each key, so results computed before a
// mutation can never be served after it. Keys also carry a namespace unique
// to each QueryCache, so caches sharing a backend never see each other's
// entries.
package cache

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

type QueryCache struct {
	store      Store
	namespace  string
	group      singleflight.Group
	generation atomic.Uint64
	logger     *slog.Logger
	hits       atomic.Int64
	misses     atomic.Int64
}

func New(store Store) *QueryCache {
	if store == nil {
		store = NoopStore{}
	}
	return &QueryCache{
		store:     store,
		namespace: uuid.NewString(),
		logger:    slog.Default().With("component", "query-cache"),
	}
}

// GetOrCompute returns the cached paths for term, or runs computeFn once
// for all concurrent callers asking for the same term. Backend failures are
// logged and treated as misses; they never fail the query.
func (c *QueryCache) GetOrCompute(ctx context.Context, term string, computeFn func() []string) ([]string, bool) {
	key := c.buildKey(term)
	if paths, ok := c.get(ctx, key); ok {
		c.hits.Add(1)
		return clone(paths), true
	}
	c.misses.Add(1)

	val, _, _ := c.group.Do(key, func() (interface{}, error) {
		if paths, ok := c.get(ctx, key); ok {
			return paths, nil
		}
		paths := computeFn()
		if err := c.store.Set(ctx, key, paths); err != nil {
			c.logger.Error("cache set failed", "key", key, "error", err)
		}
		return paths, nil
	})
	paths := val.([]string)
	return clone(paths), false
}

// Invalidate makes every previously cached result unreachable and asks the
// backend to drop them.
func (c *QueryCache) Invalidate(ctx context.Context) {
	c.generation.Add(1)
	if err := c.store.Purge(ctx); err != nil {
		c.logger.Error("cache purge failed", "error", err)
		return
	}
	c.logger.Debug("cache invalidated", "generation", c.generation.Load())
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) get(ctx context.Context, key string) ([]string, bool) {
	paths, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Error("cache get failed", "key", key, "error", err)
		return nil, false
	}
	return paths, ok
}

func (c *QueryCache) buildKey(term string) string {
	return c.namespace + ":" + strconv.FormatUint(c.generation.Load(), 10) + ":" + term
}
