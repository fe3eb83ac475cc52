package cache

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/config"
	pkgredis "github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/resilience"
)

// Open builds the store selected by cfg.Cache.Backend. The returned close
// function releases backend connections and is never nil. The Redis store
// is wrapped in a circuit breaker.
func Open(ctx context.Context, cfg *config.Config) (Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return NoopStore{}, noop, nil
	case config.CacheLRU:
		store, err := NewLRUStore(cfg.Cache.Size)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case config.CacheRedis:
		client, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, noop, fmt.Errorf("connecting cache backend: %w", err)
		}
		breaker := resilience.NewBreaker("redis-cache", resilience.Config{})
		return NewGuardedStore(NewRedisStore(client, cfg.Cache.TTL), breaker), client.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}
