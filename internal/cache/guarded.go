package cache

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/resilience"
)

// GuardedStore routes every call through a circuit breaker. While the
// breaker is open calls fail fast with resilience.ErrOpen, which
// QueryCache treats as a miss.
type GuardedStore struct {
	store   Store
	breaker *resilience.Breaker
}

func NewGuardedStore(store Store, breaker *resilience.Breaker) *GuardedStore {
	return &GuardedStore{store: store, breaker: breaker}
}

func (g *GuardedStore) Get(ctx context.Context, key string) ([]string, bool, error) {
	var (
		paths []string
		ok    bool
	)
	err := g.breaker.Do(func() error {
		var err error
		paths, ok, err = g.store.Get(ctx, key)
		return err
	})
	return paths, ok, err
}

func (g *GuardedStore) Set(ctx context.Context, key string, paths []string) error {
	return g.breaker.Do(func() error {
		return g.store.Set(ctx, key, paths)
	})
}

// Purge is skipped while the breaker is open. Entries left behind belong to
// an older generation and can no longer be read.
func (g *GuardedStore) Purge(ctx context.Context) error {
	return g.breaker.Do(func() error {
		return g.store.Purge(ctx)
	})
}

// Ping bypasses the breaker so health checks always see the backend.
func (g *GuardedStore) Ping(ctx context.Context) error {
	if p, ok := g.store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (g *GuardedStore) State() resilience.State {
	return g.breaker.State()
}
