package cache

import (
	"context"
	"errors"
	"path"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/text-file-indexer/pkg/resilience"
)

// fakeRedis is an in-memory stand-in for pkg/redis.Client.
type fakeRedis struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	pingErr error
	gets    int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRedis) Ping(context.Context) error {
	return f.pingErr
}

func (f *fakeRedis) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k := range f.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(f.data, k)
			n++
		}
	}
	return n, nil
}

func TestQueryCache_HitAfterMiss(t *testing.T) {
	store, err := NewLRUStore(16)
	require.NoError(t, err)
	c := New(store)
	ctx := context.Background()

	calls := 0
	compute := func() []string {
		calls++
		return []string{"/a.txt"}
	}

	paths, hit := c.GetOrCompute(ctx, "hello", compute)
	assert.False(t, hit)
	assert.Equal(t, []string{"/a.txt"}, paths)

	paths, hit = c.GetOrCompute(ctx, "hello", compute)
	assert.True(t, hit)
	assert.Equal(t, []string{"/a.txt"}, paths)
	assert.Equal(t, 1, calls)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestQueryCache_InvalidateForcesRecompute(t *testing.T) {
	store, err := NewLRUStore(16)
	require.NoError(t, err)
	c := New(store)
	ctx := context.Background()

	c.GetOrCompute(ctx, "hello", func() []string { return []string{"/old.txt"} })
	c.Invalidate(ctx)

	paths, hit := c.GetOrCompute(ctx, "hello", func() []string { return []string{"/new.txt"} })
	assert.False(t, hit)
	assert.Equal(t, []string{"/new.txt"}, paths)
	assert.Equal(t, 1, store.Len())
}

func TestQueryCache_ReturnsCopies(t *testing.T) {
	store, err := NewLRUStore(16)
	require.NoError(t, err)
	c := New(store)
	ctx := context.Background()

	first, _ := c.GetOrCompute(ctx, "x", func() []string { return []string{"/a.txt"} })
	first[0] = "/tampered"

	second, hit := c.GetOrCompute(ctx, "x", func() []string { return nil })
	require.True(t, hit)
	assert.Equal(t, []string{"/a.txt"}, second)
}

func TestQueryCache_EmptyResultIsNotNil(t *testing.T) {
	c := New(nil)
	paths, hit := c.GetOrCompute(context.Background(), "x", func() []string { return []string{} })
	assert.False(t, hit)
	assert.NotNil(t, paths)
	assert.Empty(t, paths)
}

func TestQueryCache_NoopAlwaysComputes(t *testing.T) {
	c := New(NoopStore{})
	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		c.GetOrCompute(context.Background(), "x", func() []string {
			calls.Add(1)
			return []string{}
		})
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestQueryCache_BackendErrorIsAMiss(t *testing.T) {
	fake := newFakeRedis()
	fake.getErr = errors.New("connection refused")
	c := New(NewRedisStore(fake, time.Minute))

	paths, hit := c.GetOrCompute(context.Background(), "x", func() []string { return []string{"/a.txt"} })
	assert.False(t, hit)
	assert.Equal(t, []string{"/a.txt"}, paths)
}

func TestRedisStore_RoundTripAndPurge(t *testing.T) {
	fake := newFakeRedis()
	store := NewRedisStore(fake, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "0:hello", []string{"/a.txt", "/b.txt"}))
	assert.Equal(t, 30*time.Second, fake.ttls[store.prefix+"0:hello"])

	paths, ok, err := store.Get(ctx, "0:hello")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"/a.txt", "/b.txt"}, paths)

	require.NoError(t, store.Purge(ctx))
	_, ok, err = store.Get(ctx, "0:hello")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_CorruptValue(t *testing.T) {
	fake := newFakeRedis()
	store := NewRedisStore(fake, 0)
	fake.data[store.prefix+"k"] = []byte("not json")
	_, _, err := store.Get(context.Background(), "k")
	require.Error(t, err)
}

func TestQueryCache_SharedBackendIsIsolated(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	shared := NewRedisStore(fake, time.Minute)

	tests := []struct {
		name   string
		storeA Store
		storeB Store
	}{
		{"same store", shared, shared},
		{"same server", NewRedisStore(fake, time.Minute), NewRedisStore(fake, time.Minute)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := New(tt.storeA), New(tt.storeB)

			got, _ := a.GetOrCompute(ctx, "hello", func() []string { return []string{"/a.txt"} })
			require.Equal(t, []string{"/a.txt"}, got)

			got, hit := b.GetOrCompute(ctx, "hello", func() []string { return []string{} })
			assert.False(t, hit)
			assert.Empty(t, got)
		})
	}
}

func TestRedisStore_PurgeKeepsOtherStores(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	mine, theirs := NewRedisStore(fake, 0), NewRedisStore(fake, 0)

	require.NoError(t, mine.Set(ctx, "0:x", []string{"/a.txt"}))
	require.NoError(t, theirs.Set(ctx, "0:x", []string{"/b.txt"}))
	require.NoError(t, mine.Purge(ctx))

	_, ok, err := mine.Get(ctx, "0:x")
	require.NoError(t, err)
	assert.False(t, ok)
	paths, ok, err := theirs.Get(ctx, "0:x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"/b.txt"}, paths)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	cfg.Cache.Backend = config.CacheNone
	store, closeFn, err := Open(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, NoopStore{}, store)
	assert.NoError(t, closeFn())

	cfg.Cache.Backend = config.CacheLRU
	store, _, err = Open(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &LRUStore{}, store)

	cfg.Cache.Backend = "bogus"
	_, closeFn, err = Open(ctx, cfg)
	require.Error(t, err)
	assert.NotNil(t, closeFn)
}

func TestGuardedStore_FailsFastWhenOpen(t *testing.T) {
	fake := newFakeRedis()
	fake.getErr = errors.New("connection refused")
	breaker := resilience.NewBreaker("test", resilience.Config{FailureThreshold: 2, Cooldown: time.Hour})
	c := New(NewGuardedStore(NewRedisStore(fake, 0), breaker))
	compute := func() []string { return []string{"/a.txt"} }

	for i := 0; i < 4; i++ {
		paths, hit := c.GetOrCompute(context.Background(), "x", compute)
		assert.False(t, hit)
		assert.Equal(t, []string{"/a.txt"}, paths)
	}

	assert.Equal(t, resilience.StateOpen, breaker.State())
	fake.mu.Lock()
	defer fake.mu.Unlock()
	// only the calls before the breaker tripped reached the backend
	assert.Equal(t, 2, fake.gets)
}

func TestGuardedStore_PingBypassesBreaker(t *testing.T) {
	fake := newFakeRedis()
	g := NewGuardedStore(NewRedisStore(fake, 0), resilience.NewBreaker("test", resilience.Config{}))
	assert.NoError(t, g.Ping(context.Background()))

	fake.pingErr = errors.New("down")
	assert.Error(t, g.Ping(context.Background()))
	assert.Equal(t, resilience.StateClosed, g.State())
}
