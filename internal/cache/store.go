package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Store is a key/value backend for query results.
type Store interface {
	Get(ctx context.Context, key string) ([]string, bool, error)
	Set(ctx context.Context, key string, paths []string) error
	Purge(ctx context.Context) error
}

// NoopStore never holds anything; every lookup is a miss.
type NoopStore struct{}

func (NoopStore) Get(context.Context, string) ([]string, bool, error) { return nil, false, nil }
func (NoopStore) Set(context.Context, string, []string) error        { return nil }
func (NoopStore) Purge(context.Context) error                        { return nil }

// LRUStore keeps the most recently used results in process memory.
type LRUStore struct {
	cache *lru.Cache[string, []string]
}

func NewLRUStore(size int) (*LRUStore, error) {
	c, err := lru.New[string, []string](size)
	if err != nil {
		return nil, fmt.Errorf("creating lru cache: %w", err)
	}
	return &LRUStore{cache: c}, nil
}

func (s *LRUStore) Get(_ context.Context, key string) ([]string, bool, error) {
	paths, ok := s.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	return clone(paths), true, nil
}

func (s *LRUStore) Set(_ context.Context, key string, paths []string) error {
	s.cache.Add(key, clone(paths))
	return nil
}

func (s *LRUStore) Purge(context.Context) error {
	s.cache.Purge()
	return nil
}

func (s *LRUStore) Len() int {
	return s.cache.Len()
}

// RedisClient is the subset of pkg/redis.Client used by RedisStore.
type RedisClient interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
	Ping(ctx context.Context) error
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

const redisKeyPrefix = "textindex:query:"

// RedisStore keeps results in Redis under a prefix unique to the store, so
// Purge only drops this store's keys when several processes share a server.
// Values are JSON arrays of paths.
type RedisStore struct {
	client RedisClient
	ttl    time.Duration
	prefix string
}

func NewRedisStore(client RedisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		prefix: redisKeyPrefix + uuid.NewString() + ":",
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]string, bool, error) {
	data, ok, err := s.client.Get(ctx, s.prefix+key)
	if err != nil || !ok {
		return nil, false, err
	}
	var paths []string
	if err := json.Unmarshal(data, &paths); err != nil {
		return nil, false, fmt.Errorf("decoding cached paths for %q: %w", key, err)
	}
	return paths, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, paths []string) error {
	data, err := json.Marshal(paths)
	if err != nil {
		return fmt.Errorf("encoding paths for %q: %w", key, err)
	}
	return s.client.Set(ctx, s.prefix+key, data, s.ttl)
}

func (s *RedisStore) Purge(ctx context.Context) error {
	_, err := s.client.FlushByPattern(ctx, s.prefix+"*")
	return err
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// clone copies paths so callers can never alias cached slices. The result is
// never nil.
func clone(paths []string) []string {
	out := make([]string, len(paths))
	copy(out, paths)
	return out
}
