// Package cache is a JSON value cache with a Redis backend and an in-process
// fallback. Connect selects Redis when it answers a ping; until then every
// call goes to the memory store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/perennia/storefront/config"
	"github.com/perennia/storefront/pkg/metrics"
)

// ErrMiss is returned by Store.Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Store is a byte-oriented TTL store.
type Store interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DelPrefix(ctx context.Context, prefix string) error
}

var (
	// RDB is non-nil once Connect reached Redis. The queue driver shares it.
	RDB *redis.Client

	mu    sync.RWMutex
	store Store = NewMemoryStore()
)

// Connect initialises the Redis client and verifies it with a ping. On error
// the memory store stays active and the caller decides whether to warn.
func Connect() error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("cache: redis ping: %w", err)
	}

	RDB = client
	Use(&RedisStore{client: client})
	return nil
}

// Use swaps the active store.
func Use(s Store) {
	mu.Lock()
	store = s
	mu.Unlock()
}

func current() Store {
	mu.RLock()
	defer mu.RUnlock()
	return store
}

// Get unmarshals the cached value for key into dest and reports a hit.
func Get(ctx context.Context, key string, dest interface{}) bool {
	s := current()
	raw, err := s.Get(ctx, key)
	if err != nil || json.Unmarshal(raw, dest) != nil {
		metrics.CacheMisses.WithLabelValues(s.Name()).Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues(s.Name()).Inc()
	return true
}

// Set stores value as JSON under key for ttl.
func Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}
	return current().Set(ctx, key, data, ttl)
}

// Del removes one or more keys.
func Del(ctx context.Context, keys ...string) error {
	return current().Del(ctx, keys...)
}

// Forget removes every key that starts with prefix.
func Forget(ctx context.Context, prefix string) error {
	return current().DelPrefix(ctx, prefix)
}

// Remember returns the cached value for key, or calls fn, caches its result
// and returns it.
func Remember[T any](ctx context.Context, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	var v T
	if Get(ctx, key, &v) {
		return v, nil
	}
	v, err := fn()
	if err != nil {
		return v, err
	}
	_ = Set(ctx, key, v, ttl)
	return v, nil
}

// ─── Redis ────────────────────────────────────────────────────────────────────

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore { return &RedisStore{client: client} }

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return val, err
}

func (s *RedisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, val, ttl).Err()
}

func (s *RedisStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *RedisStore) DelPrefix(ctx context.Context, prefix string) error {
	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache: scan %s*: %w", prefix, err)
	}
	return s.Del(ctx, keys...)
}

// ─── Memory ───────────────────────────────────────────────────────────────────

type entry struct {
	val       []byte
	expiresAt time.Time // zero = never
}

type MemoryStore struct {
	mu    sync.Mutex
	items map[string]entry
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{items: map[string]entry{}} }

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	if !ok {
		return nil, ErrMiss
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(s.items, key)
		return nil, ErrMiss
	}
	return e.val, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	e := entry{val: append([]byte(nil), val...)}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.items[key] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.items, k)
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DelPrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	for k := range s.items {
		if strings.HasPrefix(k, prefix) {
			delete(s.items, k)
		}
	}
	s.mu.Unlock()
	return nil
}
