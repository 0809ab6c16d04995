package docmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "docmap:"

// RedisStore persists document maps in Redis. SetNX gives the
// create-if-absent semantics the Store contract requires.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a store over an existing client. A zero ttl keeps
// maps until evicted.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// NewRedisClient dials Redis from a URL like redis://host:6379/0.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("docmap: parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, hash string) (*DocumentMap, error) {
	payload, err := s.client.Get(ctx, redisKeyPrefix+hash).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("docmap: redis get: %w", err)
	}
	var m DocumentMap
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("docmap: decode stored map: %w", err)
	}
	if m.Version != MapVersion {
		return nil, ErrNotFound
	}
	return &m, nil
}

// PutIfAbsent implements Store.
func (s *RedisStore) PutIfAbsent(ctx context.Context, hash string, m *DocumentMap) (*DocumentMap, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("docmap: encode map: %w", err)
	}
	set, err := s.client.SetNX(ctx, redisKeyPrefix+hash, payload, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("docmap: redis setnx: %w", err)
	}
	if set {
		return m, nil
	}
	stored, err := s.Get(ctx, hash)
	if errors.Is(err, ErrNotFound) {
		// Existing value has a stale version; overwrite.
		if err := s.client.Set(ctx, redisKeyPrefix+hash, payload, s.ttl).Err(); err != nil {
			return nil, fmt.Errorf("docmap: redis set: %w", err)
		}
		return m, nil
	}
	if err != nil {
		return nil, err
	}
	return stored, nil
}
