package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	litcal "github.com/AnandSundar/go-litcal"
)

const (
	defaultPrefix = "litcal:cache:"
	lockTTL       = 30 * time.Second
)

// RedisStore is a Redis-backed implementation of litcal.Store and litcal.Locker
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

var (
	_ litcal.Store  = (*RedisStore)(nil)
	_ litcal.Locker = (*RedisStore)(nil)
)

// NewRedisStore creates a new Redis store
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: defaultPrefix,
	}
}

// NewRedisStoreFromURL connects to a redis:// URL
func NewRedisStoreFromURL(rawURL string) (*RedisStore, *redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opts)
	return NewRedisStore(client), client, nil
}

// Get retrieves a cached response from Redis
func (s *RedisStore) Get(ctx context.Context, key string) (*litcal.CachedResponse, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, litcal.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var response litcal.CachedResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// Set stores a response in Redis with TTL
func (s *RedisStore) Set(ctx context.Context, key string, response *litcal.CachedResponse, ttl time.Duration) error {
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, s.prefix+key, data, ttl).Err()
}

// Has reports whether the key exists and has not expired
func (s *RedisStore) Has(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Lock acquires a distributed lock using Redis
func (s *RedisStore) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := s.prefix + "lock:" + key
	acquired, err := s.client.SetNX(ctx, lockKey, "1", lockTTL).Result()
	if err != nil {
		return nil, err
	}

	if !acquired {
		return nil, litcal.ErrRequestInProgress
	}

	unlock := func() {
		s.client.Del(context.Background(), lockKey)
	}

	return unlock, nil
}
