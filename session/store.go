package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed record store. Each key holds one encoded
// [Record] whose Redis TTL matches the remaining session lifetime, so once
// Redis evicts the key an expired session reads as [ErrNotFound]. A record
// read before eviction is returned as stored, expired or not.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore creates a [RedisStore]. prefix sets the Redis key namespace.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "gs"
	}
	return &RedisStore{
		redis:  client,
		prefix: prefix,
	}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":" + key
}

// Save writes rec under key. A non-positive ttl stores the record without expiry.
//
//	Performance: 1 Redis command (SET).
func (s *RedisStore) Save(ctx context.Context, key string, rec *Record, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}

	data, err := Encode(rec)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}

	if err := s.redis.Set(ctx, s.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Load reads the record stored under key.
//
//	Performance: 1 Redis command (GET).
func (s *RedisStore) Load(ctx context.Context, key string) (*Record, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	data, err := s.redis.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return Decode(data)
}

// Delete removes the record stored under key. Deleting a missing key is not an error.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
