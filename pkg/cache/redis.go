package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces fragment keys in Redis.
const DefaultRedisPrefix = "facets:fragment:"

// RedisStore shares fragments between renderers through Redis.
type RedisStore struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store. A ttl of zero keeps entries
// until they are removed externally, matching the memory store's lifetime.
func NewRedisStore(redisClient *redis.Client, ttl time.Duration) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis:  redisClient,
		prefix: DefaultRedisPrefix,
		ttl:    ttl,
	}
}

// Name implements Store.
func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) key(url string) string {
	return s.prefix + url
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, url string) (*Entry, error) {
	data, err := s.redis.Get(ctx, s.key(url)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	return &entry, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return ErrInvalidEntry
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := s.redis.Set(ctx, s.key(entry.URL), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
