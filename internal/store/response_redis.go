package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/21ahmud/botlyra-backend/internal/cache"
)

// ResponseRedisStore is a Redis-backed implementation of cache.Store using
// native key TTLs, for deployments where replicas should share the
// deduplication window.
type ResponseRedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewResponseRedisStore creates a Redis-backed response cache with the given TTL.
func NewResponseRedisStore(client *redis.Client, ttl time.Duration) *ResponseRedisStore {
	return &ResponseRedisStore{
		client: client,
		prefix: "response:",
		ttl:    ttl,
	}
}

func (s *ResponseRedisStore) Lookup(ctx context.Context, fingerprint string) (string, error) {
	response, err := s.client.Get(ctx, s.prefix+fingerprint).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", cache.ErrNotFound
		}

		return "", err
	}

	return response, nil
}

func (s *ResponseRedisStore) Store(ctx context.Context, fingerprint, response string) error {
	return s.client.Set(ctx, s.prefix+fingerprint, response, s.ttl).Err()
}

func (s *ResponseRedisStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()

	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}

	return iter.Err()
}

func (s *ResponseRedisStore) Len(ctx context.Context) (int64, error) {
	var count int64

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}

	return count, iter.Err()
}

// Compile-time check.
var _ cache.Store = (*ResponseRedisStore)(nil)
