package store

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// admitScript prunes expired timestamps, then appends the new one only while
// the window still has room. Prune, count, and add run as one script so
// concurrent callers and replicas cannot each read a free slot and all take
// it. KEYS[1] is the window key; ARGV is cutoff (ns), limit, score (ns),
// member, TTL (ms). Returns 1 when admitted.
var admitScript = redis.NewScript(`
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", "(" .. ARGV[1])
if redis.call("ZCARD", KEYS[1]) >= tonumber(ARGV[2]) then
	return 0
end
redis.call("ZADD", KEYS[1], ARGV[3], ARGV[4])
redis.call("PEXPIRE", KEYS[1], ARGV[5])
return 1
`)

// RateLimitRedisStore is a Redis-backed implementation of ratelimit.Store
// using a sorted set of request timestamps per key. It lets multiple server
// replicas share one admission window.
type RateLimitRedisStore struct {
	client *redis.Client
	prefix string
}

// NewRateLimitRedisStore creates a new Redis-backed rate limit store.
func NewRateLimitRedisStore(client *redis.Client) *RateLimitRedisStore {
	return &RateLimitRedisStore{
		client: client,
		prefix: "ratelimit:",
	}
}

func (s *RateLimitRedisStore) Admit(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	now := time.Now()
	cutoff := now.Add(-window)

	// The member carries a random suffix; admissions sharing a nanosecond
	// must still occupy distinct sorted-set entries.
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString()

	admitted, err := admitScript.Run(ctx, s.client, []string{s.prefix + key},
		cutoff.UnixNano(),
		limit,
		now.UnixNano(),
		member,
		window.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}

	return admitted == 1, nil
}
