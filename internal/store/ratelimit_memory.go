package store

import (
	"context"
	"sync"
	"time"
)

// RateLimitMemoryStore is an in-memory implementation of ratelimit.Store.
// Windows are per-key time-ordered timestamp slices; expired entries are
// removed on every admission check so memory stays bounded per key.
type RateLimitMemoryStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		windows: make(map[string][]time.Time),
	}
}

func (s *RateLimitMemoryStore) Admit(_ context.Context, key string, limit int64, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	timestamps := s.windows[key]

	// Timestamps are appended in order, so expiry is a prefix trim. An entry
	// expires once its age strictly exceeds the window.
	start := 0
	for start < len(timestamps) && now.Sub(timestamps[start]) > window {
		start++
	}

	timestamps = timestamps[start:]

	if int64(len(timestamps)) >= limit {
		s.windows[key] = timestamps

		return false, nil
	}

	s.windows[key] = append(timestamps, now)

	return true, nil
}
