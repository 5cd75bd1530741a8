package store

import (
	"context"
	"sync"
	"time"

	"github.com/21ahmud/botlyra-backend/internal/cache"
)

type cacheEntry struct {
	response  string
	createdAt time.Time
}

// ResponseMemoryStore is an in-memory implementation of cache.Store. Expired
// entries are treated as absent on lookup and lazily overwritten on the next
// write for the same fingerprint; there is no background sweeper.
type ResponseMemoryStore struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

// NewResponseMemoryStore creates an in-memory response cache with the given TTL.
func NewResponseMemoryStore(ttl time.Duration) *ResponseMemoryStore {
	return &ResponseMemoryStore{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func (s *ResponseMemoryStore) Lookup(_ context.Context, fingerprint string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[fingerprint]
	if !ok || time.Since(entry.createdAt) >= s.ttl {
		return "", cache.ErrNotFound
	}

	return entry.response, nil
}

func (s *ResponseMemoryStore) Store(_ context.Context, fingerprint, response string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[fingerprint] = cacheEntry{
		response:  response,
		createdAt: time.Now(),
	}

	return nil
}

func (s *ResponseMemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]cacheEntry)

	return nil
}

func (s *ResponseMemoryStore) Len(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.entries)), nil
}

// Compile-time check.
var _ cache.Store = (*ResponseMemoryStore)(nil)
