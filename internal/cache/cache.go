// Package cache defines the response cache contract used to deduplicate
// repeated identical requests within a time window.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/21ahmud/botlyra-backend/internal/conversation"
)

// ErrNotFound is returned by Lookup when no live entry exists.
var ErrNotFound = errors.New("cache entry not found")

// Store is a time-bounded response cache keyed by fingerprint. Entries older
// than the store's TTL are treated as absent on lookup; Store overwrites
// unconditionally (last-writer-wins).
type Store interface {
	Lookup(ctx context.Context, fingerprint string) (string, error)
	Store(ctx context.Context, fingerprint, response string) error
	// Clear drops every entry.
	Clear(ctx context.Context) error
	// Len reports the number of entries currently held, including entries
	// that expired but have not been overwritten yet.
	Len(ctx context.Context) (int64, error)
}

// Fingerprint derives the cache key for an input message within a
// conversation. It is a pure function of the trimmed input text and the
// conversation key: identical requests map to identical fingerprints across
// calls and across processes.
func Fingerprint(input string, key conversation.Key) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(input) + ":" + string(key)))

	return hex.EncodeToString(sum[:])
}
