package ratelimit

import (
	"context"
	"time"
)

// Store defines the interface for rate limit window storage.
type Store interface {
	// Admit prunes timestamps older than the window for the key, then
	// records the request and reports true if the key was under the limit.
	// A rejected request leaves no trace beyond the prune.
	Admit(ctx context.Context, key string, limit int64, window time.Duration) (admitted bool, err error)
}
