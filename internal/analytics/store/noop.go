// Package store provides analytics store implementations that do not need
// external infrastructure.
package store

import (
	"context"

	"github.com/21ahmud/botlyra-backend/internal/analytics"
)

// Noop is an analytics.Store that discards everything. Used when no archive
// database is configured and in tests.
type Noop struct{}

// NewNoop creates a new no-op analytics store.
func NewNoop() *Noop {
	return &Noop{}
}

func (*Noop) SaveExchange(_ context.Context, _ *analytics.ExchangeRecordedEvent) error {
	return nil
}

func (*Noop) DeleteConversation(_ context.Context, _ *analytics.ConversationClearedEvent) error {
	return nil
}

// Compile-time check.
var _ analytics.Store = (*Noop)(nil)
