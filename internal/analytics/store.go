package analytics

import "context"

// Store defines the interface for the transcript archive.
type Store interface {
	SaveExchange(ctx context.Context, event *ExchangeRecordedEvent) error
	DeleteConversation(ctx context.Context, event *ConversationClearedEvent) error
}
