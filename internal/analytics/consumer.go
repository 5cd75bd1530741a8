package analytics

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"

	"github.com/21ahmud/botlyra-backend/internal/messaging"
)

// NewExchangeConsumer creates a consumer that archives answered exchanges.
func NewExchangeConsumer(
	subscriber message.Subscriber,
	store Store,
	logger *zap.Logger,
) *messaging.Consumer[ExchangeRecordedEvent] {
	return messaging.NewConsumer(subscriber, TopicExchangeRecorded,
		func(ctx context.Context, event *ExchangeRecordedEvent) error {
			return store.SaveExchange(ctx, event)
		}, logger)
}

// NewClearedConsumer creates a consumer that drops archived transcripts when
// a conversation (or everything) is cleared.
func NewClearedConsumer(
	subscriber message.Subscriber,
	store Store,
	logger *zap.Logger,
) *messaging.Consumer[ConversationClearedEvent] {
	return messaging.NewConsumer(subscriber, TopicConversationCleared,
		func(ctx context.Context, event *ConversationClearedEvent) error {
			return store.DeleteConversation(ctx, event)
		}, logger)
}
