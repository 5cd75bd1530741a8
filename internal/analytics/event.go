// Package analytics defines the chat events published by the API server and
// the consumer that archives them.
package analytics

import "time"

const (
	TopicExchangeRecorded    = "chat.exchange.recorded"
	TopicConversationCleared = "chat.conversation.cleared"
)

// ExchangeRecordedEvent is emitted for every answered /predict request.
type ExchangeRecordedEvent struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	BotID        string    `json:"botId"`
	Message      string    `json:"message"`
	Response     string    `json:"response"`
	Source       string    `json:"source"` // model, fallback, or cache
	ModelType    string    `json:"modelType"`
	ProcessingMS int64     `json:"processingMs"`
	ClientIP     string    `json:"clientIp"`
	UserAgent    string    `json:"userAgent"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ConversationClearedEvent is emitted when conversation memory is cleared.
// All=true means every conversation was dropped and UserID/BotID are empty.
type ConversationClearedEvent struct {
	UserID    string    `json:"userId,omitempty"`
	BotID     string    `json:"botId,omitempty"`
	All       bool      `json:"all"`
	ClearedAt time.Time `json:"clearedAt"`
}
