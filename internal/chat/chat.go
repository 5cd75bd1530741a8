// Package chat contains the conversation domain model and the response
// generation service that coordinates rate limiting, caching, conversation
// memory, the generation engine, and response post-processing.
package chat

import "github.com/21ahmud/botlyra-backend/internal/conversation"

// Sender identifies who produced a turn.
type Sender = conversation.Sender

const (
	SenderUser = conversation.SenderUser
	SenderBot  = conversation.SenderBot
)

// Turn is a single immutable message in a conversation.
type Turn = conversation.Turn

// Key identifies a conversation by its user and bot pair.
type Key = conversation.Key

// ConversationKey builds the canonical key for a user/bot pair.
func ConversationKey(userID, botID string) Key {
	return conversation.ConversationKey(userID, botID)
}

// Source describes where a reply came from.
type Source string

const (
	// SourceModel is a reply produced by the generation engine.
	SourceModel Source = "model"
	// SourceFallback is a canned reply selected when generation failed or
	// produced unacceptable output.
	SourceFallback Source = "fallback"
	// SourceCache is a prior reply replayed from the response cache.
	SourceCache Source = "cache"
)
