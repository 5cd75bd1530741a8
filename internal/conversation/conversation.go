// Package conversation holds the conversation value types shared by the
// chat domain core and its sibling stores (cache, memory). They live in a
// leaf package so those siblings can reference them without importing the
// chat package itself.
package conversation

import "time"

// Sender identifies who produced a turn.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Turn is a single immutable message in a conversation.
type Turn struct {
	Sender    Sender    `json:"sender"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Key identifies a conversation by its user and bot pair.
type Key string

// ConversationKey builds the canonical key for a user/bot pair.
func ConversationKey(userID, botID string) Key {
	return Key(userID + ":" + botID)
}
