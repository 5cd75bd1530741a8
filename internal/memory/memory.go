// Package memory implements bounded per-conversation turn history.
package memory

import (
	"sync"

	"github.com/21ahmud/botlyra-backend/internal/chat"
)

type record struct {
	turns   []chat.Turn
	context map[string]any // opaque bot context supplied at creation
}

// Store keeps a bounded ordered turn history per conversation key. Each
// conversation holds at most 2×maxHistory turns; appending past capacity
// evicts the oldest turns first. Conversations live for the lifetime of the
// process unless cleared explicitly.
type Store struct {
	mu         sync.Mutex
	records    map[chat.Key]*record
	maxHistory int
}

// NewStore creates a conversation memory store keeping up to maxHistory
// exchanges (user+bot turn pairs) per conversation.
func NewStore(maxHistory int) *Store {
	return &Store{
		records:    make(map[chat.Key]*record),
		maxHistory: maxHistory,
	}
}

// Capacity returns the maximum number of turns kept per conversation.
func (s *Store) Capacity() int {
	return 2 * s.maxHistory
}

// Context returns a copy of the turns committed for the conversation,
// oldest first. The copy never reflects writes that race with the call.
func (s *Store) Context(key chat.Key) []chat.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return nil
	}

	turns := make([]chat.Turn, len(rec.turns))
	copy(turns, rec.turns)

	return turns
}

// Append records a completed exchange, creating the conversation on first
// use. The bot context is stored only at creation; later values are ignored.
func (s *Store) Append(key chat.Key, botContext map[string]any, userTurn, botTurn chat.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		rec = &record{context: botContext}
		s.records[key] = rec
	}

	rec.turns = append(rec.turns, userTurn, botTurn)

	if capacity := 2 * s.maxHistory; len(rec.turns) > capacity {
		rec.turns = rec.turns[len(rec.turns)-capacity:]
	}
}

// Clear removes a single conversation. Clearing an unknown key is a no-op.
func (s *Store) Clear(key chat.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
}

// ClearAll removes every conversation.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[chat.Key]*record)
}

// Len returns the number of active conversations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}
