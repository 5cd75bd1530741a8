package analytics_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/21ahmud/botlyra-backend/internal/analytics"
)

type mockSubscriber struct {
	exchangeChan chan *message.Message
	clearedChan  chan *message.Message
	subscribeErr error
	mu           sync.Mutex
	closed       bool
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{
		exchangeChan: make(chan *message.Message, 10),
		clearedChan:  make(chan *message.Message, 10),
	}
}

func (m *mockSubscriber) Subscribe(_ context.Context, topic string) (<-chan *message.Message, error) {
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}

	switch topic {
	case analytics.TopicExchangeRecorded:
		return m.exchangeChan, nil
	case analytics.TopicConversationCleared:
		return m.clearedChan, nil
	default:
		return nil, errors.New("unknown topic")
	}
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.exchangeChan)
		close(m.clearedChan)
	}

	return nil
}

type mockStore struct {
	exchanges []*analytics.ExchangeRecordedEvent
	deletions []*analytics.ConversationClearedEvent
	saveErr   error
	deleteErr error
	mu        sync.Mutex
}

func (m *mockStore) SaveExchange(_ context.Context, event *analytics.ExchangeRecordedEvent) error {
	if m.saveErr != nil {
		return m.saveErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.exchanges = append(m.exchanges, event)

	return nil
}

func (m *mockStore) DeleteConversation(_ context.Context, event *analytics.ConversationClearedEvent) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.deletions = append(m.deletions, event)

	return nil
}

func TestExchangeConsumer(t *testing.T) {
	t.Run("archives an exchange event", func(t *testing.T) {
		sub := newMockSubscriber()
		store := &mockStore{}
		consumer := analytics.NewExchangeConsumer(sub, store, zap.NewNop())

		err := consumer.Start(context.Background())
		require.NoError(t, err)

		event := &analytics.ExchangeRecordedEvent{
			ID:        uuid.NewString(),
			UserID:    "u1",
			BotID:     "b1",
			Message:   "how are you",
			Response:  "Doing well, thank you.",
			Source:    "model",
			CreatedAt: time.Now().UTC(),
		}

		payload, _ := json.Marshal(event)
		msg := message.NewMessage(uuid.NewString(), payload)

		sub.exchangeChan <- msg

		select {
		case <-msg.Acked():
			// Success
		case <-msg.Nacked():
			t.Fatal("message was nacked")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for ack")
		}

		store.mu.Lock()
		defer store.mu.Unlock()

		require.Len(t, store.exchanges, 1)
		assert.Equal(t, event.ID, store.exchanges[0].ID)
		assert.Equal(t, "Doing well, thank you.", store.exchanges[0].Response)

		_ = consumer.Shutdown()
	})

	t.Run("nacks on store error", func(t *testing.T) {
		sub := newMockSubscriber()
		store := &mockStore{saveErr: errors.New("store error")}
		consumer := analytics.NewExchangeConsumer(sub, store, zap.NewNop())

		err := consumer.Start(context.Background())
		require.NoError(t, err)

		event := &analytics.ExchangeRecordedEvent{ID: uuid.NewString()}
		payload, _ := json.Marshal(event)
		msg := message.NewMessage(uuid.NewString(), payload)

		sub.exchangeChan <- msg

		select {
		case <-msg.Nacked():
			// Success - message was nacked
		case <-msg.Acked():
			t.Fatal("message should have been nacked")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for nack")
		}

		_ = consumer.Shutdown()
	})

	t.Run("returns error when subscribe fails", func(t *testing.T) {
		sub := &mockSubscriber{subscribeErr: errors.New("subscribe error")}
		consumer := analytics.NewExchangeConsumer(sub, &mockStore{}, zap.NewNop())

		err := consumer.Start(context.Background())

		assert.Error(t, err)
	})
}

func TestClearedConsumer(t *testing.T) {
	t.Run("drops archived turns for one conversation", func(t *testing.T) {
		sub := newMockSubscriber()
		store := &mockStore{}
		consumer := analytics.NewClearedConsumer(sub, store, zap.NewNop())

		err := consumer.Start(context.Background())
		require.NoError(t, err)

		event := &analytics.ConversationClearedEvent{
			UserID:    "u1",
			BotID:     "b1",
			ClearedAt: time.Now().UTC(),
		}

		payload, _ := json.Marshal(event)
		msg := message.NewMessage(uuid.NewString(), payload)

		sub.clearedChan <- msg

		select {
		case <-msg.Acked():
			// Success
		case <-msg.Nacked():
			t.Fatal("message was nacked")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for ack")
		}

		store.mu.Lock()
		defer store.mu.Unlock()

		require.Len(t, store.deletions, 1)
		assert.Equal(t, "u1", store.deletions[0].UserID)
		assert.False(t, store.deletions[0].All)

		_ = consumer.Shutdown()
	})

	t.Run("drops everything on a full clear", func(t *testing.T) {
		sub := newMockSubscriber()
		store := &mockStore{}
		consumer := analytics.NewClearedConsumer(sub, store, zap.NewNop())

		err := consumer.Start(context.Background())
		require.NoError(t, err)

		event := &analytics.ConversationClearedEvent{All: true, ClearedAt: time.Now().UTC()}
		payload, _ := json.Marshal(event)
		msg := message.NewMessage(uuid.NewString(), payload)

		sub.clearedChan <- msg

		select {
		case <-msg.Acked():
			// Success
		case <-msg.Nacked():
			t.Fatal("message was nacked")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for ack")
		}

		store.mu.Lock()
		defer store.mu.Unlock()

		require.Len(t, store.deletions, 1)
		assert.True(t, store.deletions[0].All)

		_ = consumer.Shutdown()
	})

	t.Run("nacks on store error", func(t *testing.T) {
		sub := newMockSubscriber()
		store := &mockStore{deleteErr: errors.New("store error")}
		consumer := analytics.NewClearedConsumer(sub, store, zap.NewNop())

		err := consumer.Start(context.Background())
		require.NoError(t, err)

		event := &analytics.ConversationClearedEvent{All: true}
		payload, _ := json.Marshal(event)
		msg := message.NewMessage(uuid.NewString(), payload)

		sub.clearedChan <- msg

		select {
		case <-msg.Nacked():
			// Success - message was nacked
		case <-msg.Acked():
			t.Fatal("message should have been nacked")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for nack")
		}

		_ = consumer.Shutdown()
	})
}
