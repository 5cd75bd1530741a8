package handlers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/21ahmud/botlyra-backend/internal/analytics"
	"github.com/21ahmud/botlyra-backend/internal/cache"
	"github.com/21ahmud/botlyra-backend/internal/chat"
	"github.com/21ahmud/botlyra-backend/internal/engine"
	"github.com/21ahmud/botlyra-backend/internal/handlers"
	"github.com/21ahmud/botlyra-backend/internal/memory"
	"github.com/21ahmud/botlyra-backend/internal/messaging"
	"github.com/21ahmud/botlyra-backend/internal/postprocess"
	"github.com/21ahmud/botlyra-backend/internal/ratelimit"
	"github.com/21ahmud/botlyra-backend/internal/store"
)

// noopPublish returns a publish function that always succeeds.
func noopPublish[T any]() messaging.Publish[T] {
	return func(_ *T) error { return nil }
}

// errorPublish returns a publish function that always fails.
func errorPublish[T any](err error) messaging.Publish[T] {
	return func(_ *T) error { return err }
}

type stubEngine struct {
	response string
	err      error
	loaded   bool
}

func (e *stubEngine) Generate(_ context.Context, _ string, _ engine.Params) (string, error) {
	return e.response, e.err
}

func (e *stubEngine) Ready(_ context.Context) error { return nil }
func (e *stubEngine) Loaded() bool                  { return e.loaded }
func (e *stubEngine) Separator() string             { return "<|endoftext|>" }

func (e *stubEngine) Info() engine.Info {
	return engine.Info{ModelType: "fine_tuned", BaseModel: "dialogpt-large"}
}

type testEnv struct {
	handler *handlers.ChatHandler
	engine  *stubEngine
	memory  *memory.Store
	cache   cache.Store
	limiter *ratelimit.SlidingWindowLimiter
}

func newTestEnv(response string) *testEnv {
	return newTestEnvWithPublish(
		response,
		noopPublish[analytics.ExchangeRecordedEvent](),
		noopPublish[analytics.ConversationClearedEvent](),
	)
}

func newTestEnvWithLimit(response string, limit int64) *testEnv {
	env := newTestEnv(response)
	env.limiter = ratelimit.NewSlidingWindowLimiter(store.NewRateLimitMemoryStore(), limit, time.Minute)

	service := chat.NewService(
		env.limiter,
		env.cache,
		env.memory,
		env.engine,
		postprocess.New(postprocess.Config{}),
		zap.NewNop(),
		chat.Config{},
	)

	env.handler = handlers.NewChatHandler(
		service,
		env.memory,
		env.cache,
		env.engine,
		noopPublish[analytics.ExchangeRecordedEvent](),
		noopPublish[analytics.ConversationClearedEvent](),
		zap.NewNop(),
	)

	return env
}

func newTestEnvWithPublish(
	response string,
	publishExchange messaging.Publish[analytics.ExchangeRecordedEvent],
	publishCleared messaging.Publish[analytics.ConversationClearedEvent],
) *testEnv {
	env := &testEnv{
		engine:  &stubEngine{response: response, loaded: true},
		memory:  memory.NewStore(10),
		cache:   store.NewResponseMemoryStore(time.Minute),
		limiter: ratelimit.NewSlidingWindowLimiter(store.NewRateLimitMemoryStore(), 60, time.Minute),
	}

	service := chat.NewService(
		env.limiter,
		env.cache,
		env.memory,
		env.engine,
		postprocess.New(postprocess.Config{}),
		zap.NewNop(),
		chat.Config{},
	)

	env.handler = handlers.NewChatHandler(
		service,
		env.memory,
		env.cache,
		env.engine,
		publishExchange,
		publishCleared,
		zap.NewNop(),
	)

	return env
}

func statusOf(t *testing.T, err error) int {
	t.Helper()

	var se huma.StatusError

	require.ErrorAs(t, err, &se)

	return se.GetStatus()
}

func TestPredict(t *testing.T) {
	t.Run("answers a message successfully", func(t *testing.T) {
		env := newTestEnv("I have been reading about lighthouses all morning.")

		req := &handlers.PredictRequest{}
		req.Body.Message = "what are you up to"
		req.Body.UserID = "u1"
		req.Body.BotID = "b1"

		resp, err := env.handler.Predict(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, "success", resp.Body.Status)
		assert.Equal(t, "I have been reading about lighthouses all morning.", resp.Body.Response)
		assert.Equal(t, "fine_tuned", resp.Body.ModelType)
		assert.GreaterOrEqual(t, resp.Body.ProcessingTime, 0.0)
		assert.False(t, resp.Body.Timestamp.IsZero())
	})

	t.Run("returns 400 for an empty message", func(t *testing.T) {
		env := newTestEnv("irrelevant")

		req := &handlers.PredictRequest{}

		resp, err := env.handler.Predict(context.Background(), req)

		assert.Nil(t, resp)
		assert.Equal(t, 400, statusOf(t, err))
	})

	t.Run("returns 429 when the user is rate limited", func(t *testing.T) {
		env := newTestEnvWithLimit("Sure thing.", 1)

		req := &handlers.PredictRequest{}
		req.Body.Message = "first message goes through"
		req.Body.UserID = "u1"

		_, err := env.handler.Predict(context.Background(), req)
		require.NoError(t, err)

		req.Body.Message = "second message is rejected"

		resp, err := env.handler.Predict(context.Background(), req)

		assert.Nil(t, resp)
		assert.Equal(t, 429, statusOf(t, err))
	})

	t.Run("returns 503 while the model is not loaded", func(t *testing.T) {
		env := newTestEnv("irrelevant")
		env.engine.loaded = false

		req := &handlers.PredictRequest{}
		req.Body.Message = "hello"

		resp, err := env.handler.Predict(context.Background(), req)

		assert.Nil(t, resp)
		assert.Equal(t, 503, statusOf(t, err))
	})

	t.Run("falls back when generation fails", func(t *testing.T) {
		env := newTestEnv("")
		env.engine.err = errors.New("engine unreachable")

		req := &handlers.PredictRequest{}
		req.Body.Message = "tell me something interesting"

		resp, err := env.handler.Predict(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, "success", resp.Body.Status)
		assert.NotEmpty(t, resp.Body.Response)
	})

	t.Run("succeeds even when publish fails", func(t *testing.T) {
		env := newTestEnvWithPublish(
			"The museum opens at nine on weekdays.",
			errorPublish[analytics.ExchangeRecordedEvent](errors.New("publish error")),
			noopPublish[analytics.ConversationClearedEvent](),
		)

		req := &handlers.PredictRequest{}
		req.Body.Message = "when does the museum open"

		resp, err := env.handler.Predict(context.Background(), req)

		// Publish errors are logged, not returned.
		require.NoError(t, err)
		assert.Equal(t, "success", resp.Body.Status)
	})

	t.Run("uses request metadata from context", func(t *testing.T) {
		env := newTestEnv("Happy to help with that.")

		meta := handlers.RequestMeta{
			RequestID: "req-1",
			ClientIP:  "192.168.1.1",
			UserAgent: "TestAgent/1.0",
		}
		ctx := handlers.ContextWithRequestMeta(context.Background(), meta)

		req := &handlers.PredictRequest{}
		req.Body.Message = "can you help me"

		resp, err := env.handler.Predict(ctx, req)

		require.NoError(t, err)
		assert.Equal(t, "success", resp.Body.Status)
	})
}

func TestHistory(t *testing.T) {
	t.Run("returns stored turns oldest first", func(t *testing.T) {
		env := newTestEnv("It was lovely, thank you for asking.")

		predict := &handlers.PredictRequest{}
		predict.Body.Message = "how was your day"
		predict.Body.UserID = "u1"
		predict.Body.BotID = "b1"

		_, err := env.handler.Predict(context.Background(), predict)
		require.NoError(t, err)

		resp, err := env.handler.History(context.Background(), &handlers.HistoryRequest{UserID: "u1", BotID: "b1"})

		require.NoError(t, err)
		assert.Equal(t, "success", resp.Body.Status)
		assert.Equal(t, 2, resp.Body.TotalMessages)
		require.Len(t, resp.Body.History, 2)
		assert.Equal(t, "user", resp.Body.History[0].Sender)
		assert.Equal(t, "how was your day", resp.Body.History[0].Message)
		assert.Equal(t, "bot", resp.Body.History[1].Sender)
	})

	t.Run("returns empty history for an unknown conversation", func(t *testing.T) {
		env := newTestEnv("irrelevant")

		resp, err := env.handler.History(context.Background(), &handlers.HistoryRequest{UserID: "u9", BotID: "b9"})

		require.NoError(t, err)
		assert.Zero(t, resp.Body.TotalMessages)
		assert.Empty(t, resp.Body.History)
	})

	t.Run("returns 400 when identifiers are missing", func(t *testing.T) {
		env := newTestEnv("irrelevant")

		resp, err := env.handler.History(context.Background(), &handlers.HistoryRequest{UserID: "u1"})

		assert.Nil(t, resp)
		assert.Equal(t, 400, statusOf(t, err))
	})
}

func TestClear(t *testing.T) {
	t.Run("clears one conversation and keeps the rest", func(t *testing.T) {
		env := newTestEnv("Good morning to you too.")

		for _, ids := range [][2]string{{"u1", "b1"}, {"u2", "b1"}} {
			predict := &handlers.PredictRequest{}
			predict.Body.Message = "good morning from " + ids[0]
			predict.Body.UserID = ids[0]
			predict.Body.BotID = ids[1]

			_, err := env.handler.Predict(context.Background(), predict)
			require.NoError(t, err)
		}

		req := &handlers.ClearRequest{Body: &handlers.ClearScope{UserID: "u1", BotID: "b1"}}

		resp, err := env.handler.Clear(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, "Conversation history cleared", resp.Body.Message)
		assert.Empty(t, env.memory.Context(chat.ConversationKey("u1", "b1")))
		assert.Len(t, env.memory.Context(chat.ConversationKey("u2", "b1")), 2)
	})

	t.Run("clears everything when identifiers are missing", func(t *testing.T) {
		env := newTestEnv("Good morning to you too.")

		predict := &handlers.PredictRequest{}
		predict.Body.Message = "good morning"
		predict.Body.UserID = "u1"
		predict.Body.BotID = "b1"

		_, err := env.handler.Predict(context.Background(), predict)
		require.NoError(t, err)

		resp, err := env.handler.Clear(context.Background(), &handlers.ClearRequest{})

		require.NoError(t, err)
		assert.Equal(t, "All conversation data cleared", resp.Body.Message)
		assert.Zero(t, env.memory.Len())

		cached, err := env.cache.Len(context.Background())

		require.NoError(t, err)
		assert.Zero(t, cached)
	})

	t.Run("clears everything when identifiers are partial", func(t *testing.T) {
		env := newTestEnv("Good morning to you too.")

		predict := &handlers.PredictRequest{}
		predict.Body.Message = "good morning"
		predict.Body.UserID = "u1"
		predict.Body.BotID = "b1"

		_, err := env.handler.Predict(context.Background(), predict)
		require.NoError(t, err)

		req := &handlers.ClearRequest{Body: &handlers.ClearScope{UserID: "u1"}}

		resp, err := env.handler.Clear(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, "All conversation data cleared", resp.Body.Message)
		assert.Zero(t, env.memory.Len())
	})

	t.Run("succeeds even when publish fails", func(t *testing.T) {
		env := newTestEnvWithPublish(
			"irrelevant",
			noopPublish[analytics.ExchangeRecordedEvent](),
			errorPublish[analytics.ConversationClearedEvent](errors.New("publish error")),
		)

		resp, err := env.handler.Clear(context.Background(), &handlers.ClearRequest{})

		require.NoError(t, err)
		assert.Equal(t, "success", resp.Body.Status)
	})
}

func TestModelInfo(t *testing.T) {
	t.Run("reports the model and live stats", func(t *testing.T) {
		env := newTestEnv("The recipe needs two eggs and a pinch of salt.")

		predict := &handlers.PredictRequest{}
		predict.Body.Message = "how many eggs does the recipe need"
		predict.Body.UserID = "u1"

		_, err := env.handler.Predict(context.Background(), predict)
		require.NoError(t, err)

		resp, err := env.handler.ModelInfo(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, "success", resp.Body.Status)
		assert.Equal(t, "fine_tuned", resp.Body.ModelInfo.ModelType)
		assert.Equal(t, "dialogpt-large", resp.Body.ModelInfo.BaseModel)
		assert.Equal(t, 1, resp.Body.ServerInfo.ActiveConversations)
		assert.Equal(t, int64(1), resp.Body.ServerInfo.CachedResponses)
		assert.True(t, resp.Body.ServerInfo.ModelLoaded)
	})
}
