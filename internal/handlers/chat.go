package handlers

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/21ahmud/botlyra-backend/internal/analytics"
	"github.com/21ahmud/botlyra-backend/internal/cache"
	"github.com/21ahmud/botlyra-backend/internal/chat"
	"github.com/21ahmud/botlyra-backend/internal/engine"
	"github.com/21ahmud/botlyra-backend/internal/memory"
	"github.com/21ahmud/botlyra-backend/internal/messaging"
)

// ChatHandler handles the chat API operations.
type ChatHandler struct {
	service         *chat.Service
	memory          *memory.Store
	cache           cache.Store
	engine          engine.Generator
	publishExchange messaging.Publish[analytics.ExchangeRecordedEvent]
	publishCleared  messaging.Publish[analytics.ConversationClearedEvent]
	logger          *zap.Logger
}

// NewChatHandler creates the chat handler.
func NewChatHandler(
	service *chat.Service,
	memoryStore *memory.Store,
	cacheStore cache.Store,
	generator engine.Generator,
	publishExchange messaging.Publish[analytics.ExchangeRecordedEvent],
	publishCleared messaging.Publish[analytics.ConversationClearedEvent],
	logger *zap.Logger,
) *ChatHandler {
	return &ChatHandler{
		service:         service,
		memory:          memoryStore,
		cache:           cacheStore,
		engine:          generator,
		publishExchange: publishExchange,
		publishCleared:  publishCleared,
		logger:          logger,
	}
}

// Predict answers a user message.
func (h *ChatHandler) Predict(ctx context.Context, req *PredictRequest) (*PredictResponse, error) {
	start := time.Now()

	result, err := h.service.Respond(ctx, chat.Request{
		Message:    req.Body.Message,
		UserID:     req.Body.UserID,
		BotID:      req.Body.BotID,
		BotContext: req.Body.BotContext,
		History:    toTurns(req.Body.ConversationHistory),
	})
	if err != nil {
		return nil, h.mapError(err)
	}

	processing := math.Round(time.Since(start).Seconds()*1000) / 1000

	meta := RequestMetaFromContext(ctx)
	event := &analytics.ExchangeRecordedEvent{
		ID:           uuid.NewString(),
		UserID:       result.UserID,
		BotID:        result.BotID,
		Message:      req.Body.Message,
		Response:     result.Text,
		Source:       string(result.Source),
		ModelType:    h.engine.Info().ModelType,
		ProcessingMS: time.Since(start).Milliseconds(),
		ClientIP:     meta.ClientIP,
		UserAgent:    meta.UserAgent,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.publishExchange(event); err != nil {
		h.logger.Error("failed to publish exchange event",
			zap.String("user_id", event.UserID),
			zap.Error(err),
		)
	}

	resp := &PredictResponse{}
	resp.Body.Status = "success"
	resp.Body.Response = result.Text
	resp.Body.ProcessingTime = processing
	resp.Body.Timestamp = time.Now().UTC()
	resp.Body.ModelType = h.engine.Info().ModelType

	return resp, nil
}

func (h *ChatHandler) mapError(err error) error {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrMessageTooLong):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, chat.ErrRateLimited):
		return huma.Error429TooManyRequests("Rate limit exceeded.")
	case errors.Is(err, chat.ErrUnavailable):
		return huma.Error503ServiceUnavailable("Chatbot service is currently unavailable")
	default:
		h.logger.Error("predict failed", zap.Error(err))

		return huma.Error500InternalServerError("I'm experiencing technical difficulties. Please try again.")
	}
}

// History returns the stored turns for one conversation.
func (h *ChatHandler) History(_ context.Context, req *HistoryRequest) (*HistoryResponse, error) {
	if req.UserID == "" || req.BotID == "" {
		return nil, huma.Error400BadRequest("user_id and bot_id required")
	}

	turns := h.memory.Context(chat.ConversationKey(req.UserID, req.BotID))

	resp := &HistoryResponse{}
	resp.Body.Status = "success"
	resp.Body.History = fromTurns(turns)
	resp.Body.TotalMessages = len(turns)

	return resp, nil
}

// Clear drops one conversation's memory, or all memory plus the response
// cache when either identifier is missing.
func (h *ChatHandler) Clear(ctx context.Context, req *ClearRequest) (*ClearResponse, error) {
	event := &analytics.ConversationClearedEvent{ClearedAt: time.Now().UTC()}

	resp := &ClearResponse{}
	resp.Body.Status = "success"

	if req.Body != nil && req.Body.UserID != "" && req.Body.BotID != "" {
		h.memory.Clear(chat.ConversationKey(req.Body.UserID, req.Body.BotID))

		event.UserID = req.Body.UserID
		event.BotID = req.Body.BotID
		resp.Body.Message = "Conversation history cleared"
	} else {
		h.memory.ClearAll()

		if err := h.cache.Clear(ctx); err != nil {
			h.logger.Error("failed to clear response cache", zap.Error(err))

			return nil, huma.Error500InternalServerError("failed to clear response cache")
		}

		event.All = true
		resp.Body.Message = "All conversation data cleared"
	}

	if err := h.publishCleared(event); err != nil {
		h.logger.Error("failed to publish cleared event", zap.Error(err))
	}

	return resp, nil
}

// ModelInfo reports the serving model and live server stats.
func (h *ChatHandler) ModelInfo(ctx context.Context, _ *struct{}) (*ModelInfoResponse, error) {
	cached, err := h.cache.Len(ctx)
	if err != nil {
		h.logger.Warn("failed to count cached responses", zap.Error(err))

		cached = 0
	}

	resp := &ModelInfoResponse{}
	resp.Body.Status = "success"
	resp.Body.ModelInfo = h.engine.Info()
	resp.Body.ServerInfo.ActiveConversations = h.memory.Len()
	resp.Body.ServerInfo.CachedResponses = cached
	resp.Body.ServerInfo.ModelLoaded = h.engine.Loaded()

	return resp, nil
}
