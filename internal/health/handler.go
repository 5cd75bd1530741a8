// Package health exposes liveness and readiness endpoints.
package health

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"

	"github.com/21ahmud/botlyra-backend/internal/cache"
	"github.com/21ahmud/botlyra-backend/internal/engine"
	"github.com/21ahmud/botlyra-backend/internal/memory"
)

// Checker defines the interface for checking a dependency's health.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker adapts redis.Client to Checker.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Handler handles liveness and readiness checks.
type Handler struct {
	engine engine.Generator
	memory *memory.Store
	cache  cache.Store
	redis  Checker // nil when the deployment runs without Redis
}

// NewHandler creates a new health handler.
func NewHandler(generator engine.Generator, memoryStore *memory.Store, cacheStore cache.Store, redisChecker Checker) *Handler {
	return &Handler{
		engine: generator,
		memory: memoryStore,
		cache:  cacheStore,
		redis:  redisChecker,
	}
}

// Response is the liveness response.
type Response struct {
	Body struct {
		Status              string    `json:"status"`
		Timestamp           time.Time `json:"timestamp"`
		ActiveConversations int       `json:"active_conversations"`
		CachedResponses     int64     `json:"cached_responses"`
		ModelLoaded         bool      `json:"model_loaded"`
		ModelType           string    `json:"model_type"`
		Redis               string    `json:"redis,omitempty"`
	}
}

// Check reports process liveness with degraded flags for dependencies. It
// always returns 200; readiness gating happens on /ready.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = "healthy"
	resp.Body.Timestamp = time.Now().UTC()
	resp.Body.ActiveConversations = h.memory.Len()
	resp.Body.ModelLoaded = h.engine.Loaded()
	resp.Body.ModelType = h.engine.Info().ModelType

	if cached, err := h.cache.Len(ctx); err == nil {
		resp.Body.CachedResponses = cached
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			resp.Body.Redis = "unhealthy"
			resp.Body.Status = "degraded"
		} else {
			resp.Body.Redis = "healthy"
		}
	}

	if !resp.Body.ModelLoaded {
		resp.Body.Status = "degraded"
	}

	return resp, nil
}

// ReadyResponse is the readiness response.
type ReadyResponse struct {
	Body struct {
		Status string `json:"status"`
	}
}

// Ready fails with 503 until the generation engine has been reachable.
func (h *Handler) Ready(ctx context.Context, _ *struct{}) (*ReadyResponse, error) {
	if !h.engine.Loaded() {
		if err := h.engine.Ready(ctx); err != nil {
			return nil, huma.Error503ServiceUnavailable("Model not loaded")
		}
	}

	resp := &ReadyResponse{}
	resp.Body.Status = "ready"

	return resp, nil
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Get(api, "/health", h.Check)
	huma.Get(api, "/ready", h.Ready)
}
