package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/21ahmud/botlyra-backend/internal/cache"
	"github.com/21ahmud/botlyra-backend/internal/engine"
	"github.com/21ahmud/botlyra-backend/internal/memory"
	"github.com/21ahmud/botlyra-backend/internal/postprocess"
	"github.com/21ahmud/botlyra-backend/internal/ratelimit"
)

const (
	defaultUserID = "anonymous"
	defaultBotID  = "default"
)

// Request is a single chat request.
type Request struct {
	Message    string
	UserID     string
	BotID      string
	BotContext map[string]any
	// History lets the caller supply its own conversation context; when
	// empty the stored conversation memory is used instead.
	History []Turn
}

// Response is the reply produced for a request.
type Response struct {
	Text   string
	Source Source
	UserID string
	BotID  string
	Key    Key
}

// Config bounds the request and prompt sizes.
type Config struct {
	MaxMessageLength int
	MaxPromptLength  int
	Params           engine.Params
}

// DefaultConfig returns the request/prompt bounds used by the service.
func DefaultConfig() Config {
	return Config{
		MaxMessageLength: 500,
		MaxPromptLength:  2048,
		Params:           engine.DefaultParams(),
	}
}

// Service coordinates rate limiting, response caching, conversation memory,
// generation, and post-processing for chat requests. The shared structures
// are siblings with independent locks; the service never holds one of their
// locks across a call into another, and never across the engine call.
type Service struct {
	limiter   ratelimit.Limiter
	cache     cache.Store
	memory    *memory.Store
	engine    engine.Generator
	processor *postprocess.Processor
	logger    *zap.Logger
	cfg       Config
}

// NewService creates the chat service. Zero-valued config fields fall back
// to defaults.
func NewService(
	limiter ratelimit.Limiter,
	cacheStore cache.Store,
	memoryStore *memory.Store,
	generator engine.Generator,
	processor *postprocess.Processor,
	logger *zap.Logger,
	cfg Config,
) *Service {
	def := DefaultConfig()

	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = def.MaxMessageLength
	}

	if cfg.MaxPromptLength <= 0 {
		cfg.MaxPromptLength = def.MaxPromptLength
	}

	if cfg.Params.MaxNewTokens <= 0 {
		cfg.Params = def.Params
	}

	return &Service{
		limiter:   limiter,
		cache:     cacheStore,
		memory:    memoryStore,
		engine:    generator,
		processor: processor,
		logger:    logger,
		cfg:       cfg,
	}
}

// Respond produces a reply for the request. It returns ErrEmptyMessage,
// ErrMessageTooLong, ErrRateLimited, or ErrUnavailable for requests rejected
// before any generation; all failures past that point degrade to a
// deterministic fallback reply rather than an error.
func (s *Service) Respond(ctx context.Context, req Request) (*Response, error) {
	input := strings.TrimSpace(req.Message)
	if input == "" {
		return nil, ErrEmptyMessage
	}

	if len([]rune(input)) > s.cfg.MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	userID := req.UserID
	if userID == "" {
		userID = defaultUserID
	}

	botID := req.BotID
	if botID == "" {
		botID = defaultBotID
	}

	key := ConversationKey(userID, botID)

	admitted, err := s.limiter.Allow(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("rate limit check: %w", err)
	}

	if !admitted {
		return nil, ErrRateLimited
	}

	if !s.engine.Loaded() {
		return nil, ErrUnavailable
	}

	fingerprint := cache.Fingerprint(input, key)

	cached, err := s.cache.Lookup(ctx, fingerprint)
	if err == nil {
		// Replay the prior answer verbatim; a cache hit adds no new turn.
		return &Response{Text: cached, Source: SourceCache, UserID: userID, BotID: botID, Key: key}, nil
	}

	if !errors.Is(err, cache.ErrNotFound) {
		s.logger.Warn("cache lookup failed", zap.String("key", string(key)), zap.Error(err))
	}

	history := req.History
	if len(history) == 0 {
		history = s.memory.Context(key)
	}

	separator := s.engine.Separator()
	prompt := BuildPrompt(history, input, separator, s.cfg.MaxPromptLength)

	raw, err := s.engine.Generate(ctx, prompt, s.cfg.Params)
	if err != nil {
		// Engine failures are absorbed: the empty output falls through the
		// post-processing gate into fallback selection below.
		s.logger.Warn("generation failed",
			zap.String("key", string(key)),
			zap.Error(err),
		)

		raw = ""
	}

	// Some engines echo the prompt ahead of the completion; when generation
	// stops at the separator the echo surfaces as the bare input instead.
	raw = strings.TrimSpace(raw)
	if rest := strings.TrimPrefix(raw, prompt); rest != raw {
		raw = rest
	} else if _, rest, found := strings.Cut(raw, input); found {
		raw = rest
	}

	raw = strings.TrimSpace(raw)

	text, ok := s.processor.Process(raw, input, []string{separator})
	source := SourceModel

	if !ok {
		text = postprocess.Fallback(input)
		source = SourceFallback
	}

	final := postprocess.Finalize(text)

	if err := s.cache.Store(ctx, fingerprint, final); err != nil {
		s.logger.Warn("cache store failed", zap.String("key", string(key)), zap.Error(err))
	}

	now := time.Now().UTC()
	s.memory.Append(key, req.BotContext,
		Turn{Sender: SenderUser, Message: input, Timestamp: now},
		Turn{Sender: SenderBot, Message: final, Timestamp: now},
	)

	return &Response{Text: final, Source: source, UserID: userID, BotID: botID, Key: key}, nil
}
