// Package container wires the application services together.
package container

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"

	"github.com/21ahmud/botlyra-backend/internal/analytics"
	analyticsstore "github.com/21ahmud/botlyra-backend/internal/analytics/store"
	"github.com/21ahmud/botlyra-backend/internal/cache"
	"github.com/21ahmud/botlyra-backend/internal/chat"
	"github.com/21ahmud/botlyra-backend/internal/engine"
	"github.com/21ahmud/botlyra-backend/internal/handlers"
	"github.com/21ahmud/botlyra-backend/internal/health"
	"github.com/21ahmud/botlyra-backend/internal/memory"
	"github.com/21ahmud/botlyra-backend/internal/messaging"
	"github.com/21ahmud/botlyra-backend/internal/middleware"
	"github.com/21ahmud/botlyra-backend/internal/postprocess"
	"github.com/21ahmud/botlyra-backend/internal/ratelimit"
	"github.com/21ahmud/botlyra-backend/internal/store"
)

// Options holds all tunable parameters, populated by humacli from flags and
// SERVICE_* environment variables.
type Options struct {
	Port        int    `default:"8080"           help:"Port to listen on"                                          short:"p"`
	LogFormat   string `default:"console"        enum:"console,json" help:"Log output format"`
	RedisAddr   string `default:"localhost:6379" help:"Redis server address"                                       short:"r"`
	PostgresDSN string `default:""               help:"PostgreSQL DSN for the transcript archive (consumer only)"`
	Backend     string `default:"memory"         enum:"memory,redis" help:"Backing store for the response cache and rate limit windows"`

	EngineURL       string `default:"http://localhost:8000/v1" help:"Base URL of the OpenAI-compatible generation engine"`
	EngineAPIKey    string `default:""                         help:"API key for the generation engine"`
	EngineModel     string `default:"dialogpt-large"           help:"Model name served by the engine"`
	EngineSeparator string `default:""                         help:"Turn separator token of the engine tokenizer"`
	ModelType       string `default:"fine_tuned"               help:"Model type reported on /model/info"`

	RateLimit         int64 `default:"60"   help:"Requests admitted per user per window"`
	RateWindowSeconds int   `default:"60"   help:"Rate limit window in seconds"`
	ClientRateLimit   int64 `default:"300"  help:"Transport-level requests per client per window"`
	CacheTTLSeconds   int   `default:"300"  help:"Response cache duration in seconds"`
	MaxHistory        int   `default:"10"   help:"Exchanges kept per conversation"`
	MaxMessageLength  int   `default:"500"  help:"Maximum input message length in characters"`
	MaxPromptLength   int   `default:"2048" help:"Maximum prompt length in characters"`
	MinResponseLength int   `default:"10"   help:"Minimum acceptable reply length in characters"`
	MaxResponseLength int   `default:"150"  help:"Maximum reply length in characters"`
	MaxNewTokens      int   `default:"100"  help:"Maximum new tokens per generation call"`
}

// Named services for the two rate limit scopes.
const (
	UserLimiter   = "ratelimit.user"
	ClientLimiter = "ratelimit.client"
)

// LoggerPackage provides the zap logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		options := do.MustInvoke[*Options](i)

		if options.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the shared Redis client.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*redis.Client, error) {
		options := do.MustInvoke[*Options](i)

		return redis.NewClient(&redis.Options{Addr: options.RedisAddr}), nil
	})
}

// PostgresPackage provides the transcript archive connection pool.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*pgxpool.Pool, error) {
		options := do.MustInvoke[*Options](i)

		return pgxpool.New(context.Background(), options.PostgresDSN)
	})
}

// EnginePackage provides the generation engine client.
func EnginePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (engine.Generator, error) {
		options := do.MustInvoke[*Options](i)

		return engine.NewOpenAIEngine(engine.OpenAIConfig{
			BaseURL:   options.EngineURL,
			APIKey:    options.EngineAPIKey,
			Model:     options.EngineModel,
			Separator: options.EngineSeparator,
			ModelType: options.ModelType,
		}), nil
	})
}

// RateLimitPackage provides the per-user and per-client limiters.
func RateLimitPackage(injector *do.Injector) {
	newStore := func(i *do.Injector) ratelimit.Store {
		options := do.MustInvoke[*Options](i)

		if options.Backend == "redis" {
			return store.NewRateLimitRedisStore(do.MustInvoke[*redis.Client](i))
		}

		return store.NewRateLimitMemoryStore()
	}

	do.ProvideNamed(injector, UserLimiter, func(i *do.Injector) (ratelimit.Limiter, error) {
		options := do.MustInvoke[*Options](i)
		window := time.Duration(options.RateWindowSeconds) * time.Second

		return ratelimit.NewSlidingWindowLimiter(newStore(i), options.RateLimit, window), nil
	})

	do.ProvideNamed(injector, ClientLimiter, func(i *do.Injector) (ratelimit.Limiter, error) {
		options := do.MustInvoke[*Options](i)
		window := time.Duration(options.RateWindowSeconds) * time.Second

		return ratelimit.NewSlidingWindowLimiter(newStore(i), options.ClientRateLimit, window), nil
	})
}

// ChatPackage provides conversation memory, the response cache, the
// post-processor, and the chat service.
func ChatPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*memory.Store, error) {
		options := do.MustInvoke[*Options](i)

		return memory.NewStore(options.MaxHistory), nil
	})

	do.Provide(injector, func(i *do.Injector) (cache.Store, error) {
		options := do.MustInvoke[*Options](i)
		ttl := time.Duration(options.CacheTTLSeconds) * time.Second

		if options.Backend == "redis" {
			return store.NewResponseRedisStore(do.MustInvoke[*redis.Client](i), ttl), nil
		}

		return store.NewResponseMemoryStore(ttl), nil
	})

	do.Provide(injector, func(i *do.Injector) (*postprocess.Processor, error) {
		options := do.MustInvoke[*Options](i)

		return postprocess.New(postprocess.Config{
			MinLength: options.MinResponseLength,
			MaxLength: options.MaxResponseLength,
		}), nil
	})

	do.Provide(injector, func(i *do.Injector) (*chat.Service, error) {
		options := do.MustInvoke[*Options](i)

		params := engine.DefaultParams()
		params.MaxNewTokens = options.MaxNewTokens

		return chat.NewService(
			do.MustInvokeNamed[ratelimit.Limiter](i, UserLimiter),
			do.MustInvoke[cache.Store](i),
			do.MustInvoke[*memory.Store](i),
			do.MustInvoke[engine.Generator](i),
			do.MustInvoke[*postprocess.Processor](i),
			do.MustInvoke[*zap.Logger](i),
			chat.Config{
				MaxMessageLength: options.MaxMessageLength,
				MaxPromptLength:  options.MaxPromptLength,
				Params:           params,
			},
		), nil
	})
}

// PublisherGroupPackage provides the analytics event publishers over Redis
// Streams.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*redis.Client](i)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: client},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[analytics.ExchangeRecordedEvent], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[analytics.ExchangeRecordedEvent](
			group.Publisher(), analytics.TopicExchangeRecorded), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[analytics.ConversationClearedEvent], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[analytics.ConversationClearedEvent](
			group.Publisher(), analytics.TopicConversationCleared), nil
	})
}

// ConsumerGroupPackage provides the transcript archiving consumers.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (analytics.Store, error) {
		options := do.MustInvoke[*Options](i)

		if options.PostgresDSN == "" {
			return analyticsstore.NewNoop(), nil
		}

		return store.NewTranscriptPostgresStore(do.MustInvoke[*pgxpool.Pool](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		client := do.MustInvoke[*redis.Client](i)
		logger := do.MustInvoke[*zap.Logger](i)
		archive := do.MustInvoke[analytics.Store](i)

		subscriber, err := redisstream.NewSubscriber(
			redisstream.SubscriberConfig{
				Client:        client,
				ConsumerGroup: "transcript-archive",
			},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			return nil, err
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(analytics.NewExchangeConsumer(subscriber, archive, logger))
		group.Add(analytics.NewClearedConsumer(subscriber, archive, logger))

		return group, nil
	})
}

// HTTPPackage provides the router, API, middlewares, and route registration.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (*handlers.ChatHandler, error) {
		return handlers.NewChatHandler(
			do.MustInvoke[*chat.Service](i),
			do.MustInvoke[*memory.Store](i),
			do.MustInvoke[cache.Store](i),
			do.MustInvoke[engine.Generator](i),
			do.MustInvoke[messaging.Publish[analytics.ExchangeRecordedEvent]](i),
			do.MustInvoke[messaging.Publish[analytics.ConversationClearedEvent]](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (*health.Handler, error) {
		// Event publishing rides on Redis regardless of the cache backend,
		// so /health always reports Redis connectivity.
		return health.NewHandler(
			do.MustInvoke[engine.Generator](i),
			do.MustInvoke[*memory.Store](i),
			do.MustInvoke[cache.Store](i),
			health.NewRedisChecker(do.MustInvoke[*redis.Client](i)),
		), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		router := do.MustInvoke[*chi.Mux](i)
		api := humachi.New(router, huma.DefaultConfig("Chat Response Service", "1.0.0"))

		clientLimiter := do.MustInvokeNamed[ratelimit.Limiter](i, ClientLimiter)
		api.UseMiddleware(
			middleware.RequestMeta(api),
			middleware.RateLimiter(api, clientLimiter),
		)

		handlers.RegisterRoutes(api, do.MustInvoke[*handlers.ChatHandler](i))
		health.RegisterRoutes(api, do.MustInvoke[*health.Handler](i))

		return api, nil
	})
}
