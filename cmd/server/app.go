package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/scry-tutor/internal/breaker"
	"github.com/phrazzld/scry-tutor/internal/cache"
	"github.com/phrazzld/scry-tutor/internal/config"
	"github.com/phrazzld/scry-tutor/internal/events"
	"github.com/phrazzld/scry-tutor/internal/generation"
	"github.com/phrazzld/scry-tutor/internal/intent"
	"github.com/phrazzld/scry-tutor/internal/pipeline"
	"github.com/phrazzld/scry-tutor/internal/platform/gemini"
	"github.com/phrazzld/scry-tutor/internal/platform/openai"
	"github.com/phrazzld/scry-tutor/internal/prompt"
	"github.com/phrazzld/scry-tutor/internal/quality"
	"github.com/phrazzld/scry-tutor/internal/ratelimit"
	"github.com/phrazzld/scry-tutor/internal/retry"
	"github.com/phrazzld/scry-tutor/internal/schema"
	"github.com/phrazzld/scry-tutor/internal/service/auth"
	"github.com/phrazzld/scry-tutor/internal/telemetry"
	"github.com/phrazzld/scry-tutor/internal/upstream"
)

// application holds the shared dependencies of the server and releases them on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	durable        *durableTier
	shutdownTracer telemetry.ShutdownFunc

	provider generation.Provider
	breakers *breaker.Registry
	cache    *cache.Tiered
	counter  *events.Counter
	tokens   auth.TokenService
	pipeline *pipeline.Pipeline

	janitor sync.WaitGroup
}

// appOption adjusts application construction.
type appOption func(*appOptions)

type appOptions struct {
	provider generation.Provider
}

// withProvider replaces the configured LLM provider.
func withProvider(p generation.Provider) appOption {
	return func(o *appOptions) { o.provider = p }
}

// newApplication wires the answer pipeline and its collaborators. durable may be nil.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	durable *durableTier,
	opts ...appOption,
) (*application, error) {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	app := &application{
		config:  cfg,
		logger:  logger,
		durable: durable,
		counter: events.NewCounter(),
	}

	var err error
	app.tokens, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	app.provider = o.provider
	if app.provider == nil {
		app.provider, err = newProvider(ctx, cfg.LLM, logger)
		if err != nil {
			return nil, err
		}
	}
	logger.Info("LLM provider initialized",
		"provider", app.provider.Name(),
		"model", cfg.LLM.Model)

	app.breakers = breaker.NewRegistry(breaker.Settings{
		FailureThreshold: cfg.CircuitBreaker.FailureThreshold,
		Cooldown:         cfg.CircuitBreaker.Cooldown,
	})
	client, err := upstream.NewClient(
		app.provider,
		ratelimit.NewLimiter(tiersFromConfig(cfg.RateLimit)),
		app.breakers,
		upstream.Config{
			Timeout: cfg.LLM.Timeout,
			Retry: retry.Policy{
				MaxAttempts: cfg.Retry.MaxAttempts,
				BaseDelay:   cfg.Retry.BaseDelay,
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream client: %w", err)
	}

	var durableStore cache.Store
	if durable != nil {
		durableStore = durable.store
	}
	app.cache = cache.NewTiered(cache.NewMemory(cfg.Cache.Capacity), durableStore)

	prompts, err := prompt.NewBuilder(cfg.LLM.PromptTemplatePath, cfg.LLM.HistoryTokenBudget)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(app.counter)
	emitter.RegisterHandler(events.NewLogHandler(logger.With("component", "answer_events")))

	app.pipeline, err = pipeline.New(pipeline.Deps{
		Upstream:  client,
		Cache:     app.cache,
		Detector:  intent.NewDetector(cfg.Models, cfg.LLM.Model),
		Prompts:   prompts,
		Validator: schema.NewValidator(),
		Assessor:  quality.NewAssessor(cfg.Quality, cfg.Cache),
		Events:    emitter,
	}, pipeline.Config{MaxTaskLength: cfg.Pipeline.MaxTaskLength})
	if err != nil {
		return nil, fmt.Errorf("failed to create answer pipeline: %w", err)
	}

	logger.Info("application initialized",
		"durable_cache", durable != nil,
		"cache_capacity", cfg.Cache.Capacity)
	return app, nil
}

// newProvider builds the configured LLM provider.
func newProvider(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (generation.Provider, error) {
	switch cfg.Provider {
	case "openai":
		p, err := openai.NewProvider(logger, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI-compatible provider: %w", err)
		}
		return p, nil
	default:
		p, err := gemini.NewProvider(ctx, logger, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini provider: %w", err)
		}
		return p, nil
	}
}

func tiersFromConfig(cfg config.RateLimitConfig) map[ratelimit.Tier]ratelimit.TierLimits {
	return map[ratelimit.Tier]ratelimit.TierLimits{
		ratelimit.TierLow:    {Capacity: cfg.Low.Capacity, RefillPerSecond: cfg.Low.RefillPerSecond},
		ratelimit.TierNormal: {Capacity: cfg.Normal.Capacity, RefillPerSecond: cfg.Normal.RefillPerSecond},
		ratelimit.TierHigh:   {Capacity: cfg.High.Capacity, RefillPerSecond: cfg.High.RefillPerSecond},
	}
}

// Run serves HTTP until ctx is canceled, then releases resources.
func (app *application) Run(ctx context.Context) error {
	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()

	if app.durable != nil && app.config.Cache.PurgeInterval > 0 {
		app.janitor.Add(1)
		go func() {
			defer app.janitor.Done()
			runCacheJanitor(janitorCtx, app.durable.store, app.config.Cache.PurgeInterval,
				app.logger.With("component", "cache_janitor"))
		}()
	}

	err := app.startHTTPServer(ctx, app.setupRouter())
	stopJanitor()
	app.cleanup()
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	app.janitor.Wait()

	if app.durable != nil {
		app.durable.close(app.logger)
	}
	if app.shutdownTracer != nil {
		if err := app.shutdownTracer(context.Background()); err != nil {
			app.logger.Error("error shutting down tracer", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
