// Package upstream composes an LLM provider with the resilience layers every call goes
// through: the caller's rate-limit bucket, the endpoint's circuit breaker, and the retry
// policy. It is the only place in the pipeline that blocks on the network.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/phrazzld/scry-tutor/internal/breaker"
	"github.com/phrazzld/scry-tutor/internal/generation"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/ratelimit"
	"github.com/phrazzld/scry-tutor/internal/redact"
	"github.com/phrazzld/scry-tutor/internal/retry"
)

// DefaultTimeout bounds a single provider attempt.
const DefaultTimeout = 30 * time.Second

var tracer = otel.Tracer("github.com/phrazzld/scry-tutor/internal/upstream")

// Call is one logical completion request.
type Call struct {
	// Caller and Tier select the rate-limit bucket.
	Caller string
	Tier   ratelimit.Tier

	Model    string
	Messages []generation.Message
	Params   generation.Params
}

// Config holds the client settings.
type Config struct {
	// Timeout bounds each attempt; zero means DefaultTimeout.
	Timeout time.Duration
	Retry   retry.Policy
}

// Client sends calls to a provider. It is safe for concurrent use.
type Client struct {
	provider generation.Provider
	limiter  *ratelimit.Limiter
	breakers *breaker.Registry
	config   Config
}

// NewClient creates a Client. limiter and breakers are shared across clients.
func NewClient(
	provider generation.Provider,
	limiter *ratelimit.Limiter,
	breakers *breaker.Registry,
	config Config,
) (*Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: provider is required", generation.ErrInvalidConfig)
	}
	if limiter == nil {
		return nil, fmt.Errorf("%w: rate limiter is required", generation.ErrInvalidConfig)
	}
	if breakers == nil {
		return nil, fmt.Errorf("%w: breaker registry is required", generation.ErrInvalidConfig)
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Client{
		provider: provider,
		limiter:  limiter,
		breakers: breakers,
		config:   config,
	}, nil
}

// Provider returns the wrapped provider.
func (c *Client) Provider() generation.Provider {
	return c.provider
}

// Complete runs one logical call: rate limit, breaker gate, then retried provider attempts.
// The breaker records exactly one outcome per logical call, and permanent provider errors
// do not count as endpoint failures. Attempts are detached from ctx cancellation so an
// accepted call always resolves through the retry policy.
//
// Returned errors wrap generation.ErrRateLimited, ErrCircuitOpen, ErrTimeout or ErrUpstream.
func (c *Client) Complete(ctx context.Context, call Call) (string, error) {
	ctx, span := tracer.Start(ctx, "upstream.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", c.provider.Name()),
		attribute.String("llm.model", call.Model),
		attribute.String("ratelimit.tier", string(call.Tier)),
	)

	log := logger.FromContext(ctx).With(
		"provider", c.provider.Name(),
		"model", call.Model,
	)

	if !c.limiter.Allow(call.Caller, call.Tier) {
		log.WarnContext(ctx, "caller rate limited", "caller", call.Caller, "tier", call.Tier)
		span.SetStatus(codes.Error, "rate limited")
		return "", fmt.Errorf("%w: caller %q exhausted tier %q", generation.ErrRateLimited, call.Caller, call.Tier)
	}

	endpoint := c.provider.Endpoint()
	req := generation.Request{
		Model:    call.Model,
		Messages: call.Messages,
		Params:   call.Params,
	}

	start := time.Now()
	var text string
	var err error
	attempts := 0
	gateErr := c.breakers.For(endpoint).Execute(context.WithoutCancel(ctx), func(ctx context.Context) error {
		err = c.config.Retry.Do(ctx, func(ctx context.Context, attempt int) error {
			attempts = attempt
			out, err := c.attempt(ctx, req)
			if err != nil {
				return err
			}
			text = out
			return nil
		})
		// A permanent error means the endpoint answered; only transient failures and
		// timeouts count against it.
		if generation.IsRetryable(err) {
			return err
		}
		return nil
	})
	if errors.Is(gateErr, breaker.ErrOpen) {
		log.WarnContext(ctx, "circuit open, rejecting call", "endpoint", endpoint)
		span.SetStatus(codes.Error, "circuit open")
		return "", fmt.Errorf("%w: endpoint %s", generation.ErrCircuitOpen, endpoint)
	}
	span.SetAttributes(attribute.Int("upstream.attempts", attempts))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, generation.Kind(err))
		log.ErrorContext(ctx, "upstream call failed",
			"attempts", attempts,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", redact.Error(err))
		if errors.Is(err, generation.ErrTimeout) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", generation.ErrUpstream, err)
	}

	log.InfoContext(ctx, "upstream call succeeded",
		"attempts", attempts,
		"duration_ms", time.Since(start).Milliseconds(),
		"response_chars", len(text))
	return text, nil
}

func (c *Client) attempt(ctx context.Context, req generation.Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	out, err := c.provider.Complete(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: no response within %s", generation.ErrTimeout, c.config.Timeout)
		}
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: %w", generation.ErrTransientFailure, generation.ErrEmptyResponse)
	}
	return out, nil
}
