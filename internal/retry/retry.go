// Package retry repeats operations that failed with a transient error.
package retry

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/phrazzld/scry-tutor/internal/generation"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
)

// Defaults applied to zero-valued Policy fields.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 500 * time.Millisecond
)

// Policy retries an operation with exponential backoff and additive jitter.
//
// The delay after failed attempt n (zero-based) is BaseDelay*2^n plus a uniform jitter in
// [0, BaseDelay). Delays are not interrupted by context cancellation.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// Retryable classifies errors; nil means generation.IsRetryable.
	Retryable func(error) bool
	// Sleep waits between attempts; nil means time.Sleep.
	Sleep func(time.Duration)
	// Jitter returns a value in [0, base); nil means a uniform random draw.
	Jitter func(base time.Duration) time.Duration
}

// Op is one attempt. attempt starts at 1.
type Op func(ctx context.Context, attempt int) error

// Do runs op until it succeeds, returns a non-retryable error, or MaxAttempts is reached.
// On exhaustion the last error is returned unchanged.
func (p Policy) Do(ctx context.Context, op Op) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = generation.IsRetryable
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	log := logger.FromContext(ctx)

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = op(ctx, attempt)
		if err == nil {
			return nil
		}

		if !retryable(err) {
			log.DebugContext(ctx, "permanent error, not retrying",
				"attempt", attempt,
				"error_kind", generation.Kind(err))
			return err
		}

		if attempt == maxAttempts {
			log.WarnContext(ctx, "maximum retry attempts reached",
				"max_attempts", maxAttempts,
				"error_kind", generation.Kind(err))
			break
		}

		delay := p.Delay(attempt - 1)
		log.InfoContext(ctx, "transient error, retrying after delay",
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error_kind", generation.Kind(err)))
		sleep(delay)
	}

	return err
}

// Delay returns the wait after the failed attempt with zero-based index n.
func (p Policy) Delay(n int) time.Duration {
	base := p.BaseDelay
	if base < 0 {
		base = 0
	}
	if n < 0 {
		n = 0
	}
	if n > 30 {
		n = 30
	}
	backoff := base * time.Duration(1<<n)
	return backoff + p.jitter(base)
}

func (p Policy) jitter(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	if p.Jitter != nil {
		return p.Jitter(base)
	}
	return rand.N(base)
}
