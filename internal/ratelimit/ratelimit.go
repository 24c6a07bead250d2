// Package ratelimit implements per-caller token buckets grouped by service tier.
//
// Each (caller, tier) pair owns one bucket. Buckets are created lazily, start full, and
// refill continuously from elapsed wall-clock time; Allow never blocks.
package ratelimit

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Tier selects the capacity and refill rate of a caller's bucket.
type Tier string

// Supported tiers.
const (
	TierLow    Tier = "low"
	TierNormal Tier = "normal"
	TierHigh   Tier = "high"
)

// ParseTier maps a tier name to a Tier. Unknown or empty names map to TierNormal.
func ParseTier(s string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierLow:
		return TierLow
	case TierHigh:
		return TierHigh
	default:
		return TierNormal
	}
}

// TierLimits configures the bucket of one tier.
type TierLimits struct {
	Capacity        int
	RefillPerSecond float64
}

// DefaultTiers returns the built-in tier table.
func DefaultTiers() map[Tier]TierLimits {
	return map[Tier]TierLimits{
		TierLow:    {Capacity: 5, RefillPerSecond: 0.1},
		TierNormal: {Capacity: 20, RefillPerSecond: 0.5},
		TierHigh:   {Capacity: 60, RefillPerSecond: 2},
	}
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now as the source of refill time.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

type bucketKey struct {
	caller string
	tier   Tier
}

// Limiter holds one token bucket per (caller, tier). It is safe for concurrent use.
type Limiter struct {
	tiers map[Tier]TierLimits
	now   func() time.Time

	mu      sync.Mutex
	buckets map[bucketKey]*rate.Limiter
}

// NewLimiter creates a Limiter. Tiers missing from the table fall back to DefaultTiers.
func NewLimiter(tiers map[Tier]TierLimits, opts ...Option) *Limiter {
	merged := DefaultTiers()
	for tier, limits := range tiers {
		if limits.Capacity > 0 && limits.RefillPerSecond > 0 {
			merged[tier] = limits
		}
	}
	l := &Limiter{
		tiers:   merged,
		now:     time.Now,
		buckets: make(map[bucketKey]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow consumes one token from the caller's bucket for the tier and reports whether
// one was available. Unknown tiers are treated as TierNormal.
func (l *Limiter) Allow(caller string, tier Tier) bool {
	b := l.bucket(caller, tier)
	return b.AllowN(l.now(), 1)
}

// Tokens reports the tokens currently available to the caller without consuming any.
func (l *Limiter) Tokens(caller string, tier Tier) float64 {
	b := l.bucket(caller, tier)
	tokens := b.TokensAt(l.now())
	if tokens < 0 {
		return 0
	}
	return tokens
}

// Limits returns the effective limits of a tier.
func (l *Limiter) Limits(tier Tier) TierLimits {
	return l.tiers[l.normalize(tier)]
}

func (l *Limiter) normalize(tier Tier) Tier {
	if _, ok := l.tiers[tier]; ok {
		return tier
	}
	return TierNormal
}

func (l *Limiter) bucket(caller string, tier Tier) *rate.Limiter {
	key := bucketKey{caller: caller, tier: l.normalize(tier)}

	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		limits := l.tiers[key.tier]
		b = rate.NewLimiter(rate.Limit(limits.RefillPerSecond), limits.Capacity)
		l.buckets[key] = b
	}
	return b
}
