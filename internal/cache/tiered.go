package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/phrazzld/scry-tutor/internal/platform/logger"
)

// Tiered reads through an in-memory tier to an optional durable tier. Durable hits are
// promoted into memory with their remaining lifetime. Durable failures are returned
// wrapped in ErrStoreUnavailable and never hide a memory hit.
type Tiered struct {
	memory  *Memory
	durable Store
	now     func() time.Time

	durableHits   atomic.Int64
	durableErrors atomic.Int64
}

var _ Store = (*Tiered)(nil)

// NewTiered layers memory over durable. durable may be nil.
func NewTiered(memory *Memory, durable Store) *Tiered {
	return &Tiered{memory: memory, durable: durable, now: memory.now}
}

// Get checks memory first, then the durable tier.
func (t *Tiered) Get(ctx context.Context, key string) (Entry, bool, error) {
	if entry, ok, _ := t.memory.Get(ctx, key); ok {
		return entry, true, nil
	}
	if t.durable == nil {
		return Entry{}, false, nil
	}

	entry, ok, err := t.durable.Get(ctx, key)
	if err != nil {
		t.durableErrors.Add(1)
		logger.FromContext(ctx).WarnContext(ctx, "durable cache read failed",
			"error", err,
			"key", key)
		return Entry{}, false, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if !ok {
		return Entry{}, false, nil
	}

	remaining := entry.ExpiresAt.Sub(t.now())
	if remaining <= 0 {
		return Entry{}, false, nil
	}
	t.durableHits.Add(1)
	_ = t.memory.Set(ctx, key, entry.Value, remaining)
	return entry, true, nil
}

// Set writes both tiers. The memory write always happens.
func (t *Tiered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_ = t.memory.Set(ctx, key, value, ttl)
	if t.durable == nil {
		return nil
	}
	if err := t.durable.Set(ctx, key, value, ttl); err != nil {
		t.durableErrors.Add(1)
		logger.FromContext(ctx).WarnContext(ctx, "durable cache write failed",
			"error", err,
			"key", key)
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// Delete removes key from both tiers.
func (t *Tiered) Delete(ctx context.Context, key string) error {
	_ = t.memory.Delete(ctx, key)
	if t.durable == nil {
		return nil
	}
	if err := t.durable.Delete(ctx, key); err != nil {
		t.durableErrors.Add(1)
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// Stats combines the memory counters with durable tier activity.
func (t *Tiered) Stats() Stats {
	s := t.memory.Stats()
	s.DurableHits = t.durableHits.Load()
	s.DurableErrors = t.durableErrors.Load()
	return s
}
