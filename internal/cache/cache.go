// Package cache stores rendered answers keyed by a fingerprint of the normalized request.
//
// Memory is the in-process tier. Tiered layers it over a durable Store so answers survive
// restarts. Entries carry their own expiry; nothing is returned after it passes.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrStoreUnavailable wraps failures of a durable tier.
var ErrStoreUnavailable = errors.New("cache store unavailable")

// Entry is a cached value and the moment it stops being valid.
type Entry struct {
	Value     []byte
	ExpiresAt time.Time
}

// Expired reports whether the entry is no longer valid at now.
func (e Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Store is a TTL key/value store.
type Store interface {
	// Get returns the entry for key when present and unexpired.
	Get(ctx context.Context, key string) (Entry, bool, error)

	// Set stores value for ttl. A ttl of zero or less removes key instead.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Stats counts cache activity since creation.
type Stats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Evictions     int64 `json:"evictions"`
	Entries       int   `json:"entries"`
	DurableHits   int64 `json:"durable_hits"`
	DurableErrors int64 `json:"durable_errors"`
}

// Option configures a Memory cache.
type Option func(*Memory)

// WithClock replaces the wall clock used for expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}
