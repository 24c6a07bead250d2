package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is a bounded in-process Store. It is safe for concurrent use.
type Memory struct {
	capacity int
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]Entry
	stats   Stats
}

var _ Store = (*Memory)(nil)

// NewMemory creates a cache holding at most capacity entries. A capacity below one is
// treated as one.
func NewMemory(capacity int, opts ...Option) *Memory {
	if capacity < 1 {
		capacity = 1
	}
	m := &Memory{
		capacity: capacity,
		now:      time.Now,
		entries:  make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a copy of the value for key. Expired entries are removed on access.
func (m *Memory) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		m.stats.Misses++
		return Entry{}, false, nil
	}
	if entry.Expired(m.now()) {
		delete(m.entries, key)
		m.stats.Evictions++
		m.stats.Misses++
		return Entry{}, false, nil
	}

	m.stats.Hits++
	return Entry{Value: clone(entry.Value), ExpiresAt: entry.ExpiresAt}, true, nil
}

// Set stores a copy of value for ttl. When the cache is full, expired entries are purged
// first and then the entry closest to expiry is evicted.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ttl <= 0 {
		delete(m.entries, key)
		return nil
	}

	now := m.now()
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.capacity {
		m.purgeExpired(now)
		if len(m.entries) >= m.capacity {
			m.evictSoonest()
		}
	}

	m.entries[key] = Entry{Value: clone(value), ExpiresAt: now.Add(ttl)}
	return nil
}

// Delete removes key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, including expired ones not yet purged.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Stats returns a snapshot of the counters.
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats
	s.Entries = len(m.entries)
	return s
}

func (m *Memory) purgeExpired(now time.Time) {
	for key, entry := range m.entries {
		if entry.Expired(now) {
			delete(m.entries, key)
			m.stats.Evictions++
		}
	}
}

func (m *Memory) evictSoonest() {
	var (
		victim  string
		soonest time.Time
		found   bool
	)
	for key, entry := range m.entries {
		if !found || entry.ExpiresAt.Before(soonest) || (entry.ExpiresAt.Equal(soonest) && key < victim) {
			victim, soonest, found = key, entry.ExpiresAt, true
		}
	}
	if found {
		delete(m.entries, victim)
		m.stats.Evictions++
	}
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
