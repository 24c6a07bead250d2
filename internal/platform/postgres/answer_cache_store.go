package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-tutor/internal/cache"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/store"
)

// AnswerCacheStore implements cache.Store on the answer_cache table.
type AnswerCacheStore struct {
	db     store.DBTX
	logger *slog.Logger
	now    func() time.Time
}

var _ cache.Store = (*AnswerCacheStore)(nil)

// Option configures an AnswerCacheStore.
type Option func(*AnswerCacheStore)

// WithClock replaces the clock used to compute and check expiry.
func WithClock(now func() time.Time) Option {
	return func(s *AnswerCacheStore) { s.now = now }
}

// NewAnswerCacheStore creates a store on db. If logger is nil the default logger is used.
func NewAnswerCacheStore(db store.DBTX, logger *slog.Logger, opts ...Option) *AnswerCacheStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &AnswerCacheStore{
		db:     db,
		logger: logger.With("component", "answer_cache_store"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the unexpired entry for key.
func (s *AnswerCacheStore) Get(ctx context.Context, key string) (cache.Entry, bool, error) {
	var entry cache.Entry
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM answer_cache WHERE key = $1 AND expires_at > $2`,
		key, s.now().UTC(),
	).Scan(&entry.Value, &entry.ExpiresAt)
	if err != nil {
		err = MapError(err)
		if store.IsNotFoundError(err) {
			return cache.Entry{}, false, nil
		}
		logger.FromContext(ctx).ErrorContext(ctx, "failed to read cached answer", "error", err)
		return cache.Entry{}, false, store.NewStoreError("answer_cache", "get", "query failed", err)
	}
	return entry, true, nil
}

// Set upserts value with an expiry of now+ttl. A ttl of zero or less deletes key.
func (s *AnswerCacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return s.Delete(ctx, key)
	}
	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO answer_cache (key, value, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at`,
		key, value, now.Add(ttl), now,
	)
	if err != nil {
		logger.FromContext(ctx).ErrorContext(ctx, "failed to write cached answer", "error", err)
		return store.NewStoreError("answer_cache", "set", "upsert failed", MapError(err))
	}
	return nil
}

// Delete removes key.
func (s *AnswerCacheStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM answer_cache WHERE key = $1`, key); err != nil {
		return store.NewStoreError("answer_cache", "delete", "delete failed", MapError(err))
	}
	return nil
}

// PurgeExpired deletes every expired row and returns how many were removed.
func (s *AnswerCacheStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM answer_cache WHERE expires_at <= $1`, s.now().UTC())
	if err != nil {
		return 0, store.NewStoreError("answer_cache", "purge", "delete failed", MapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, store.NewStoreError("answer_cache", "purge", "rows affected", err)
	}
	s.logger.DebugContext(ctx, "purged expired answers", "count", n)
	return n, nil
}
