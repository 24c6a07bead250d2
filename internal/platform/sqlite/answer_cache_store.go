package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-tutor/internal/cache"
	"github.com/phrazzld/scry-tutor/internal/store"
)

// AnswerCacheStore implements cache.Store on SQLite. Expiry is stored as Unix
// nanoseconds.
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

// NewAnswerCacheStore creates a store on db, which must have been prepared by Open.
func NewAnswerCacheStore(db store.DBTX, logger *slog.Logger, opts ...Option) *AnswerCacheStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &AnswerCacheStore{
		db:     db,
		logger: logger.With("component", "answer_cache_store", "driver", "sqlite"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the unexpired entry for key.
func (s *AnswerCacheStore) Get(ctx context.Context, key string) (cache.Entry, bool, error) {
	var (
		value     []byte
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM answer_cache WHERE key = ? AND expires_at > ?`,
		key, s.now().UnixNano(),
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cache.Entry{}, false, nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to read cached answer", "error", err)
		return cache.Entry{}, false, store.NewStoreError("answer_cache", "get", "query failed", err)
	}
	return cache.Entry{Value: value, ExpiresAt: time.Unix(0, expiresAt).UTC()}, true, nil
}

// Set upserts value with an expiry of now+ttl. A ttl of zero or less deletes key.
func (s *AnswerCacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return s.Delete(ctx, key)
	}
	if len(value) == 0 {
		return store.NewStoreError("answer_cache", "set", "empty value", store.ErrInvalidEntity)
	}
	now := s.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO answer_cache (key, value, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE
		SET value = excluded.value, expires_at = excluded.expires_at, updated_at = excluded.updated_at`,
		key, value, now.Add(ttl).UnixNano(), now.UnixNano(),
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to write cached answer", "error", err)
		return store.NewStoreError("answer_cache", "set", "upsert failed", err)
	}
	return nil
}

// Delete removes key.
func (s *AnswerCacheStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM answer_cache WHERE key = ?`, key); err != nil {
		return store.NewStoreError("answer_cache", "delete", "delete failed", err)
	}
	return nil
}

// PurgeExpired deletes every expired row and returns how many were removed.
func (s *AnswerCacheStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM answer_cache WHERE expires_at <= ?`, s.now().UnixNano())
	if err != nil {
		return 0, store.NewStoreError("answer_cache", "purge", "delete failed", err)
	}
	return res.RowsAffected()
}
