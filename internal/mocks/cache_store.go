package mocks

import (
	"context"
	"time"

	"github.com/phrazzld/scry-tutor/internal/cache"
	"github.com/stretchr/testify/mock"
)

// TestifyMockCacheStore is a mock of cache.Store for use with testify/mock.
type TestifyMockCacheStore struct {
	mock.Mock
}

// Get is a mock implementation of cache.Store.Get
func (m *TestifyMockCacheStore) Get(ctx context.Context, key string) (cache.Entry, bool, error) {
	args := m.Called(ctx, key)
	entry, _ := args.Get(0).(cache.Entry)
	return entry, args.Bool(1), args.Error(2)
}

// Set is a mock implementation of cache.Store.Set
func (m *TestifyMockCacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

// Delete is a mock implementation of cache.Store.Delete
func (m *TestifyMockCacheStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

var _ cache.Store = (*TestifyMockCacheStore)(nil)
