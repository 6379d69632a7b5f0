package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-scheduler/internal/models"
	appErrors "github.com/noah-isme/sma-adp-scheduler/pkg/errors"
)

type fakeCacheRepository struct {
	store map[string]interface{}
}

func newFakeCacheRepository() *fakeCacheRepository {
	return &fakeCacheRepository{store: map[string]interface{}{}}
}

func (f *fakeCacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	val, ok := f.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	switch d := dest.(type) {
	case *[]string:
		*d = val.([]string)
	case *string:
		*d = val.(string)
	case *[]models.Schedule:
		*d = val.([]models.Schedule)
	default:
		return nil
	}
	return nil
}

func (f *fakeCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.store[key] = value
	return nil
}

func (f *fakeCacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	delete(f.store, pattern)
	return nil
}

func TestCacheServiceGetSetInvalidate(t *testing.T) {
	repo := newFakeCacheRepository()
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	require.True(t, svc.Enabled())

	var dest string
	hit, err := svc.Get(context.Background(), "k1", &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(context.Background(), "k1", "value", 0))

	hit, err = svc.Get(context.Background(), "k1", &dest)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "value", dest)

	require.NoError(t, svc.Invalidate(context.Background(), "k1"))
	hit, err = svc.Get(context.Background(), "k1", &dest)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceDisabledWhenNoRepo(t *testing.T) {
	svc := NewCacheService(nil, nil, time.Minute, zap.NewNop(), true)
	assert.False(t, svc.Enabled())

	var dest string
	hit, err := svc.Get(context.Background(), "k1", &dest)
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, svc.Set(context.Background(), "k1", "value", 0))
}

func TestCacheServiceNilReceiverIsSafe(t *testing.T) {
	var svc *CacheService
	assert.False(t, svc.Enabled())

	var dest string
	hit, err := svc.Get(context.Background(), "k1", &dest)
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, svc.Set(context.Background(), "k1", "value", 0))
	require.NoError(t, svc.Invalidate(context.Background(), "k1"))
}
