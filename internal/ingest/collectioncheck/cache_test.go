// internal/ingest/collectioncheck/cache_test.go
package collectioncheck

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stac-ingestor/internal/common/logger"
	"stac-ingestor/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type countingRegistry struct {
	stubRegistry
	existsCalls int
}

func (c *countingRegistry) Exists(ctx context.Context, collectionID string) (bool, error) {
	c.existsCalls++
	return c.stubRegistry.Exists(ctx, collectionID)
}

func newCacheFixture(t *testing.T, inner Registry, ttl time.Duration) (*CachedRegistry, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewCachedRegistry(inner, rdb, ttl, logger.NewTestLogger(t)), mr
}

// ==========================
// Cached Registry Tests
// ==========================

func TestCachedRegistry_Exists_CachesPositiveLookup(t *testing.T) {
	inner := &countingRegistry{stubRegistry: stubRegistry{exists: true}}
	cached, _ := newCacheFixture(t, inner, time.Minute)

	for i := 0; i < 3; i++ {
		exists, err := cached.Exists(context.Background(), "sentinel-2-l2a")
		require.NoError(t, err)
		assert.True(t, exists)
	}

	assert.Equal(t, 1, inner.existsCalls)
}

func TestCachedRegistry_Exists_CachesNegativeLookup(t *testing.T) {
	inner := &countingRegistry{stubRegistry: stubRegistry{exists: false}}
	cached, _ := newCacheFixture(t, inner, time.Minute)

	for i := 0; i < 3; i++ {
		exists, err := cached.Exists(context.Background(), "unknown")
		require.NoError(t, err)
		assert.False(t, exists)
	}

	assert.Equal(t, 1, inner.existsCalls)
}

func TestCachedRegistry_Exists_TTLExpiryHitsRegistryAgain(t *testing.T) {
	inner := &countingRegistry{stubRegistry: stubRegistry{exists: true}}
	cached, mr := newCacheFixture(t, inner, 50*time.Millisecond)

	_, err := cached.Exists(context.Background(), "sentinel-2-l2a")
	require.NoError(t, err)

	mr.FastForward(time.Second)

	_, err = cached.Exists(context.Background(), "sentinel-2-l2a")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.existsCalls)
}

func TestCachedRegistry_RegisterInvalidatesCache(t *testing.T) {
	inner := &countingRegistry{stubRegistry: stubRegistry{exists: false}}
	cached, _ := newCacheFixture(t, inner, time.Minute)

	exists, err := cached.Exists(context.Background(), "new-collection")
	require.NoError(t, err)
	assert.False(t, exists)

	inner.exists = true
	require.NoError(t, cached.Register(context.Background(), models.Collection{ID: "new-collection"}))

	exists, err = cached.Exists(context.Background(), "new-collection")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 2, inner.existsCalls)
}

func TestCachedRegistry_DeleteInvalidatesCache(t *testing.T) {
	inner := &countingRegistry{stubRegistry: stubRegistry{exists: true}}
	cached, _ := newCacheFixture(t, inner, time.Minute)

	exists, err := cached.Exists(context.Background(), "old-collection")
	require.NoError(t, err)
	assert.True(t, exists)

	inner.exists = false
	require.NoError(t, cached.Delete(context.Background(), "old-collection"))

	exists, err = cached.Exists(context.Background(), "old-collection")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCachedRegistry_CacheOutageFallsThroughToRegistry(t *testing.T) {
	inner := &countingRegistry{stubRegistry: stubRegistry{exists: true}}
	cached, mr := newCacheFixture(t, inner, time.Minute)

	mr.Close()

	exists, err := cached.Exists(context.Background(), "sentinel-2-l2a")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 1, inner.existsCalls)
}

func TestCachedRegistry_CacheReadErrorStillServesLookup(t *testing.T) {
	inner := &countingRegistry{stubRegistry: stubRegistry{exists: true}}
	rdb, mock := redismock.NewClientMock()
	cached := NewCachedRegistry(inner, rdb, time.Minute, logger.NewTestLogger(t))

	mock.ExpectGet("collection:exists:sentinel-2-l2a").SetErr(stderrors.New("READONLY replica"))
	mock.ExpectSet("collection:exists:sentinel-2-l2a", "1", time.Minute).SetVal("OK")

	exists, err := cached.Exists(context.Background(), "sentinel-2-l2a")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 1, inner.existsCalls)
	assert.NoError(t, mock.ExpectationsWereMet())
}
