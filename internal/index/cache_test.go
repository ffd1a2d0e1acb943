package index

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devapihub/apisearch/internal/errors"
)

func stubSnapshot() *Snapshot {
	return &Snapshot{builtAt: time.Now(), documentCount: 1}
}

func TestCacheGetBuildsOnce(t *testing.T) {
	var builds atomic.Int64
	cache := NewCache(time.Minute, func(ctx context.Context) (*Snapshot, error) {
		builds.Add(1)
		return stubSnapshot(), nil
	})

	ctx := context.Background()
	first, err := cache.Get(ctx)
	require.NoError(t, err)
	second, err := cache.Get(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second, "fresh snapshot is reused")
	assert.Equal(t, int64(1), builds.Load())
}

func TestCacheTTLExpiry(t *testing.T) {
	var builds atomic.Int64
	cache := NewCache(20*time.Millisecond, func(ctx context.Context) (*Snapshot, error) {
		builds.Add(1)
		return stubSnapshot(), nil
	})

	ctx := context.Background()
	first, err := cache.Get(ctx)
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)

	second, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, second, "expired snapshot is rebuilt")
	assert.Equal(t, int64(2), builds.Load())
}

func TestCacheConcurrentGetsCoalesce(t *testing.T) {
	var builds atomic.Int64
	release := make(chan struct{})
	cache := NewCache(time.Minute, func(ctx context.Context) (*Snapshot, error) {
		builds.Add(1)
		<-release
		return stubSnapshot(), nil
	})

	ctx := context.Background()
	const callers = 16

	var wg sync.WaitGroup
	snaps := make([]*Snapshot, callers)
	for i := range snaps {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap, err := cache.Get(ctx)
			assert.NoError(t, err)
			snaps[i] = snap
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), builds.Load(), "concurrent gets share one rebuild")
	for i := 1; i < callers; i++ {
		assert.Same(t, snaps[0], snaps[i])
	}
}

func TestCacheRefreshForcesRebuild(t *testing.T) {
	var builds atomic.Int64
	cache := NewCache(time.Minute, func(ctx context.Context) (*Snapshot, error) {
		builds.Add(1)
		return stubSnapshot(), nil
	})

	ctx := context.Background()
	first, err := cache.Get(ctx)
	require.NoError(t, err)

	second, err := cache.Refresh(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, int64(2), builds.Load())
}

func TestCacheServesStaleOnFailedRebuild(t *testing.T) {
	var fail atomic.Bool
	cache := NewCache(20*time.Millisecond, func(ctx context.Context) (*Snapshot, error) {
		if fail.Load() {
			return nil, errors.DatabaseError("db is down", nil)
		}
		return stubSnapshot(), nil
	})

	ctx := context.Background()
	first, err := cache.Get(ctx)
	require.NoError(t, err)

	fail.Store(true)
	time.Sleep(30 * time.Millisecond)

	stale, err := cache.Get(ctx)
	require.NoError(t, err, "reads survive a failed rebuild")
	assert.Same(t, first, stale)
}

func TestCacheRefreshReportsFailure(t *testing.T) {
	var fail atomic.Bool
	cache := NewCache(time.Minute, func(ctx context.Context) (*Snapshot, error) {
		if fail.Load() {
			return nil, errors.DatabaseError("db is down", nil)
		}
		return stubSnapshot(), nil
	})

	ctx := context.Background()
	first, err := cache.Get(ctx)
	require.NoError(t, err)

	fail.Store(true)
	_, err = cache.Refresh(ctx)
	require.Error(t, err, "explicit refresh surfaces the failure")

	// The previous snapshot keeps serving reads.
	snap, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Same(t, first, snap)
}

func TestCacheFirstBuildFailure(t *testing.T) {
	cache := NewCache(time.Minute, func(ctx context.Context) (*Snapshot, error) {
		return nil, errors.DatabaseError("db is down", nil)
	})

	_, err := cache.Get(context.Background())
	require.Error(t, err, "no stale snapshot exists to fall back on")
	assert.Equal(t, errors.ErrCodeDatabaseRead, errors.GetCode(err))
}

func TestCacheInvalidate(t *testing.T) {
	var builds atomic.Int64
	cache := NewCache(time.Minute, func(ctx context.Context) (*Snapshot, error) {
		builds.Add(1)
		return stubSnapshot(), nil
	})

	ctx := context.Background()
	_, err := cache.Get(ctx)
	require.NoError(t, err)

	cache.Invalidate()
	assert.Nil(t, cache.Current())

	_, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), builds.Load())
}
