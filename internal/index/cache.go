package index

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a snapshot serves before a read triggers a
// rebuild.
const DefaultTTL = 5 * time.Minute

// BuildFunc produces a fresh snapshot.
type BuildFunc func(ctx context.Context) (*Snapshot, error)

// Cache hands out the current snapshot and rebuilds it when stale.
// Rebuilds coalesce: concurrent callers that find the snapshot
// expired share a single build. While a rebuild runs, and after a
// failed one, the previous snapshot keeps serving.
type Cache struct {
	ttl   time.Duration
	build BuildFunc

	current atomic.Pointer[Snapshot]
	group   singleflight.Group
}

// NewCache creates a snapshot cache. A non-positive ttl uses
// DefaultTTL.
func NewCache(ttl time.Duration, build BuildFunc) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{ttl: ttl, build: build}
}

// Get returns a fresh snapshot, rebuilding first if the current one
// is missing or past its TTL.
func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	return c.ensureFresh(ctx, false)
}

// Refresh rebuilds unconditionally and returns the new snapshot.
func (c *Cache) Refresh(ctx context.Context) (*Snapshot, error) {
	return c.ensureFresh(ctx, true)
}

// Current returns the live snapshot without freshness checks, or nil
// before the first build.
func (c *Cache) Current() *Snapshot {
	return c.current.Load()
}

// Invalidate expires the current snapshot so the next Get rebuilds.
func (c *Cache) Invalidate() {
	c.current.Store(nil)
}

func (c *Cache) fresh() *Snapshot {
	snap := c.current.Load()
	if snap == nil || time.Since(snap.BuiltAt()) >= c.ttl {
		return nil
	}
	return snap
}

func (c *Cache) ensureFresh(ctx context.Context, force bool) (*Snapshot, error) {
	if !force {
		if snap := c.fresh(); snap != nil {
			return snap, nil
		}
	}

	v, err, _ := c.group.Do("rebuild", func() (any, error) {
		// A caller that queued behind a finished rebuild is served by
		// the snapshot that rebuild just produced.
		if !force {
			if snap := c.fresh(); snap != nil {
				return snap, nil
			}
		}

		start := time.Now()
		snap, err := c.build(ctx)
		if err != nil {
			return nil, err
		}

		c.current.Store(snap)
		slog.Info("index rebuilt",
			slog.Int("documents", snap.DocumentCount()),
			slog.Duration("elapsed", time.Since(start)))
		return snap, nil
	})

	if err != nil {
		if force {
			// An explicit refresh reports its failure; the previous
			// snapshot stays live for readers either way.
			return nil, err
		}
		// The stale snapshot is still correct data; keep serving it
		// rather than failing reads.
		if prev := c.current.Load(); prev != nil {
			slog.Warn("index rebuild failed, serving previous snapshot",
				slog.String("error", err.Error()),
				slog.Time("builtAt", prev.BuiltAt()))
			return prev, nil
		}
		return nil, err
	}

	return v.(*Snapshot), nil
}
