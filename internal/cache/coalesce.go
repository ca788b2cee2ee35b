package cache

import (
	"context"

	"golang.org/x/sync/singleflight"

	"graduation-scanner/internal/domain"
	"graduation-scanner/internal/observability"
)

// LoadFunc fetches pairs from the upstream on a cache miss.
type LoadFunc func(ctx context.Context) ([]domain.Pair, error)

// Coalescer serves reads from a Store and lets at most one load per key
// run at a time. Concurrent misses on one key wait for and share that load.
// Failed loads are never cached.
type Coalescer struct {
	store Store
	group singleflight.Group
}

// NewCoalescer wraps store.
func NewCoalescer(store Store) *Coalescer {
	return &Coalescer{store: store}
}

// Fetch returns the cached pairs for key, or loads and caches them.
// The second return reports whether the result came from the cache.
func (c *Coalescer) Fetch(ctx context.Context, key string, load LoadFunc) ([]domain.Pair, bool, error) {
	if pairs, ok := c.store.Get(ctx, key); ok {
		observability.RecordCacheLookup(true)
		return pairs, true, nil
	}
	observability.RecordCacheLookup(false)

	// The shared load outlives any one caller: it runs detached from ctx and
	// is bounded by the loader's own timeout. Each caller stops waiting when
	// its own ctx ends.
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		// A load that finished while we waited may already have filled the key.
		if pairs, ok := c.store.Get(detached, key); ok {
			return pairs, nil
		}
		pairs, err := load(detached)
		if err != nil {
			return nil, err
		}
		c.store.Set(detached, key, pairs)
		return pairs, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return clonePairs(res.Val.([]domain.Pair)), false, nil
	}
}
