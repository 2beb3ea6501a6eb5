package weather

import (
	"context"
	"fmt"
	"sync"
	"voyage-routing-service/internal/grid"
	"voyage-routing-service/internal/platform/metrics"
	"voyage-routing-service/internal/ports"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const DefaultCacheEntries = 256

// Builds a grid on a cache miss.
type BuildFunc func(ctx context.Context) (*grid.Grid, error)

// GridCache holds built grids keyed by grid.Key. Concurrent requests for the
// same key share a single build; only successful builds are stored, so a
// failed build is retried by the next caller. Entries are evicted oldest
// first once the cache holds maxEntries grids.
//
// An optional GridSnapshotStore is consulted before building and written
// after, letting several service instances share grids.
type GridCache struct {
	group   singleflight.Group
	store   ports.GridSnapshotStore
	metrics *metrics.Collector

	maxEntries int

	mu      sync.RWMutex
	entries map[string]*grid.Grid
	order   []string
}

func NewGridCache(maxEntries int, store ports.GridSnapshotStore, m *metrics.Collector) *GridCache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	return &GridCache{
		store:      store,
		metrics:    m,
		maxEntries: maxEntries,
		entries:    make(map[string]*grid.Grid),
	}
}

// Get returns the grid for key, building it with build when it is neither
// cached nor in the shared store. The build runs detached from ctx so that
// one caller giving up does not fail the others waiting on it; each caller
// still stops waiting when its own ctx is done.
func (c *GridCache) Get(ctx context.Context, key grid.Key, build BuildFunc) (*grid.Grid, error) {
	k := key.String()

	if g, ok := c.lookup(k); ok {
		c.metrics.GridCache("hit")
		return g, nil
	}

	ch := c.group.DoChan(k, func() (any, error) {
		return c.load(context.WithoutCancel(ctx), k, build)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.metrics.GridCache("shared")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*grid.Grid), nil
	}
}

func (c *GridCache) load(ctx context.Context, k string, build BuildFunc) (*grid.Grid, error) {
	// Another build may have finished between the lookup and DoChan.
	if g, ok := c.lookup(k); ok {
		return g, nil
	}

	if c.store != nil {
		g, ok, err := c.store.GetGrid(ctx, k)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("key", k).Msg("grid store read failed")
		case ok:
			c.metrics.GridCache("store_hit")
			c.insert(k, g)
			return g, nil
		}
	}

	g, err := build(ctx)
	if err != nil {
		c.metrics.GridCache("error")
		return nil, fmt.Errorf("build grid %s: %w", k, err)
	}
	if g == nil {
		c.metrics.GridCache("error")
		return nil, fmt.Errorf("build grid %s: builder returned no grid", k)
	}
	c.metrics.GridCache("miss")
	c.insert(k, g)

	if c.store != nil {
		if err := c.store.PutGrid(ctx, k, g); err != nil {
			log.Warn().Err(err).Str("key", k).Msg("grid store write failed")
		}
	}
	return g, nil
}

func (c *GridCache) lookup(k string) (*grid.Grid, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.entries[k]
	return g, ok
}

func (c *GridCache) insert(k string, g *grid.Grid) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[k]; ok {
		c.entries[k] = g
		return
	}
	for len(c.order) >= c.maxEntries {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
	c.entries[k] = g
	c.order = append(c.order, k)
}

// Len reports the number of grids held in memory.
func (c *GridCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
