package repository

import (
	"context"
	"sync"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

// LocalCache is the in-process counterpart of RedisCache for single-process
// deployments. It keeps the same version floor per key.
type LocalCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]localEntry
}

type localEntry struct {
	rec     *model.InventoryRecord
	floor   int64
	expires time.Time
}

func NewLocalCache(ttl time.Duration) *LocalCache {
	return &LocalCache{ttl: ttl, now: time.Now, entries: make(map[string]localEntry)}
}

func (c *LocalCache) live(k string) (localEntry, bool) {
	e, ok := c.entries[k]
	if !ok {
		return localEntry{}, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, k)
		return localEntry{}, false
	}
	return e, true
}

func (c *LocalCache) Get(_ context.Context, key model.StockKey) (*model.InventoryRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.live(key.String())
	if !ok || e.rec == nil {
		return nil, false
	}
	rec := *e.rec
	return &rec, true
}

func (c *LocalCache) Set(_ context.Context, rec *model.InventoryRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := rec.StockKey.String()
	if e, ok := c.live(k); ok && rec.Version < e.floor {
		return
	}
	cp := *rec
	c.entries[k] = localEntry{rec: &cp, floor: rec.Version, expires: c.now().Add(c.ttl)}
}

func (c *LocalCache) Invalidate(_ context.Context, key model.StockKey, version int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key.String()
	floor := version
	if e, ok := c.live(k); ok && e.floor > floor {
		floor = e.floor
	}
	c.entries[k] = localEntry{floor: floor, expires: c.now().Add(c.ttl)}
}
