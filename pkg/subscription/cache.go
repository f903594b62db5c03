package subscription

import (
	"container/list"
	"context"
	"sync"
	"time"
)

const (
	DefaultCacheTTL      = 5 * time.Minute
	DefaultCacheCapacity = 256
)

type cacheEntry struct {
	planID    string
	metadata  map[string]string
	expiresAt time.Time
}

// CachedSource decorates a MetadataSource with a bounded TTL cache.
// Unknown plans are not cached so a newly published plan is picked up on the next call.
type CachedSource struct {
	source   MetadataSource
	ttl      time.Duration
	capacity int
	now      func() time.Time

	mu       sync.Mutex
	items    map[string]*list.Element
	eviction *list.List
}

// CacheOption configures a CachedSource.
type CacheOption func(*CachedSource)

func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *CachedSource) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithCacheCapacity(capacity int) CacheOption {
	return func(c *CachedSource) {
		if capacity > 0 {
			c.capacity = capacity
		}
	}
}

func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *CachedSource) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCachedSource(source MetadataSource, opts ...CacheOption) *CachedSource {
	if source == nil {
		panic("subscription: metadata source is required")
	}
	c := &CachedSource{
		source:   source,
		ttl:      DefaultCacheTTL,
		capacity: DefaultCacheCapacity,
		now:      time.Now,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachedSource) PlanMetadata(ctx context.Context, planID string) (map[string]string, error) {
	if md, ok := c.get(planID); ok {
		return md, nil
	}

	md, err := c.source.PlanMetadata(ctx, planID)
	if err != nil {
		return nil, err
	}
	c.put(planID, md)
	return copyMetadata(md), nil
}

// WritePlanMetadata passes the write to the wrapped source and drops the cached entry.
func (c *CachedSource) WritePlanMetadata(ctx context.Context, planID string, metadata map[string]string) error {
	w, ok := c.source.(MetadataWriter)
	if !ok {
		return ErrReadOnlySource
	}
	if err := w.WritePlanMetadata(ctx, planID, metadata); err != nil {
		return err
	}
	c.Invalidate(planID)
	return nil
}

// Invalidate drops a single plan from the cache.
func (c *CachedSource) Invalidate(planID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[planID]; ok {
		c.remove(elem)
	}
}

// Len returns the number of cached plans, including expired ones not yet evicted.
func (c *CachedSource) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eviction.Len()
}

func (c *CachedSource) get(planID string) (map[string]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[planID]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if !c.now().Before(entry.expiresAt) {
		c.remove(elem)
		return nil, false
	}
	c.eviction.MoveToFront(elem)
	return copyMetadata(entry.metadata), true
}

func (c *CachedSource) put(planID string, md map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)
	if elem, ok := c.items[planID]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.metadata = copyMetadata(md)
		entry.expiresAt = expiresAt
		c.eviction.MoveToFront(elem)
		return
	}

	elem := c.eviction.PushFront(&cacheEntry{planID: planID, metadata: copyMetadata(md), expiresAt: expiresAt})
	c.items[planID] = elem

	if c.eviction.Len() > c.capacity {
		if oldest := c.eviction.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
}

func (c *CachedSource) remove(elem *list.Element) {
	c.eviction.Remove(elem)
	delete(c.items, elem.Value.(*cacheEntry).planID)
}

var _ MetadataStore = (*CachedSource)(nil)
