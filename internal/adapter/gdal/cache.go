package gdal

import (
	"context"
	"sync"

	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/observability"
	"github.com/couchcryptid/lst-etl/internal/raster"
)

// SceneLoader is the port CachedLoader decorates.
type SceneLoader interface {
	Load(ctx context.Context, scene domain.SceneRecord, aoi domain.AreaOfInterest) (*raster.Image, error)
}

// CachedLoader wraps a SceneLoader with an in-memory LRU cache keyed by
// scene and AOI, so a date retried in a later pass does not download its
// scenes again. Cached images are shared and must not be modified.
type CachedLoader struct {
	inner   SceneLoader
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedLoader creates a cache decorator around a loader.
func NewCachedLoader(inner SceneLoader, maxEntries int, metrics *observability.Metrics) *CachedLoader {
	return &CachedLoader{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedLoader) Load(ctx context.Context, scene domain.SceneRecord, aoi domain.AreaOfInterest) (*raster.Image, error) {
	key := scene.ID + "|" + aoi.String()
	if img, ok := c.cache.get(key); ok {
		c.metrics.SceneCache.WithLabelValues("hit").Inc()
		return img, nil
	}
	c.metrics.SceneCache.WithLabelValues("miss").Inc()

	img, err := c.inner.Load(ctx, scene, aoi)
	if err != nil {
		return nil, err
	}
	c.cache.put(key, img)
	return img, nil
}

// lruCache is a simple thread-safe LRU cache of loaded scenes.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value *raster.Image
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (*raster.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value *raster.Image) {
	if c.maxEntries <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
