package power

import (
	"context"
	"fmt"
	"sync"

	"github.com/atmoslabs/comfort-engine/internal/domain"
	"github.com/atmoslabs/comfort-engine/internal/observability"
)

// CachedSource wraps a ClimatologySource with an in-memory LRU cache.
// Climatology normals are static, so region requests that revisit nearby
// coordinates (and repeated point queries) skip the upstream round trip.
// Coordinates are quantized to 4 decimal places in the key, matching the
// precision sent to the API.
type CachedSource struct {
	inner   domain.ClimatologySource
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a climatology source.
func NewCachedSource(inner domain.ClimatologySource, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedSource) Climatology(ctx context.Context, coord domain.Coordinate, day domain.CalendarDay) (domain.ClimateDistribution, error) {
	key := fmt.Sprintf("%.4f,%.4f|%02d", coord.Lat, coord.Lon, day.Month)
	if dist, ok := c.cache.get(key); ok {
		c.metrics.SourceCache.WithLabelValues("hit").Inc()
		// Rekey to the requested day; the underlying normals are monthly.
		dist.Coord = coord
		dist.Day = day
		return dist, nil
	}
	c.metrics.SourceCache.WithLabelValues("miss").Inc()

	dist, err := c.inner.Climatology(ctx, coord, day)
	if err != nil {
		// Failures (including no-data) are not cached so transient outages
		// can recover.
		return dist, err
	}
	c.cache.put(key, dist)
	return dist, nil
}

// Healthy delegates to the inner source when it exposes a health check.
func (c *CachedSource) Healthy() error {
	if h, ok := c.inner.(interface{ Healthy() error }); ok {
		return h.Healthy()
	}
	return nil
}

// lruCache is a simple thread-safe LRU cache for climate distributions.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.ClimateDistribution
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.ClimateDistribution, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.ClimateDistribution{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.ClimateDistribution) {
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
