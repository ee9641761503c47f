package crud

import (
	"net/url"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultStaleAfter is how long a cached list may be reused without a
// round-trip.
const DefaultStaleAfter = 10 * time.Minute

type cacheEntry struct {
	endpoint  string
	value     any
	fetchedAt time.Time
}

// Cache maps (endpoint, params) keys to the last successful list result.
// Entries are dropped explicitly by Invalidate or InvalidateEndpoint, or
// ignored once older than the staleness window.
//
// Each endpoint has a generation that InvalidateEndpoint bumps. A fetch
// records the generation before it starts and stores its result with
// SetIfCurrent, so a response that raced an invalidation is discarded.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	gens       map[string]uint64
	staleAfter time.Duration
	clock      clockwork.Clock
}

type CacheOption func(*Cache)

func WithStaleAfter(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.staleAfter = d
		}
	}
}

func WithCacheClock(clock clockwork.Clock) CacheOption {
	return func(c *Cache) { c.clock = clock }
}

func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		entries:    make(map[string]cacheEntry),
		gens:       make(map[string]uint64),
		staleAfter: DefaultStaleAfter,
		clock:      clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key builds the cache key for a list request. url.Values.Encode sorts by
// key, so equal parameter sets share a key.
func Key(endpoint string, params url.Values) string {
	if len(params) == 0 {
		return endpoint
	}
	return endpoint + "?" + params.Encode()
}

// Get returns the fresh value stored under key.
func (c *Cache) Get(key string) (any, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, time.Time{}, false
	}
	if c.clock.Since(e.fetchedAt) >= c.staleAfter {
		delete(c.entries, key)
		return nil, time.Time{}, false
	}
	return e.value, e.fetchedAt, true
}

// Set stores value under key unconditionally and returns its fetch time.
func (c *Cache) Set(endpoint, key string, value any) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	c.entries[key] = cacheEntry{endpoint: endpoint, value: value, fetchedAt: now}
	return now
}

// Generation reports the current invalidation generation of endpoint.
func (c *Cache) Generation(endpoint string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[endpoint]
}

// SetIfCurrent stores value only when endpoint has not been invalidated since
// gen was read.
func (c *Cache) SetIfCurrent(endpoint, key string, value any, gen uint64) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	if c.gens[endpoint] != gen {
		return now, false
	}
	c.entries[key] = cacheEntry{endpoint: endpoint, value: value, fetchedAt: now}
	return now, true
}

// Invalidate drops a single key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidateEndpoint drops every key of endpoint and bumps its generation.
func (c *Cache) InvalidateEndpoint(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[endpoint]++
	for k, e := range c.entries {
		if e.endpoint == endpoint {
			delete(c.entries, k)
		}
	}
}

// Len reports the number of stored entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
