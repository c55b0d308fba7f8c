// Package cache provides the in-memory identity and content caches the client
// fills while dispatching webhook events.
package cache

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"
)

// DefaultCapacity bounds each cache when Policy.Capacity is zero.
const DefaultCapacity = 10_000

// Policy controls how much a cache may hold and for how long.
type Policy struct {
	// Capacity is the maximum number of entries. Zero means DefaultCapacity.
	// A negative value disables eviction entirely (unbounded growth).
	Capacity int

	// TTL expires entries this long after their last Add. Zero disables expiry.
	TTL time.Duration
}

// Unbounded is the policy of a cache that never evicts.
var Unbounded = Policy{Capacity: -1}

// Observer is notified on every lookup. hit is false for misses and for
// expired entries.
type Observer func(cache string, hit bool)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a concurrency-safe keyed cache with an optional LRU bound and TTL.
type Cache[K comparable, V any] struct {
	name   string
	policy Policy
	clock  clockwork.Clock

	mu      sync.Mutex
	bounded *lru.Cache[K, entry[V]]
	entries map[K]entry[V]
	observe Observer
}

// New creates a cache. A nil clock uses the real clock.
func New[K comparable, V any](name string, policy Policy, clock clockwork.Clock) (*Cache[K, V], error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if policy.Capacity == 0 {
		policy.Capacity = DefaultCapacity
	}
	c := &Cache[K, V]{name: name, policy: policy, clock: clock}
	if policy.Capacity > 0 {
		l, err := lru.New[K, entry[V]](policy.Capacity)
		if err != nil {
			return nil, fmt.Errorf("cache %s: %w", name, err)
		}
		c.bounded = l
	} else {
		c.entries = make(map[K]entry[V])
	}
	return c, nil
}

// Name returns the cache name used in logs and metrics.
func (c *Cache[K, V]) Name() string { return c.name }

// Policy returns the effective policy after defaults.
func (c *Cache[K, V]) Policy() Policy { return c.policy }

// SetObserver installs a lookup observer, replacing any previous one.
func (c *Cache[K, V]) SetObserver(o Observer) {
	c.mu.Lock()
	c.observe = o
	c.mu.Unlock()
}

// Add stores value under key, refreshing its TTL and recency.
func (c *Cache[K, V]) Add(key K, value V) {
	e := entry[V]{value: value}
	if c.policy.TTL > 0 {
		e.expiresAt = c.clock.Now().Add(c.policy.TTL)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bounded != nil {
		if evicted := c.bounded.Add(key, e); evicted {
			slog.Debug("cache eviction", slog.String("cache", c.name), slog.Int("capacity", c.policy.Capacity))
		}
		return
	}
	c.entries[key] = e
}

// Get returns the value for key. Expired entries are removed and reported as
// misses.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	e, ok := c.lookup(key)
	if ok && c.expired(e) {
		c.remove(key)
		ok = false
	}
	observe := c.observe
	c.mu.Unlock()

	if observe != nil {
		observe(c.name, ok)
	}
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Pop removes key and returns the value it held, if any.
func (c *Cache[K, V]) Pop(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lookup(key)
	if ok {
		c.remove(key)
	}
	if !ok || c.expired(e) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bounded != nil {
		return c.bounded.Len()
	}
	return len(c.entries)
}

func (c *Cache[K, V]) lookup(key K) (entry[V], bool) {
	if c.bounded != nil {
		return c.bounded.Get(key)
	}
	e, ok := c.entries[key]
	return e, ok
}

func (c *Cache[K, V]) remove(key K) {
	if c.bounded != nil {
		c.bounded.Remove(key)
		return
	}
	delete(c.entries, key)
}

func (c *Cache[K, V]) expired(e entry[V]) bool {
	return !e.expiresAt.IsZero() && !c.clock.Now().Before(e.expiresAt)
}
