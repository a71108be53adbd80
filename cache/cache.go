// Package cache holds backend reads that are the same for every visitor,
// such as site data and the schedule, for a short TTL.
package cache

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	data      any
	expiresAt time.Time
}

// Cache is a TTL cache safe for concurrent use. Concurrent misses for the
// same key share one load.
type Cache struct {
	store sync.Map
	ttl   time.Duration
	group singleflight.Group
	done  chan struct{}
	once  sync.Once

	// gens counts Clear calls per key; a load only stores its result if
	// no Clear happened while it ran.
	mu   sync.Mutex
	gens map[string]uint64
}

// New creates a cache whose entries live for ttl and starts the cleanup loop.
func New(ttl time.Duration) *Cache {
	c := &Cache{
		ttl:  ttl,
		done: make(chan struct{}),
		gens: make(map[string]uint64),
	}
	go c.startCleanup(time.Minute)
	return c
}

func (c *Cache) Get(key string) (any, bool) {
	val, ok := c.store.Load(key)
	if !ok {
		slog.Debug("Cache miss", "key", key)
		return nil, false
	}

	e := val.(entry)
	if time.Now().After(e.expiresAt) {
		c.store.Delete(key)
		slog.Debug("Cache expired", "key", key)
		return nil, false
	}

	slog.Debug("Cache hit", "key", key)
	return e.data, true
}

func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.store.Store(key, entry{
		data:      value,
		expiresAt: time.Now().Add(ttl),
	})
	slog.Debug("Cache set", "key", key, "ttl", ttl)
}

// Clear drops key and any load in flight for it, so the next Load refetches.
func (c *Cache) Clear(key string) {
	c.mu.Lock()
	c.gens[key]++
	c.store.Delete(key)
	c.mu.Unlock()
	c.group.Forget(key)
	slog.Debug("Cache cleared", "key", key)
}

// Load returns the cached value for key, calling fn on a miss.
// Errors are returned to every waiting caller and are not cached.
func (c *Cache) Load(key string, fn func() (any, error)) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		c.mu.Lock()
		gen := c.gens[key]
		c.mu.Unlock()

		v, err := fn()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gens[key] != gen {
			slog.Debug("Cache load discarded after clear", "key", key)
			return v, nil
		}
		c.Set(key, v)
		return v, nil
	})
	if shared {
		slog.Debug("Cache load shared", "key", key)
	}
	return v, err
}

// Close stops the cleanup loop.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *Cache) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			now := time.Now()
			c.store.Range(func(key, val any) bool {
				if now.After(val.(entry).expiresAt) {
					c.store.Delete(key)
				}
				return true
			})
		}
	}
}
