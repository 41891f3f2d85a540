// SPDX-License-Identifier: MPL-2.0

// Package objcache is the in-process object cache shared by the application.
// Entries expire after their TTL and the least recently used ones are
// evicted once the cache is full.
package objcache

import (
	"errors"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/appvisor/appvisor/internal/testutil"
)

// DefaultSize is the entry bound used when New is given a non-positive size.
const DefaultSize = 4096

// ErrStopped is returned by Set after Shutdown and before the next Reset.
var ErrStopped = errors.New("object cache is stopped")

type (
	// Cache is a bounded TTL cache. Reset and Shutdown follow the runtime
	// lifecycle: Shutdown on stop, Reset on start.
	Cache struct {
		size  int
		clock testutil.Clock

		mu      sync.RWMutex
		entries *lru.Cache[string, entry]
	}

	entry struct {
		value   any
		expires time.Time
	}
)

// New creates a stopped cache. Call Reset before use.
func New(size int, clock testutil.Clock) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	if clock == nil {
		clock = testutil.RealClock{}
	}
	return &Cache{size: size, clock: clock}
}

// Reset drops every entry and (re)opens the cache.
func (c *Cache) Reset() {
	entries, err := lru.New[string, entry](c.size)
	if err != nil {
		// Only reachable with a non-positive size, which New rules out.
		panic(err)
	}
	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
}

// Shutdown drops every entry and closes the cache.
func (c *Cache) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries != nil {
		c.entries.Purge()
	}
	c.entries = nil
}

// Running reports whether the cache accepts entries.
func (c *Cache) Running() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries != nil
}

// Set stores value under key. A zero ttl never expires.
func (c *Cache) Set(key string, value any, ttl time.Duration) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entries == nil {
		return ErrStopped
	}
	e := entry{value: value}
	if ttl > 0 {
		e.expires = c.clock.Now().Add(ttl)
	}
	c.entries.Add(key, e)
	return nil
}

// Get returns the live value stored under key.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entries == nil {
		return nil, false
	}
	e, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && !c.clock.Now().Before(e.expires) {
		c.entries.Remove(key)
		return nil, false
	}
	return e.value, true
}

// Delete removes key.
func (c *Cache) Delete(key string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entries != nil {
		c.entries.Remove(key)
	}
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entries == nil {
		return 0
	}
	return c.entries.Len()
}
