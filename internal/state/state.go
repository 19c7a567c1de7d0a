// Package state implements the shared market-state cache.
//
// One mutable mapping from instrument key to latest quote, guarded by a
// single RWMutex. Writers are the REST poller and the feed streamer, which
// run concurrently; readers are dashboard refresh ticks, which take a copy.
// Last write wins, no versioning.
package state

import (
	"sync"
	"time"

	"github.com/kmehta/futspread/internal/model"
)

// Cache holds the latest quote per instrument key.
type Cache struct {
	mu     sync.RWMutex
	quotes map[string]model.Quote
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		quotes: make(map[string]model.Quote),
	}
}

// Update overwrites the entry for key unconditionally and stamps the write
// time. Nil prices are stored as-is; they mean "not observed in this update".
func (c *Cache) Update(key string, bid, ask, ltp *float64) {
	c.mu.Lock()
	c.quotes[key] = model.Quote{
		Bid:       bid,
		Ask:       ask,
		LTP:       ltp,
		UpdatedAt: time.Now(),
	}
	c.mu.Unlock()
}

// Get returns the latest quote for key, or a zero quote (all fields nil) if
// the instrument has never been observed.
func (c *Cache) Get(key string) model.Quote {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.quotes[key]
}

// Snapshot returns a copy of the full mapping for lock-free iteration.
func (c *Cache) Snapshot() map[string]model.Quote {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]model.Quote, len(c.quotes))
	for k, q := range c.quotes {
		out[k] = q
	}
	return out
}

// Len returns the number of instruments observed so far.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.quotes)
}

// LastUpdate returns the most recent write time across all entries, zero if
// the cache is empty.
func (c *Cache) LastUpdate() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var last time.Time
	for _, q := range c.quotes {
		if q.UpdatedAt.After(last) {
			last = q.UpdatedAt
		}
	}
	return last
}
