// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenGate Contributors

package account

import (
	"context"
	"sync"
	"time"
)

// Default cache configuration values.
const (
	// DefaultCacheTTL bounds how long a cached account is served before
	// the store must be consulted again.
	DefaultCacheTTL = 30 * time.Second

	// defaultSweepInterval is how often the janitor evicts expired entries.
	defaultSweepInterval = time.Minute
)

// CacheOption configures Cache behavior.
type CacheOption func(*cacheConfig)

type cacheConfig struct {
	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time
}

// WithTTL sets the time-to-live for cached entries.
func WithTTL(d time.Duration) CacheOption {
	return func(c *cacheConfig) {
		c.ttl = d
	}
}

// WithSweepInterval sets how often the background janitor runs.
func WithSweepInterval(d time.Duration) CacheOption {
	return func(c *cacheConfig) {
		c.sweepInterval = d
	}
}

// WithClock overrides the time source. Tests use this to step through
// TTL expiry without sleeping.
func WithClock(now func() time.Time) CacheOption {
	return func(c *cacheConfig) {
		c.now = now
	}
}

type cacheEntry struct {
	account  Account
	storedAt time.Time
}

// Cache is a bounded-lifetime map from canonical key to Account.
//
// Entries older than the TTL are treated as absent even before the
// janitor physically evicts them. There is no count bound: the TTL plus
// the small per-key footprint keeps the map size harmless for this
// workload.
type Cache struct {
	cfg cacheConfig

	mu      sync.RWMutex
	entries map[string]cacheEntry

	// wg tracks the janitor goroutine for graceful shutdown.
	wg sync.WaitGroup
}

// NewCache creates a Cache with the given options.
func NewCache(opts ...CacheOption) *Cache {
	cfg := cacheConfig{
		ttl:           DefaultCacheTTL,
		sweepInterval: defaultSweepInterval,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Cache{
		cfg:     cfg,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached account for key, or false when the key is
// absent or its entry has outlived the TTL.
func (c *Cache) Get(key string) (*Account, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.cfg.now().Sub(entry.storedAt) >= c.cfg.ttl {
		return nil, false
	}

	// Return a copy so callers cannot mutate the cached record.
	acct := entry.account
	return &acct, true
}

// Put stores an account under key, resetting its age.
func (c *Cache) Put(key string, acct Account) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{account: acct, storedAt: c.cfg.now()}
	c.mu.Unlock()
}

// Invalidate removes the entry for key. Invalidating an absent or
// already-expired key is a no-op.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of physically present entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Start spawns the background janitor that evicts expired entries.
// The goroutine exits when the context is cancelled; call Wait to block
// until it has stopped. Start is optional: correctness never depends on
// physical eviction, only memory footprint does.
func (c *Cache) Start(ctx context.Context) {
	c.wg.Add(1)
	go c.sweepLoop(ctx)
}

// Wait blocks until the janitor has exited.
func (c *Cache) Wait() {
	c.wg.Wait()
}

func (c *Cache) sweepLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

// sweep removes all entries older than the TTL.
func (c *Cache) sweep() {
	now := c.cfg.now()

	c.mu.Lock()
	for key, entry := range c.entries {
		if now.Sub(entry.storedAt) >= c.cfg.ttl {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}
