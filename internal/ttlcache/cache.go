package ttlcache

import (
	"sync"
	"time"
)

// Defaults applied by Config.withDefaults when a field is zero.
const (
	DefaultTTL        = 5 * time.Minute
	DefaultMaxEntries = 1000
	DefaultGCInterval = 60 * time.Second
)

// Config controls cache behavior. The zero value is usable; zero fields
// fall back to the package defaults.
type Config struct {
	// DefaultTTL is applied by Set when no explicit TTL is given.
	DefaultTTL time.Duration
	// MaxEntries bounds the number of live entries. Inserting a new key at
	// capacity evicts the oldest entry by creation time.
	MaxEntries int
	// GCInterval is how often the background sweeper runs. Negative
	// disables the sweeper entirely.
	GCInterval time.Duration
	// UpdateOnAccess enables sliding expiration: a successful Get resets
	// the entry's expiry to now + DefaultTTL.
	UpdateOnAccess bool
}

func (c Config) withDefaults() Config {
	if c.DefaultTTL == 0 {
		c.DefaultTTL = DefaultTTL
	}
	if c.MaxEntries == 0 {
		c.MaxEntries = DefaultMaxEntries
	}
	if c.GCInterval == 0 {
		c.GCInterval = DefaultGCInterval
	}
	return c
}

// Entry is a cached value with its lifecycle metadata. Callers always
// receive copies; the cache never hands out a reference to its own state.
type Entry[V any] struct {
	Value     V         `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Hits      int       `json:"hits"`
}

// KeyedEntry pairs an entry with its key for snapshotting and restore.
type KeyedEntry[V any] struct {
	Key string `json:"key"`
	Entry[V]
}

// Stats holds running operation counters. Entries tracks the live entry
// count; the other four only ever grow until ResetStats.
type Stats struct {
	Entries     int `json:"entries"`
	Hits        int `json:"hits"`
	Misses      int `json:"misses"`
	Evictions   int `json:"evictions"`
	Expirations int `json:"expirations"`
}

// Cache is a TTL cache for values of type V, keyed by string.
type Cache[V any] struct {
	mu      sync.Mutex
	cfg     Config
	entries map[string]*Entry[V]
	stats   Stats

	now func() time.Time // swapped out in tests

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a cache and starts its background sweeper (unless the
// configured GC interval is negative). The caller owns the instance and
// must call Destroy when done with it.
func New[V any](cfg Config) *Cache[V] {
	c := &Cache[V]{
		cfg:     cfg.withDefaults(),
		entries: make(map[string]*Entry[V]),
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	if c.cfg.GCInterval > 0 {
		go c.sweep(c.cfg.GCInterval)
	}

	return c
}

// sweep runs GC on every tick until Destroy.
func (c *Cache[V]) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.GC()
		}
	}
}

// Get returns the value for key. An absent key is a miss; an expired entry
// is deleted, counted as an expiration, and reported as a miss. A hit bumps
// the entry's hit counter and, with UpdateOnAccess, extends its expiry.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V

	e, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}
	if c.expireLocked(key, e) {
		c.stats.Misses++
		return zero, false
	}

	e.Hits++
	c.stats.Hits++
	if c.cfg.UpdateOnAccess {
		e.ExpiresAt = c.now().Add(c.cfg.DefaultTTL)
	}

	return e.Value, true
}

// Has reports whether key holds a live value. Expired entries are deleted
// just like in Get, but Has never touches the hit/miss counters.
func (c *Cache[V]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	return !c.expireLocked(key, e)
}

// expireLocked deletes e if it is past its expiry and returns true if it did.
func (c *Cache[V]) expireLocked(key string, e *Entry[V]) bool {
	if !c.now().After(e.ExpiresAt) {
		return false
	}
	delete(c.entries, key)
	c.stats.Expirations++
	c.stats.Entries--
	return true
}

// Set stores value under key with the default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.cfg.DefaultTTL)
}

// SetWithTTL stores value under key, expiring after ttl. Inserting a new
// key at capacity first evicts the oldest entry by creation time;
// overwriting an existing key never evicts.
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	if _, exists := c.entries[key]; !exists {
		if len(c.entries) >= c.cfg.MaxEntries {
			c.evictOldestLocked()
		}
		c.stats.Entries++
	}

	c.entries[key] = &Entry[V]{
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// evictOldestLocked removes the entry with the earliest creation time.
func (c *Cache[V]) evictOldestLocked() {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for key, e := range c.entries {
		if !found || e.CreatedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = e.CreatedAt
			found = true
		}
	}
	if !found {
		return
	}
	delete(c.entries, oldestKey)
	c.stats.Evictions++
	c.stats.Entries--
}

// Delete removes key and reports whether it was present.
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	c.stats.Entries--
	return true
}

// Clear removes all entries. Operation counters are kept; use ResetStats
// to zero them.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*Entry[V])
	c.stats.Entries = 0
}

// Keys returns the keys currently stored, in no particular order.
func (c *Cache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return keys
}

// Len returns the number of stored entries, including any not yet swept.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Entries returns a snapshot of all non-expired entries, suitable for
// serialization and a later Restore.
func (c *Cache[V]) Entries() []KeyedEntry[V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	snapshot := make([]KeyedEntry[V], 0, len(c.entries))
	for key, e := range c.entries {
		if now.After(e.ExpiresAt) {
			continue
		}
		snapshot = append(snapshot, KeyedEntry[V]{Key: key, Entry: *e})
	}
	return snapshot
}

// Restore inserts snapshot entries whose expiry is still in the future,
// preserving their creation times and hit counts. Entries already expired
// are silently dropped.
func (c *Cache[V]) Restore(snapshot []KeyedEntry[V]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for _, ke := range snapshot {
		if now.After(ke.ExpiresAt) {
			continue
		}
		if _, exists := c.entries[ke.Key]; !exists {
			c.stats.Entries++
		}
		e := ke.Entry
		c.entries[ke.Key] = &e
	}
}

// GC sweeps the whole map once, deleting every expired entry. It returns
// the number removed and re-seeds the entry counter from the live map.
func (c *Cache[V]) GC() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.After(e.ExpiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	c.stats.Expirations += removed
	c.stats.Entries = len(c.entries)
	return removed
}

// Stats returns a copy of the current counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// ResetStats zeroes the operation counters and re-seeds the entry count
// from the live map.
func (c *Cache[V]) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = Stats{Entries: len(c.entries)}
}

// Destroy stops the background sweeper and drops all entries. It is
// idempotent; using the cache after Destroy is a caller bug.
func (c *Cache[V]) Destroy() {
	c.stopOnce.Do(func() { close(c.stop) })
	c.Clear()
}
