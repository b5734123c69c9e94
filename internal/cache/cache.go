// Package cache stores per-photo face detection outcomes keyed by the
// photo's stable UID, with optional persistence through a pluggable store.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
)

// Store is a durable key-value target for cache snapshots. Load returns
// ErrNotFound (or any error) when no snapshot exists for the key.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// Cache maps a photo UID to its detection outcome (has a qualifying face).
// All mutations are serialized through a single mutex; Persist writes a
// snapshot through the configured store without blocking the caller.
type Cache struct {
	mu      sync.Mutex
	entries map[string]bool

	store Store
	key   string

	persisting atomic.Bool
}

// New creates an in-memory cache with no persistence target.
func New() *Cache {
	return &Cache{entries: make(map[string]bool)}
}

// NewWithStore creates a cache backed by a persistence target. If the store
// holds a decodable snapshot for the key, the cache preloads from it; a
// missing or undecodable snapshot silently yields an empty cache.
func NewWithStore(ctx context.Context, store Store, key string) *Cache {
	c := &Cache{
		entries: make(map[string]bool),
		store:   store,
		key:     key,
	}
	data, err := store.Load(ctx, key)
	if err != nil || len(data) == 0 {
		return c
	}
	var entries map[string]bool
	if err := json.Unmarshal(data, &entries); err != nil {
		// Corrupt snapshot is treated as no prior cache.
		return c
	}
	c.entries = entries
	return c
}

// Get returns the cached outcome for a photo UID and whether one exists.
func (c *Cache) Get(uid string) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	outcome, ok := c.entries[uid]
	return outcome, ok
}

// Set records the outcome for a photo UID. Last write wins.
func (c *Cache) Set(uid string, hasFace bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[uid] = hasFace
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Snapshot returns a copy of the full mapping for host-managed export.
func (c *Cache) Snapshot() map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := make(map[string]bool, len(c.entries))
	for uid, outcome := range c.entries {
		snapshot[uid] = outcome
	}
	return snapshot
}

// Replace overwrites the full mapping, for host-managed import.
func (c *Cache) Replace(entries map[string]bool) {
	replacement := make(map[string]bool, len(entries))
	for uid, outcome := range entries {
		replacement[uid] = outcome
	}
	c.mu.Lock()
	c.entries = replacement
	c.mu.Unlock()
}

// PersistSync writes the current snapshot to the persistence target and
// waits for the result, for host-managed import.
func (c *Cache) PersistSync(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	data, err := json.Marshal(c.Snapshot())
	if err != nil {
		return err
	}
	return c.store.Save(ctx, c.key, data)
}

// Persist serializes the current snapshot to the persistence target on a
// background goroutine. It is a no-op without a store, and overlapping calls
// collapse into the in-flight write.
func (c *Cache) Persist() {
	if c.store == nil {
		return
	}
	if !c.persisting.CompareAndSwap(false, true) {
		return
	}
	snapshot := c.Snapshot()
	go func() {
		defer c.persisting.Store(false)
		data, err := json.Marshal(snapshot)
		if err != nil {
			return
		}
		// Best effort: a failed save leaves the previous snapshot in place.
		_ = c.store.Save(context.Background(), c.key, data)
	}()
}
