package cache

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// Memory is an in-process Cache for single-instance deployments and tests.
// Expiry is lazy: entries are dropped when a read finds them stale.
type Memory struct {
	ttl    time.Duration
	likes  *xsync.MapOf[string, memoryEntry]
	counts *xsync.MapOf[string, counterEntry]
	now    func() time.Time
}

type memoryEntry struct {
	entry     Entry
	expiresAt time.Time
}

type counterEntry struct {
	value     int64
	expiresAt time.Time
}

// NewMemory creates an in-process cache with the given entry TTL
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:    ttl,
		likes:  xsync.NewMapOf[string, memoryEntry](),
		counts: xsync.NewMapOf[string, counterEntry](),
		now:    time.Now,
	}
}

// GetLike returns the state entry for a like key and whether it was present
func (c *Memory) GetLike(ctx context.Context, key string) (*Entry, bool, error) {
	stored, ok := c.likes.Load(key)
	if !ok {
		return nil, false, nil
	}
	if c.now().After(stored.expiresAt) {
		c.likes.Delete(key)
		return nil, false, nil
	}

	entry := stored.entry
	return &entry, true, nil
}

// SetLike writes a state entry and resets its TTL
func (c *Memory) SetLike(ctx context.Context, key string, entry Entry) error {
	c.likes.Store(key, memoryEntry{
		entry:     entry,
		expiresAt: c.now().Add(c.ttl),
	})
	return nil
}

// BumpCount atomically adjusts a counter with a zero floor and TTL refresh
func (c *Memory) BumpCount(ctx context.Context, key string, delta int64) (int64, error) {
	var result int64
	c.counts.Compute(key, func(old counterEntry, loaded bool) (counterEntry, bool) {
		value := old.value
		if !loaded || c.now().After(old.expiresAt) {
			value = 0
		}
		value += delta
		if value < 0 {
			value = 0
		}
		result = value
		return counterEntry{value: value, expiresAt: c.now().Add(c.ttl)}, false
	})
	return result, nil
}

// GetCount returns the cached counter, or 0 when absent
func (c *Memory) GetCount(ctx context.Context, key string) (int64, error) {
	stored, ok := c.counts.Load(key)
	if !ok {
		return 0, nil
	}
	if c.now().After(stored.expiresAt) {
		c.counts.Delete(key)
		return 0, nil
	}
	return stored.value, nil
}

// Close is a no-op for the in-process cache
func (c *Memory) Close() error {
	return nil
}
