// Package cache provides the fast reaction-state layer in front of the
// system of record. Entries carry a TTL; an absent state entry means
// "unknown, consult the store", while an absent counter reads as zero
// because reconciliation guarantees eventual correction.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Entry mirrors one reaction record's current state
type Entry struct {
	Active      bool       `json:"active"`
	FirstSeenAt *time.Time `json:"first_seen_at,omitempty"` // set only when the record has never been persisted
	ChangedAt   time.Time  `json:"changed_at"`
}

// Cache is the key/value layer holding reaction state and counters
type Cache interface {
	// GetLike returns the state entry for a like key and whether it was present
	GetLike(ctx context.Context, key string) (*Entry, bool, error)

	// SetLike writes a state entry and resets its TTL
	SetLike(ctx context.Context, key string, entry Entry) error

	// BumpCount atomically adjusts a counter by delta (±1), refreshes its TTL,
	// and returns the new value. An absent key is created at max(0, delta);
	// the counter never goes negative.
	BumpCount(ctx context.Context, key string, delta int64) (int64, error)

	// GetCount returns the cached counter, or 0 when absent
	GetCount(ctx context.Context, key string) (int64, error)

	// Close releases any underlying connections
	Close() error
}

// LikeKey builds the per-(actor, resource) state key
func LikeKey(kind string, resourceID, actorID int64) string {
	return fmt.Sprintf("like:%s:%d:%d", kind, resourceID, actorID)
}

// CountKey builds the per-resource counter key
func CountKey(kind string, resourceID int64) string {
	return fmt.Sprintf("likeCount:%s:%d", kind, resourceID)
}
