package reactions

import (
	"time"

	"github.com/metronon/likewise/internal/resources"
)

// Identity names one logical reaction record
type Identity struct {
	ActorID    int64
	ResourceID int64
	Kind       resources.Kind
}

// PendingDelta is an in-memory, not-yet-persisted reaction state change.
// IsNew marks the first-ever record for its identity; FirstSeenAt is only
// meaningful when IsNew is set.
type PendingDelta struct {
	ActorID     int64
	ResourceID  int64
	Kind        resources.Kind
	Active      bool
	IsNew       bool
	FirstSeenAt time.Time
	ChangedAt   time.Time
}

func (d PendingDelta) identity() Identity {
	return Identity{ActorID: d.ActorID, ResourceID: d.ResourceID, Kind: d.Kind}
}

// ToggleResult is what a toggle returns to its caller. Count comes from the
// cache and is approximate until reconciliation runs.
type ToggleResult struct {
	Active bool
	Count  int64
}

// ToggleEvent describes an accepted toggle for downstream consumers
// (notification fan-out lives outside this engine).
type ToggleEvent struct {
	ActorID    int64
	ResourceID int64
	OwnerID    int64
	Kind       resources.Kind
	Active     bool
	At         time.Time
}
