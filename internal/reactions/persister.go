package reactions

import (
	"context"

	"github.com/metronon/likewise/internal/ops"
	"github.com/metronon/likewise/internal/resources"
	"github.com/metronon/likewise/internal/store"
)

// Persister converts a batch of deltas into minimal SQL operations: one bulk
// insert for brand-new records and one conditional bulk update for existing
// ones, per resource kind.
type Persister struct {
	store  *store.Store
	logger *ops.Logger
}

// NewPersister creates a batch persister
func NewPersister(st *store.Store, logger *ops.Logger) *Persister {
	return &Persister{
		store:  st,
		logger: logger.WithComponent("persister"),
	}
}

// Persist writes a batch to the store. Partitioning by kind keeps each
// generated statement homogeneous. A partition that fails is returned whole
// for re-queueing; other partitions proceed independently.
func (p *Persister) Persist(ctx context.Context, batch []PendingDelta) (int64, []PendingDelta) {
	if len(batch) == 0 {
		return 0, nil
	}

	partitions := make(map[resources.Kind][]PendingDelta)
	for _, d := range batch {
		partitions[d.Kind] = append(partitions[d.Kind], d)
	}

	var affected int64
	var failed []PendingDelta

	for kind, deltas := range partitions {
		n, err := p.persistPartition(ctx, kind, deltas)
		if err != nil {
			perr := &PersistError{Kind: kind, Deltas: len(deltas), Err: err}
			p.logger.Error("partition persist failed, re-queueing",
				"resource_type", string(kind),
				"deltas", len(deltas),
				"error", perr)
			failed = append(failed, deltas...)
			continue
		}
		affected += n
	}

	return affected, failed
}

func (p *Persister) persistPartition(ctx context.Context, kind resources.Kind, deltas []PendingDelta) (int64, error) {
	var inserts, updates []store.ReactionRecord
	for _, d := range deltas {
		rec := store.ReactionRecord{
			ActorID:       d.ActorID,
			ResourceID:    d.ResourceID,
			ResourceType:  string(kind),
			Active:        d.Active,
			LastChangedAt: d.ChangedAt,
		}
		if d.IsNew {
			rec.FirstSeenAt = d.FirstSeenAt
			inserts = append(inserts, rec)
		} else {
			updates = append(updates, rec)
		}
	}

	var affected int64

	if len(inserts) > 0 {
		n, err := p.store.BulkInsertReactions(ctx, inserts)
		if err != nil {
			return 0, err
		}
		affected += n
	}

	if len(updates) > 0 {
		n, err := p.store.BulkUpdateReactions(ctx, updates)
		if err != nil {
			return affected, err
		}
		affected += n
	}

	return affected, nil
}
