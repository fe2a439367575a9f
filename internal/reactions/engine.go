// Package reactions implements the reaction state cache and write-behind
// synchronization engine: toggles answered from a fast cache, deltas buffered
// in an in-process queue, batched flushes to the system of record, and
// periodic reconciliation of denormalized counters against the reaction log.
package reactions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/metronon/likewise/internal/cache"
	"github.com/metronon/likewise/internal/config"
	"github.com/metronon/likewise/internal/ops"
	"github.com/metronon/likewise/internal/resources"
	"github.com/metronon/likewise/internal/store"
)

// Engine composes the resolver, cache, queue, persister, and reconciler
// behind one toggle entry point. Queue and flush state are private to the
// engine; construct it once at startup and tear it down with Stop.
type Engine struct {
	cfg        *config.Config
	resolver   *resources.Resolver
	cache      cache.Cache
	store      *store.Store
	syncer     *Syncer
	reconciler *Reconciler
	logger     *ops.Logger
	metrics    *ops.Metrics

	onToggle func(ToggleEvent)

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New wires an engine from its dependencies
func New(cfg *config.Config, st *store.Store, c cache.Cache, logger *ops.Logger, metrics *ops.Metrics) *Engine {
	persister := NewPersister(st, logger)

	return &Engine{
		cfg:        cfg,
		resolver:   resources.NewResolver(st),
		cache:      c,
		store:      st,
		syncer:     NewSyncer(persister, &cfg.Flush, logger, metrics),
		reconciler: NewReconciler(st, logger, metrics),
		logger:     logger.WithComponent("engine"),
		metrics:    metrics,
	}
}

// SetEventHandler registers a hook invoked after every accepted toggle.
// Consumers (notification fan-out and the like) live outside this engine.
func (e *Engine) SetEventHandler(fn func(ToggleEvent)) {
	e.onToggle = fn
}

// Toggle flips the reaction state for (actor, resource) and returns the new
// state with the cached counter. The counter is approximate until
// reconciliation runs. Validation and the self-reaction guard happen before
// any cache or queue mutation.
func (e *Engine) Toggle(ctx context.Context, actorID int64, typeTag string, resourceID int64) (*ToggleResult, error) {
	if _, err := e.resolver.ResolveActor(ctx, actorID); err != nil {
		e.metrics.TogglesRejected.WithLabelValues("actor_not_found").Inc()
		return nil, err
	}

	res, err := e.resolver.Resolve(ctx, typeTag, resourceID)
	if err != nil {
		switch {
		case errors.Is(err, resources.ErrUnknownType):
			e.metrics.TogglesRejected.WithLabelValues("unknown_type").Inc()
		case errors.Is(err, resources.ErrNotFound):
			e.metrics.TogglesRejected.WithLabelValues("not_found").Inc()
		}
		return nil, err
	}

	if res.OwnedBy(actorID) {
		e.metrics.TogglesRejected.WithLabelValues("self_reaction").Inc()
		return nil, fmt.Errorf("actor %d on %s %d: %w", actorID, res.Kind, res.ID, ErrSelfReaction)
	}

	kind := string(res.Kind)
	likeKey := cache.LikeKey(kind, res.ID, actorID)
	countKey := cache.CountKey(kind, res.ID)

	active, isNew, err := e.stateFor(ctx, likeKey, actorID, res.ID, kind)
	if err != nil {
		return nil, err
	}

	newState := !active
	now := time.Now().UTC()

	entry := cache.Entry{Active: newState, ChangedAt: now}
	if isNew {
		entry.FirstSeenAt = &now
	}
	if err := e.cache.SetLike(ctx, likeKey, entry); err != nil {
		return nil, fmt.Errorf("failed to update reaction state: %w", err)
	}

	var bump int64 = 1
	direction := "like"
	if !newState {
		bump = -1
		direction = "unlike"
	}
	count, err := e.cache.BumpCount(ctx, countKey, bump)
	if err != nil {
		return nil, fmt.Errorf("failed to update reaction counter: %w", err)
	}

	delta := PendingDelta{
		ActorID:    actorID,
		ResourceID: res.ID,
		Kind:       res.Kind,
		Active:     newState,
		IsNew:      isNew,
		ChangedAt:  now,
	}
	if isNew {
		delta.FirstSeenAt = now
	}
	e.syncer.Add(ctx, delta)

	e.metrics.Toggles.WithLabelValues(kind, direction).Inc()
	e.logger.LogToggle(actorID, res.ID, kind, newState, count)

	if e.onToggle != nil {
		e.onToggle(ToggleEvent{
			ActorID:    actorID,
			ResourceID: res.ID,
			OwnerID:    res.OwnerID,
			Kind:       res.Kind,
			Active:     newState,
			At:         now,
		})
	}

	return &ToggleResult{Active: newState, Count: count}, nil
}

// stateFor reads the current reaction state, falling back to the store on a
// cache miss. A missing store row means this identity has never been
// recorded; no record is created implicitly.
func (e *Engine) stateFor(ctx context.Context, likeKey string, actorID, resourceID int64, kind string) (active, isNew bool, err error) {
	entry, hit, err := e.cache.GetLike(ctx, likeKey)
	if err != nil {
		return false, false, err
	}
	if hit {
		e.logger.LogCacheOperation("get_state", likeKey, true)
		return entry.Active, false, nil
	}

	e.logger.LogCacheOperation("get_state", likeKey, false)
	e.metrics.CacheMisses.Inc()

	rec, err := e.store.FindReaction(ctx, actorID, resourceID, kind)
	if errors.Is(err, store.ErrNoRow) {
		return false, true, nil
	}
	if err != nil {
		return false, false, err
	}
	return rec.Active, false, nil
}

// Flush forces a drain of the pending queue, if one is not already running
func (e *Engine) Flush(ctx context.Context) {
	e.syncer.Flush(ctx)
}

// Pending reports the current pending-queue depth
func (e *Engine) Pending() int {
	return e.syncer.Pending()
}

// Reconcile runs a full counter reconciliation pass on demand
func (e *Engine) Reconcile(ctx context.Context) (int64, error) {
	return e.reconciler.Run(ctx)
}
