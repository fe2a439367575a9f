package reactions

import (
	"context"
	"fmt"
	"time"

	"github.com/metronon/likewise/internal/ops"
	"github.com/metronon/likewise/internal/store"
)

// Reconciler heals drift between denormalized counters and the persisted
// reaction log. It recomputes each resource's count from source rows and
// overwrites the counter wherever it disagrees, so it is idempotent and safe
// to run concurrently with toggles or another reconciler.
type Reconciler struct {
	store   *store.Store
	logger  *ops.Logger
	metrics *ops.Metrics
}

// NewReconciler creates a counter reconciler
func NewReconciler(st *store.Store, logger *ops.Logger, metrics *ops.Metrics) *Reconciler {
	return &Reconciler{
		store:   st,
		logger:  logger.WithComponent("reconciler"),
		metrics: metrics,
	}
}

// Run corrects every post and comment counter against the reaction log and
// returns the number of corrected rows.
func (r *Reconciler) Run(ctx context.Context) (int64, error) {
	start := time.Now()

	posts, err := r.store.SyncPostLikeCounts(ctx)
	if err != nil {
		r.logger.LogReconcile("full", 0, time.Since(start), err)
		return 0, fmt.Errorf("post reconciliation failed: %w", err)
	}

	comments, err := r.store.SyncCommentLikeCounts(ctx)
	if err != nil {
		r.logger.LogReconcile("full", posts, time.Since(start), err)
		return posts, fmt.Errorf("comment reconciliation failed: %w", err)
	}

	corrected := posts + comments
	r.metrics.ReconcileRuns.WithLabelValues("full").Inc()
	r.metrics.ReconcileCorrected.Add(float64(corrected))
	r.logger.LogReconcile("full", corrected, time.Since(start), nil)
	return corrected, nil
}

// RunRecent corrects counters only for resources with reaction activity at
// or after since. Cheaper than Run, suited to a tight interval.
func (r *Reconciler) RunRecent(ctx context.Context, since time.Time) (int64, error) {
	start := time.Now()

	posts, err := r.store.SyncRecentPostLikeCounts(ctx, since)
	if err != nil {
		r.logger.LogReconcile("recent", 0, time.Since(start), err)
		return 0, fmt.Errorf("post reconciliation failed: %w", err)
	}

	comments, err := r.store.SyncRecentCommentLikeCounts(ctx, since)
	if err != nil {
		r.logger.LogReconcile("recent", posts, time.Since(start), err)
		return posts, fmt.Errorf("comment reconciliation failed: %w", err)
	}

	corrected := posts + comments
	r.metrics.ReconcileRuns.WithLabelValues("recent").Inc()
	r.metrics.ReconcileCorrected.Add(float64(corrected))
	r.logger.LogReconcile("recent", corrected, time.Since(start), nil)
	return corrected, nil
}
