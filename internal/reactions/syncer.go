package reactions

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/metronon/likewise/internal/config"
	"github.com/metronon/likewise/internal/ops"
)

// persister drains a batch into the store. It returns the number of rows
// affected and any deltas that must be re-queued.
type persister interface {
	Persist(ctx context.Context, batch []PendingDelta) (int64, []PendingDelta)
}

// Syncer buffers reaction deltas and drains them to the store in batches.
// A flush is triggered inline when the queue length crosses the batch
// threshold or the time since the last flush crosses the delay threshold;
// a background interval flush guarantees progress under low traffic.
type Syncer struct {
	queue     *pendingQueue
	persister persister
	logger    *ops.Logger
	metrics   *ops.Metrics

	batchSize int
	maxDelay  time.Duration

	lastFlush atomic.Int64 // unix milliseconds
	flushing  atomic.Bool  // flush-in-progress guard
}

// NewSyncer creates a write-behind syncer with the given flush policy
func NewSyncer(p persister, cfg *config.Flush, logger *ops.Logger, metrics *ops.Metrics) *Syncer {
	s := &Syncer{
		queue:     newPendingQueue(),
		persister: p,
		logger:    logger.WithComponent("syncer"),
		metrics:   metrics,
		batchSize: cfg.BatchSize,
		maxDelay:  cfg.MaxDelay(),
	}
	s.lastFlush.Store(time.Now().UnixMilli())
	return s
}

// Add enqueues a delta and flushes inline if a threshold is crossed
func (s *Syncer) Add(ctx context.Context, d PendingDelta) {
	length := s.queue.enqueue(d)
	s.metrics.QueueDepth.Set(float64(length))

	if s.shouldFlush(length) {
		s.Flush(ctx)
	}
}

// shouldFlush evaluates the two independent trigger conditions
func (s *Syncer) shouldFlush(queueLen int) bool {
	if queueLen >= s.batchSize {
		return true
	}
	elapsed := time.Since(time.UnixMilli(s.lastFlush.Load()))
	return elapsed >= s.maxDelay
}

// Flush drains the queue and hands the batch to the persister. Only one
// flush runs at a time; overlapping invocations return immediately rather
// than double-draining the queue.
func (s *Syncer) Flush(ctx context.Context) {
	if !s.flushing.CompareAndSwap(false, true) {
		return
	}
	defer s.flushing.Store(false)

	drained := s.queue.drain()
	if len(drained) == 0 {
		return
	}

	start := time.Now()
	batch := coalesce(drained)

	affected, failed := s.persister.Persist(ctx, batch)
	if len(failed) > 0 {
		s.queue.requeue(failed)
		s.metrics.FlushRequeued.Add(float64(len(failed)))
	}

	s.lastFlush.Store(time.Now().UnixMilli())
	s.metrics.QueueDepth.Set(float64(s.queue.len()))
	s.metrics.FlushBatches.Inc()
	s.metrics.FlushedDeltas.Add(float64(len(batch) - len(failed)))
	s.metrics.FlushDuration.Observe(time.Since(start).Seconds())

	s.logger.LogFlush(len(drained), affected, len(failed), time.Since(start), nil)
}

// Pending reports the current queue depth
func (s *Syncer) Pending() int {
	return s.queue.len()
}

// coalesce merges deltas sharing an identity into their final state. Only
// the latest state needs to reach the store; earlier duplicates are
// redundant. The merged delta keeps the earliest delta's insert-ness and
// first-seen time and the latest delta's state and change time.
func coalesce(batch []PendingDelta) []PendingDelta {
	if len(batch) < 2 {
		return batch
	}

	index := make(map[Identity]int, len(batch))
	out := make([]PendingDelta, 0, len(batch))

	for _, d := range batch {
		if i, ok := index[d.identity()]; ok {
			merged := out[i]
			merged.Active = d.Active
			merged.ChangedAt = d.ChangedAt
			out[i] = merged
			continue
		}
		index[d.identity()] = len(out)
		out = append(out, d)
	}

	return out
}
