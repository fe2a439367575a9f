package reactions

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/metronon/likewise/internal/config"
	"github.com/metronon/likewise/internal/ops"
	"github.com/metronon/likewise/internal/resources"
)

// fakePersister records batches and can be made to fail or block
type fakePersister struct {
	mu      sync.Mutex
	batches [][]PendingDelta
	fail    bool
	block   chan struct{} // when non-nil, Persist waits for it
}

func (f *fakePersister) Persist(ctx context.Context, batch []PendingDelta) (int64, []PendingDelta) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, batch)
	if f.fail {
		return 0, batch
	}
	return int64(len(batch)), nil
}

func (f *fakePersister) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func (f *fakePersister) batch(i int) []PendingDelta {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batches[i]
}

func newTestSyncer(p persister, batchSize, maxDelaySeconds int) *Syncer {
	logger := ops.NewLoggerWithWriter(&config.Logging{Level: "error", Format: "text"}, io.Discard)
	cfg := &config.Flush{BatchSize: batchSize, MaxDelaySeconds: maxDelaySeconds, IntervalSeconds: 30}
	return NewSyncer(p, cfg, logger, ops.NewMetrics())
}

func TestSyncerFlushesAtBatchThreshold(t *testing.T) {
	ctx := context.Background()
	p := &fakePersister{}
	s := newTestSyncer(p, 5, 3600)

	for i := int64(1); i <= 4; i++ {
		s.Add(ctx, delta(i, 10))
	}
	if p.batchCount() != 0 {
		t.Fatalf("flushed before threshold: %d batches", p.batchCount())
	}
	if s.Pending() != 4 {
		t.Fatalf("pending = %d, want 4", s.Pending())
	}

	// Fifth enqueue crosses the threshold and flushes inline
	s.Add(ctx, delta(5, 10))
	if p.batchCount() != 1 {
		t.Fatalf("batches = %d, want 1", p.batchCount())
	}
	if got := len(p.batch(0)); got != 5 {
		t.Errorf("batch size = %d, want 5", got)
	}
	if s.Pending() != 0 {
		t.Errorf("pending after flush = %d, want 0", s.Pending())
	}
}

func TestSyncerFlushesAfterMaxDelay(t *testing.T) {
	ctx := context.Background()
	p := &fakePersister{}
	s := newTestSyncer(p, 100, 3600)

	s.Add(ctx, delta(1, 10))
	if p.batchCount() != 0 {
		t.Fatal("flushed with fresh lastFlush and queue below threshold")
	}

	// Age the last flush past the delay threshold
	s.lastFlush.Store(time.Now().Add(-2 * time.Hour).UnixMilli())

	s.Add(ctx, delta(2, 10))
	if p.batchCount() != 1 {
		t.Fatalf("batches = %d, want 1", p.batchCount())
	}
	if got := len(p.batch(0)); got != 2 {
		t.Errorf("batch size = %d, want 2", got)
	}
}

func TestSyncerEmptyFlushKeepsLastFlushStamp(t *testing.T) {
	ctx := context.Background()
	p := &fakePersister{}
	s := newTestSyncer(p, 5, 3600)

	stale := time.Now().Add(-time.Hour).UnixMilli()
	s.lastFlush.Store(stale)

	s.Flush(ctx)
	if p.batchCount() != 0 {
		t.Fatal("persisted an empty batch")
	}
	if s.lastFlush.Load() != stale {
		t.Error("empty flush advanced the last-flush stamp")
	}
}

func TestSyncerRequeuesFailedBatch(t *testing.T) {
	ctx := context.Background()
	p := &fakePersister{fail: true}
	s := newTestSyncer(p, 100, 3600)

	s.Add(ctx, delta(1, 10))
	s.Add(ctx, delta(2, 10))
	s.Flush(ctx)

	if p.batchCount() != 1 {
		t.Fatalf("batches = %d, want 1", p.batchCount())
	}
	if s.Pending() != 2 {
		t.Fatalf("pending = %d, want 2 re-queued", s.Pending())
	}

	// Once the store recovers the same deltas drain cleanly
	p.fail = false
	s.Flush(ctx)
	if s.Pending() != 0 {
		t.Errorf("pending after retry = %d, want 0", s.Pending())
	}
	if p.batchCount() != 2 {
		t.Errorf("batches = %d, want 2", p.batchCount())
	}
}

func TestSyncerCoalescesDuplicateIdentities(t *testing.T) {
	ctx := context.Background()
	p := &fakePersister{}
	s := newTestSyncer(p, 100, 3600)

	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Same identity toggled three times, final state active
	s.Add(ctx, PendingDelta{ActorID: 1, ResourceID: 10, Kind: resources.KindPost, Active: true, IsNew: true, FirstSeenAt: first, ChangedAt: first})
	s.Add(ctx, PendingDelta{ActorID: 1, ResourceID: 10, Kind: resources.KindPost, Active: false, ChangedAt: first.Add(time.Second)})
	s.Add(ctx, PendingDelta{ActorID: 1, ResourceID: 10, Kind: resources.KindPost, Active: true, ChangedAt: first.Add(2 * time.Second)})
	// A different identity interleaved
	s.Add(ctx, PendingDelta{ActorID: 2, ResourceID: 10, Kind: resources.KindPost, Active: true, IsNew: true, FirstSeenAt: first, ChangedAt: first})

	s.Flush(ctx)

	batch := p.batch(0)
	if len(batch) != 2 {
		t.Fatalf("coalesced batch size = %d, want 2", len(batch))
	}

	merged := batch[0]
	if merged.ActorID != 1 {
		t.Fatalf("first-occurrence order not preserved, got actor %d", merged.ActorID)
	}
	if !merged.Active {
		t.Error("merged delta should carry the final state")
	}
	if !merged.IsNew || !merged.FirstSeenAt.Equal(first) {
		t.Error("merged delta lost the earliest insert marker")
	}
	if !merged.ChangedAt.Equal(first.Add(2 * time.Second)) {
		t.Error("merged delta should carry the latest change time")
	}
}

func TestSyncerSingleFlightFlush(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	p := &fakePersister{block: release}
	s := newTestSyncer(p, 100, 3600)

	s.Add(ctx, delta(1, 10))
	s.Add(ctx, delta(2, 10))

	done := make(chan struct{})
	go func() {
		s.Flush(ctx)
		close(done)
	}()

	// Wait for the first flush to drain and block inside Persist
	deadline := time.After(2 * time.Second)
	for s.Pending() != 0 {
		select {
		case <-deadline:
			t.Fatal("first flush never drained")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// A delta arriving mid-flush must survive the overlapping call
	s.queue.enqueue(delta(3, 10))
	s.Flush(ctx)
	if s.Pending() != 1 {
		t.Fatalf("overlapping flush drained the queue, pending = %d", s.Pending())
	}

	close(release)
	<-done

	if p.batchCount() != 1 {
		t.Errorf("batches = %d, want 1", p.batchCount())
	}
	if got := len(p.batch(0)); got != 2 {
		t.Errorf("batch size = %d, want 2", got)
	}
}
