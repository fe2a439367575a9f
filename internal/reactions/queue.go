package reactions

import "sync"

// pendingQueue is a concurrency-safe unbounded FIFO of reaction deltas.
// Any number of toggle goroutines append; a single flusher drains.
type pendingQueue struct {
	mu    sync.Mutex
	items []PendingDelta
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{}
}

// enqueue appends a delta and returns the new queue length
func (q *pendingQueue) enqueue(d PendingDelta) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, d)
	return len(q.items)
}

// drain removes and returns every queued delta in FIFO order
func (q *pendingQueue) drain() []PendingDelta {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	drained := q.items
	q.items = nil
	return drained
}

// requeue appends deltas at the tail, behind anything enqueued since the drain
func (q *pendingQueue) requeue(ds []PendingDelta) {
	if len(ds) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, ds...)
}

func (q *pendingQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
