package executor

import "sync"

// queueState is the lifecycle state of a pendingQueue. It is only read or
// written with the queue mutex held.
type queueState int

const (
	// stateStopped rejects submissions.
	stateStopped queueState = iota
	// stateStarting accepts submissions while the factory runs, but the
	// worker is not taking batches yet.
	stateStarting
	// stateRunning accepts submissions and hands batches to the worker.
	stateRunning
)

// item is a submitted input and the handle its result is delivered to.
type item[In, Out any] struct {
	input  In
	handle *Handle[Out]
}

// pendingQueue is the FIFO of submitted items. Producers push, the worker
// takes batches from the front, and Stop drains whatever is left. A single
// mutex guards the items and the state; cond is signaled when items are
// added and broadcast when the state leaves stateRunning.
type pendingQueue[In, Out any] struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []*item[In, Out]
	state queueState
}

func newPendingQueue[In, Out any]() *pendingQueue[In, Out] {
	q := &pendingQueue[In, Out]{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends items as one contiguous group. It returns the new queue
// length, or false if the queue is stopped and nothing was added.
func (q *pendingQueue[In, Out]) push(items []*item[In, Out]) (int, bool) {
	q.mu.Lock()
	if q.state == stateStopped {
		q.mu.Unlock()
		return 0, false
	}
	q.items = append(q.items, items...)
	depth := len(q.items)
	q.mu.Unlock()

	q.cond.Signal()
	return depth, true
}

// take blocks until the queue is non-empty or no longer running, then
// removes up to limit items from the front. It returns false once the queue
// has left stateRunning; the items still queued are left for drain.
func (q *pendingQueue[In, Out]) take(limit int) ([]*item[In, Out], int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.state == stateRunning && len(q.items) == 0 {
		q.cond.Wait()
	}
	if q.state != stateRunning {
		return nil, len(q.items), false
	}

	n := limit
	if n > len(q.items) {
		n = len(q.items)
	}
	batch := make([]*item[In, Out], n)
	copy(batch, q.items)

	// Drop references so taken items can be collected once resolved.
	for i := 0; i < n; i++ {
		q.items[i] = nil
	}
	q.items = q.items[n:]
	if len(q.items) == 0 {
		q.items = nil
	}

	return batch, len(q.items), true
}

func (q *pendingQueue[In, Out]) setState(s queueState) {
	q.mu.Lock()
	q.state = s
	q.mu.Unlock()
	q.cond.Broadcast()
}

// drain stops the queue and returns every item still in it, in order, along
// with the state it was in before.
func (q *pendingQueue[In, Out]) drain() ([]*item[In, Out], queueState) {
	q.mu.Lock()
	prev := q.state
	q.state = stateStopped
	rest := q.items
	q.items = nil
	q.mu.Unlock()

	q.cond.Broadcast()
	return rest, prev
}

func (q *pendingQueue[In, Out]) currentState() queueState {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

func (q *pendingQueue[In, Out]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
