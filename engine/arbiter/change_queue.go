package arbiter

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy3d/engine/change"
)

type queueNode struct {
	next atomic.Pointer[queueNode]
	rec  *change.Record
}

// changeQueue is an unbounded linked queue of change records. Appends are a single atomic
// swap plus a store, so a producer never blocks and never takes a lock. Draining is done by
// exactly one consumer (the frame-sync goroutine) and only consumes the records published
// when the drain started; anything appended afterwards is left for the next cycle.
//
// A queue is owned by one producer (a worker) in the managed case. Unmanaged queues may be
// shared, which the swap-based append tolerates.
type changeQueue struct {
	head atomic.Pointer[queueNode] // most recently appended node, written by producers
	tail *queueNode                // last consumed node, consumer only
	stub queueNode

	workerID  int
	unmanaged bool
	released  atomic.Bool
	length    atomic.Int64
}

func newChangeQueue(workerID int, unmanaged bool) *changeQueue {
	q := &changeQueue{workerID: workerID, unmanaged: unmanaged}
	q.head.Store(&q.stub)
	q.tail = &q.stub
	return q
}

// append adds r at the back of the queue.
func (q *changeQueue) append(r *change.Record) {
	n := &queueNode{rec: r}
	prev := q.head.Swap(n)
	prev.next.Store(n)
	q.length.Add(1)
}

// drain hands every record published before the call to fn, front to back, and returns how
// many were consumed. A producer caught between its swap and its link store ends the drain
// early; its record and everything after it are delivered in the next cycle, in order.
func (q *changeQueue) drain(fn func(*change.Record)) int {
	last := q.head.Load()
	count := 0
	for q.tail != last {
		next := q.tail.next.Load()
		if next == nil {
			break
		}
		q.tail = next
		r := next.rec
		next.rec = nil
		q.length.Add(-1)
		count++
		fn(r)
	}
	return count
}

// size returns the approximate number of queued records.
func (q *changeQueue) size() int {
	return int(q.length.Load())
}
