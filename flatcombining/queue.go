// Package flatcombining implements a flat-combining queue:
// threads publish an operation into a per-thread slot and
// spin on it being marked done; whichever thread wins a global
// test-and-set lock combines every pending operation into a plain
// (non-concurrent) queue in one pass, amortizing synchronization cost
// across the whole batch.
package flatcombining

import (
	"fmt"
	"sync/atomic"

	"github.com/concurrency-lab/tspool/internal/arena"
	"github.com/concurrency-lab/tspool/internal/cacheline"
	"github.com/concurrency-lab/tspool/oplog"
)

type opcode int32

const (
	opDone opcode = iota
	opEnqueue
	opDequeue
)

// operation is a per-thread publication slot. data/ok are plain fields:
// the owning thread writes data before publishing opcode, and the
// combiner writes data/ok before publishing opDone; in both directions
// the atomic opcode store/load is what makes the plain write visible to
// the other side (same pattern as the elimination package's
// location/operations split).
type operation[T any] struct {
	opcode atomic.Int32
	data   T
	ok     bool
	_      cacheline.Pad
}

type node[T any] struct {
	next *node[T]
	data T
}

// Queue is the flat-combining queue. It satisfies the pool put/get
// contract via Put/Get, and also exposes Enqueue/Dequeue directly.
type Queue[T any] struct {
	lock       atomic.Bool
	operations []operation[T]
	head, tail *node[T]
	arena      *arena.Pool[node[T]]
	numThreads int
	logger     oplog.Logger

	combines   int64
	batchTotal int64
}

// NewQueue constructs a Queue for numThreads threads with an arena
// sized for perThreadCapacity enqueues per thread.
func NewQueue[T any](numThreads, perThreadCapacity int, logger oplog.Logger) *Queue[T] {
	if logger == nil {
		logger = oplog.NoOp{}
	}
	return &Queue[T]{
		operations: make([]operation[T], numThreads),
		arena:      arena.New[node[T]](numThreads, perThreadCapacity),
		numThreads: numThreads,
		logger:     logger,
	}
}

// Enqueue publishes an enqueue request, then either combines (if we
// win the lock) or spins until the winning thread marks our slot done.
func (q *Queue[T]) Enqueue(tid int, item T) bool {
	q.logger.Invoke(tid, "enqueue")
	q.operations[tid].data = item
	q.operations[tid].opcode.Store(int32(opEnqueue))
	for {
		if q.lock.CompareAndSwap(false, true) {
			q.scanCombineApply()
			q.lock.Store(false)
			break
		}
		if opcode(q.operations[tid].opcode.Load()) == opDone {
			break
		}
	}
	q.logger.Response(tid, true, nil)
	return true
}

// Dequeue is Enqueue's counterpart; the second result is false iff the
// queue was empty when the combiner applied this request.
func (q *Queue[T]) Dequeue(tid int) (T, bool) {
	q.logger.Invoke(tid, "dequeue")
	var zero T
	q.operations[tid].data = zero
	q.operations[tid].ok = false
	q.operations[tid].opcode.Store(int32(opDequeue))
	for {
		if q.lock.CompareAndSwap(false, true) {
			q.scanCombineApply()
			q.lock.Store(false)
			break
		}
		if opcode(q.operations[tid].opcode.Load()) == opDone {
			break
		}
	}
	value, ok := q.operations[tid].data, q.operations[tid].ok
	q.logger.Response(tid, ok, value)
	return value, ok
}

// scanCombineApply runs while holding lock: apply every thread's
// pending operation to the backing list in one pass, then mark each
// applied slot done.
func (q *Queue[T]) scanCombineApply() {
	q.combines++
	var batch int64
	for i := 0; i < q.numThreads; i++ {
		switch opcode(q.operations[i].opcode.Load()) {
		case opEnqueue:
			q.logger.Linearization(i)
			q.pushBack(i, q.operations[i].data)
			var zero T
			q.operations[i].data = zero
			q.operations[i].opcode.Store(int32(opDone))
			batch++
		case opDequeue:
			q.logger.Linearization(i)
			value, ok := q.popFront()
			q.operations[i].data = value
			q.operations[i].ok = ok
			q.operations[i].opcode.Store(int32(opDone))
			batch++
		}
	}
	q.batchTotal += batch
}

func (q *Queue[T]) pushBack(tid int, item T) {
	n := q.arena.Alloc(tid)
	n.data = item
	n.next = nil
	if q.tail == nil {
		q.head, q.tail = n, n
		return
	}
	q.tail.next = n
	q.tail = n
}

func (q *Queue[T]) popFront() (T, bool) {
	var zero T
	if q.head == nil {
		return zero, false
	}
	n := q.head
	q.head = n.next
	if q.head == nil {
		q.tail = nil
	}
	return n.data, true
}

// Put and Get adapt Queue to the pool put/get contract.
func (q *Queue[T]) Put(tid int, item T) bool { return q.Enqueue(tid, item) }
func (q *Queue[T]) Get(tid int) (T, bool)    { return q.Dequeue(tid) }

// Stats reports the combiner's average batch size: how many operations
// each lock acquisition amortized.
func (q *Queue[T]) Stats() (string, bool) {
	if q.combines == 0 {
		return "", false
	}
	avg := float64(q.batchTotal) / float64(q.combines)
	return fmt.Sprintf("combines=%d;operations=%d;avg_batch=%.2f", q.combines, q.batchTotal, avg), true
}
