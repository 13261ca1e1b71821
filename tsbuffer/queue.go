package tsbuffer

import (
	"github.com/concurrency-lab/tspool/hostenv"
	"github.com/concurrency-lab/tspool/oracle"
)

// Queue is a thin FIFO specialization of DequeBuffer: enqueue inserts
// left, dequeue removes right. It exists as its own type
// (rather than callers using DequeBuffer directly with a naming
// convention) so a queue-shaped Pool can bind to it without exposing
// the unused left-removal/right-insertion half of the deque's surface.
type Queue[T any] struct {
	deque *DequeBuffer[T]
}

// NewQueue constructs a Queue for numThreads threads, each able to
// enqueue up to perThreadCapacity items over the queue's lifetime.
func NewQueue[T any](numThreads, perThreadCapacity int, orc oracle.Oracle, env hostenv.Env) *Queue[T] {
	return &Queue[T]{deque: NewDequeBuffer[T](numThreads, perThreadCapacity, orc, env)}
}

// Enqueue publishes element at the left end of tid's own list.
func (q *Queue[T]) Enqueue(tid int, element T) {
	q.deque.InsertLeft(tid, element)
}

// Dequeue attempts to remove the oldest still-enqueued element,
// scanning from the right. See StackBuffer.TryRemoveYoungest for the
// claimed/nonEmpty contract.
func (q *Queue[T]) Dequeue(tid int, invocation *oracle.Interval) (value T, claimed bool, nonEmpty bool) {
	return q.deque.TryRemoveRight(tid, invocation)
}
