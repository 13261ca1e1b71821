// Package tsbuffer implements the timestamped buffer family:
// thread-local insertion lists scanned and elected from by a concurrent
// "youngest"/"oldest" removal algorithm.
package tsbuffer

import (
	"github.com/concurrency-lab/tspool/internal/cacheline"
	"github.com/concurrency-lab/tspool/oracle"
)

// Side encodes which end of a deque an item was inserted from:
// negative for left, positive for right, magnitude is the inserting
// thread's monotonic insert counter. Zero is reserved for the sentinel.
type Side int64

// Left reports whether the index encodes a left-side insertion.
func (s Side) Left() bool { return s < 0 }

// Right reports whether the index encodes a right-side insertion.
func (s Side) Right() bool { return s > 0 }

// StackItem is a node in a thread-local singly linked stack list. A
// self-loop (next == the item itself) marks list end; the sentinel item
// is always such a self-loop, pre-taken.
type StackItem[T any] struct {
	data     T
	taken    takenFlag
	ts       oracle.Interval
	next     *StackItem[T]
	_        cacheline.Pad
}

// DequeItem is a node in a thread-local doubly linked deque list.
// index's sign records which side inserted it; within one thread's
// list, insertion order matches |index| order.
type DequeItem[T any] struct {
	data  T
	taken takenFlag
	ts    oracle.Interval
	left  *DequeItem[T]
	right *DequeItem[T]
	index Side
	_     cacheline.Pad
}
