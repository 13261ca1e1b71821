// Package arena implements a thread-local, never-freed allocator:
// cache-line-separated segments, sized once at startup, that abort on
// exhaustion rather than growing.
//
// Every TS buffer item is allocated from the inserting thread's own
// segment and is never freed for the lifetime of the pool — that
// assumption is what lets the rest of the library treat item pointers
// as permanently valid once published.
package arena

import (
	"fmt"

	"github.com/concurrency-lab/tspool/internal/cacheline"
)

// ExhaustedError is raised (via panic, see Pool.Alloc) when a thread's
// preallocated segment runs out. This is a programming bug — the arena
// was undersized for the workload — not a recoverable condition.
type ExhaustedError struct {
	ThreadID int
	Capacity int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("arena: thread %d exhausted its %d-item segment", e.ThreadID, e.Capacity)
}

// Pool is a fixed-capacity, per-thread bump allocator for T. Each
// thread's segment is padded so that two threads bumping their own
// segments concurrently never share a cache line's worth of bookkeeping.
type Pool[T any] struct {
	segments []segment[T]
}

type segment[T any] struct {
	items []T
	next  int
	_     cacheline.Pad
}

// New preallocates numThreads segments of capacity perThread items each.
// perThread must cover every insert a single thread will perform over
// the life of the pool: the arena never grows.
func New[T any](numThreads, perThread int) *Pool[T] {
	if numThreads <= 0 {
		panic("arena: numThreads must be positive")
	}
	if perThread <= 0 {
		panic("arena: perThread capacity must be positive")
	}
	p := &Pool[T]{segments: make([]segment[T], numThreads)}
	for i := range p.segments {
		p.segments[i].items = make([]T, perThread)
	}
	return p
}

// Alloc returns a pointer to the next free slot in tid's segment. It
// panics with *ExhaustedError when the segment is full.
//
// Alloc is exclusively called by thread tid for its own segment, so it
// needs no synchronization.
func (p *Pool[T]) Alloc(tid int) *T {
	s := &p.segments[tid]
	if s.next >= len(s.items) {
		panic(&ExhaustedError{ThreadID: tid, Capacity: len(s.items)})
	}
	item := &s.items[s.next]
	s.next++
	return item
}

// Len returns how many items thread tid has allocated so far.
func (p *Pool[T]) Len(tid int) int {
	return p.segments[tid].next
}

// Cap returns the per-thread segment capacity.
func (p *Pool[T]) Cap() int {
	if len(p.segments) == 0 {
		return 0
	}
	return len(p.segments[0].items)
}
