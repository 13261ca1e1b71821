// Package elimination implements an elimination-backoff stack: a
// Treiber lock-free stack for the slow path, backed by an elimination
// array that lets complementary Push/Pop pairs cancel without ever
// touching the stack's head.
package elimination

import (
	"fmt"
	"sync/atomic"

	"github.com/concurrency-lab/tspool/hostenv"
	"github.com/concurrency-lab/tspool/internal/arena"
	"github.com/concurrency-lab/tspool/internal/cacheline"
	"github.com/concurrency-lab/tspool/internal/invariant"
	"github.com/concurrency-lab/tspool/internal/tagged"
)

type opcode int8

const (
	opPush opcode = 1
	opPop  opcode = 2
)

// emptySlot marks a location/collision slot as unoccupied. Thread ids
// are 0-based here, so 0 cannot double as the empty sentinel the way it
// could if ids started at 1 — a slot holding thread 0's own id would
// read as unoccupied.
const emptySlot = -1

type operation[T any] struct {
	opcode opcode
	data   T
}

type node[T any] struct {
	next *node[T]
	data T
}

// Stack is the elimination-backoff stack. Push and Pop each try the
// elimination array first (backoff); on failure they fall through to a
// Treiber CAS loop on top, retrying backoff once per lost CAS race.
type Stack[T any] struct {
	top   tagged.Head[node[T]]
	arena *arena.Pool[node[T]]
	env   hostenv.Env

	operations []operation[T]
	_          cacheline.Pad
	location   []paddedInt64
	collision  []paddedInt64

	sizeCollision uint64
	delay         uint64
}

type paddedInt64 struct {
	v atomic.Int64
	_ cacheline.Pad
}

// NewStack constructs a Stack for numThreads threads, an elimination
// array of sizeCollision slots, and a backoff spin of delay HWTime
// units. sizeCollision == 0 degenerates to a plain Treiber stack:
// backoff always finds no collision candidate and push/pop falls
// straight through to the CAS loop.
func NewStack[T any](numThreads, perThreadCapacity int, sizeCollision, delay uint64, env hostenv.Env) *Stack[T] {
	s := &Stack[T]{
		arena:         arena.New[node[T]](numThreads, perThreadCapacity),
		env:           env,
		operations:    make([]operation[T], numThreads),
		location:      make([]paddedInt64, numThreads),
		collision:     make([]paddedInt64, maxInt(int(sizeCollision), 1)),
		sizeCollision: sizeCollision,
		delay:         delay,
	}
	s.top.Init(nil)
	for i := range s.location {
		s.location[i].v.Store(emptySlot)
	}
	for i := range s.collision {
		s.collision[i].v.Store(emptySlot)
	}
	return s
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Push pushes item, either by eliminating against a concurrent Pop or
// via the Treiber CAS loop.
func (s *Stack[T]) Push(tid int, item T) bool {
	if _, ok := s.backoff(tid, opPush, item); ok {
		return true
	}
	n := s.arena.Alloc(tid)
	n.data = item
	for {
		old := s.top.Load()
		n.next = old.Item
		if s.top.CAS(old, n) {
			return true
		}
		if _, ok := s.backoff(tid, opPush, item); ok {
			return true
		}
	}
}

// Pop pops an item, either by eliminating against a concurrent Push or
// via the Treiber CAS loop. The second result is false iff the stack
// was observed empty.
func (s *Stack[T]) Pop(tid int) (T, bool) {
	var zero T
	if v, ok := s.backoff(tid, opPop, zero); ok {
		return v, true
	}
	for {
		old := s.top.Load()
		if old.Item == nil {
			return zero, false
		}
		if s.top.CAS(old, old.Item.next) {
			return old.Item.data, true
		}
		if v, ok := s.backoff(tid, opPop, zero); ok {
			return v, true
		}
	}
}

// backoff publishes our operation, tries to collide with a random
// partner, and either pairs up, gets paired with by someone else, or
// times out unpaired.
func (s *Stack[T]) backoff(tid int, opc opcode, data T) (T, bool) {
	var zero T
	if s.sizeCollision == 0 {
		return zero, false
	}

	s.operations[tid] = operation[T]{opcode: opc, data: data}
	s.location[tid].v.Store(int64(tid))

	pos := int(s.env.HWRand(tid) % s.sizeCollision)
	him := s.collision[pos].v.Load()
	for !s.collision[pos].v.CompareAndSwap(him, int64(tid)) {
		him = s.collision[pos].v.Load()
	}

	if him != emptySlot {
		other := s.location[int(him)].v.Load()
		if other == him && s.operations[int(other)].opcode != opc {
			if s.location[tid].v.CompareAndSwap(int64(tid), emptySlot) {
				return s.tryCollision(tid, int(other), opc)
			}
			return s.harvest(tid, opc)
		}
	}

	wait := s.env.HWTime() + s.delay
	for s.env.HWTime() < wait {
	}

	if !s.location[tid].v.CompareAndSwap(int64(tid), emptySlot) {
		return s.harvest(tid, opc)
	}

	return zero, false
}

// tryCollision CASes the partner's location to complete the pairing:
// our tid if we're the pushing half, emptySlot if we're the popping
// half and want to read their data.
func (s *Stack[T]) tryCollision(tid, other int, opc opcode) (T, bool) {
	var zero T
	if opc == opPush {
		if s.location[other].v.CompareAndSwap(int64(other), int64(tid)) {
			return zero, true
		}
		return zero, false
	}
	if s.location[other].v.CompareAndSwap(int64(other), emptySlot) {
		return s.operations[other].data, true
	}
	return zero, false
}

// harvest handles the "someone already paired with us" case: our
// location slot no longer holds our own tid, so whoever wrote into it
// left their data (or a partner tid to chase) for us to read.
func (s *Stack[T]) harvest(tid int, opc opcode) (T, bool) {
	var zero T
	if opc != opPop {
		return zero, true
	}
	partner := s.location[tid].v.Load()
	// backoff only calls harvest once it has observed location[tid] move
	// away from tid itself, and the only writer of another thread's slot
	// is tryCollision's push branch, which always writes a real tid.
	// partner landing on emptySlot here means that protocol was violated.
	invariant.Check(partner != emptySlot, "elimination", "pop harvest observed empty location slot")
	v := s.operations[int(partner)].data
	s.location[tid].v.Store(emptySlot)
	return v, true
}

// Put and Get adapt Stack to the pool put/get contract.
func (s *Stack[T]) Put(tid int, item T) bool { return s.Push(tid, item) }
func (s *Stack[T]) Get(tid int) (T, bool)    { return s.Pop(tid) }

// Stats reports the elimination array configuration.
func (s *Stack[T]) Stats() (string, bool) {
	return fmt.Sprintf("collision: %d ;delay: %d", s.sizeCollision, s.delay), true
}
