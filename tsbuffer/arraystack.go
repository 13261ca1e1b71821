package tsbuffer

import (
	"sync/atomic"

	"github.com/concurrency-lab/tspool/hostenv"
	"github.com/concurrency-lab/tspool/internal/arena"
	"github.com/concurrency-lab/tspool/internal/ring"
	"github.com/concurrency-lab/tspool/oracle"
)

// ArrayStackBuffer is the array-indexed stack buffer variant:
// per-thread arrays indexed by a monotonic insert counter, in place of
// the linked list. Array slots are never reused, so the plain
// monotonically increasing counter already distinguishes every
// mutation and no versioned head word is needed.
//
// Unlike StackBuffer, this variant has no inline claim fast path: the
// post-scan CAS on the elected item is the only claim path.
type ArrayStackBuffer[T any] struct {
	numThreads int
	orc        oracle.Oracle
	env        hostenv.Env
	arena      *arena.Pool[StackItem[T]]
	buckets    [][]*StackItem[T]
	insertIdx  []atomic.Uint64
	// emptinessCheck[tid][i] is the last insertIdx[i] value tid observed
	// during a scan that found no live item in thread i's array.
	emptinessCheck [][]uint64
}

// NewArrayStackBuffer constructs an ArrayStackBuffer for numThreads
// threads, each with room for perThreadCapacity inserts.
func NewArrayStackBuffer[T any](numThreads, perThreadCapacity int, orc oracle.Oracle, env hostenv.Env) *ArrayStackBuffer[T] {
	b := &ArrayStackBuffer[T]{
		numThreads:     numThreads,
		orc:            orc,
		env:            env,
		arena:          arena.New[StackItem[T]](numThreads, perThreadCapacity+1),
		buckets:        make([][]*StackItem[T], numThreads),
		insertIdx:      make([]atomic.Uint64, numThreads),
		emptinessCheck: make([][]uint64, numThreads),
	}
	for tid := 0; tid < numThreads; tid++ {
		b.buckets[tid] = make([]*StackItem[T], perThreadCapacity+1)
		sentinel := b.arena.Alloc(tid)
		sentinel.taken.markTaken()
		orc.InitSentinel(&sentinel.ts)
		b.buckets[tid][0] = sentinel
		b.insertIdx[tid].Store(1)
		b.emptinessCheck[tid] = make([]uint64, numThreads)
	}
	return b
}

// Insert appends a new item at tid's next free slot.
func (b *ArrayStackBuffer[T]) Insert(tid int, element T) {
	item := b.arena.Alloc(tid)
	b.orc.InitTop(&item.ts)
	item.data = element

	idx := b.insertIdx[tid].Load()
	b.buckets[tid][idx] = item
	b.insertIdx[tid].Store(idx + 1)

	b.orc.SetTimestamp(tid, &item.ts)
}

// scanYoungestArray walks backward from the current insert cursor of
// thread i, skipping already-claimed slots, down to (but not including)
// the sentinel at index 0.
func (b *ArrayStackBuffer[T]) scanYoungestArray(i int) (*StackItem[T], int) {
	idx := b.insertIdx[i].Load()
	for j := int(idx) - 1; j >= 1; j-- {
		item := b.buckets[i][j]
		if !item.taken.Load() {
			return item, j
		}
	}
	return nil, 0
}

// TryRemoveYoungest mirrors StackBuffer.TryRemoveYoungest's contract,
// but performs only the full-election pass: no per-item elimination
// fast path (see the type doc comment).
func (b *ArrayStackBuffer[T]) TryRemoveYoungest(tid int, invocation *oracle.Interval) (value T, claimed bool, nonEmpty bool) {
	var best *StackItem[T]
	var bestTS oracle.Interval
	b.orc.InitSentinel(&bestTS)

	start := int(b.env.HWRand(tid) % uint64(b.numThreads))
	for k := 0; k < b.numThreads; k++ {
		i := ring.WrapIndex(start, k, b.numThreads)
		item, _ := b.scanYoungestArray(i)
		if item == nil {
			snap := b.insertIdx[i].Load()
			if b.emptinessCheck[tid][i] != snap {
				nonEmpty = true
			}
			b.emptinessCheck[tid][i] = snap
			continue
		}
		nonEmpty = true
		var itemTS oracle.Interval
		b.orc.LoadTimestamp(&itemTS, &item.ts)
		if best == nil || b.orc.IsLater(&itemTS, &bestTS) {
			best = item
			b.orc.LoadTimestamp(&bestTS, &itemTS)
		}
	}

	if best != nil && best.taken.CompareAndSwap() {
		return best.data, true, true
	}

	var zero T
	return zero, false, nonEmpty
}
