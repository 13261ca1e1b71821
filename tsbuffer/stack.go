package tsbuffer

import (
	"github.com/concurrency-lab/tspool/hostenv"
	"github.com/concurrency-lab/tspool/internal/arena"
	"github.com/concurrency-lab/tspool/internal/cacheline"
	"github.com/concurrency-lab/tspool/internal/ring"
	"github.com/concurrency-lab/tspool/internal/tagged"
	"github.com/concurrency-lab/tspool/oracle"
)

// StackBuffer is the base timestamped stack buffer: one thread-local
// singly linked list per thread, scanned and elected from by
// TryRemoveYoungest.
type StackBuffer[T any] struct {
	numThreads int
	orc        oracle.Oracle
	env        hostenv.Env
	arena      *arena.Pool[StackItem[T]]
	heads      []tagged.Head[StackItem[T]]
	_          cacheline.Pad
	// emptinessCheck[tid] is thread tid's own scratch: the last Ref it
	// observed for each thread's head during a scan that found no live
	// item in that thread's list. It is read and written only by tid
	// itself, so it needs no synchronization.
	emptinessCheck [][]*tagged.Ref[StackItem[T]]
}

// NewStackBuffer constructs a StackBuffer for numThreads threads, each
// able to insert up to perThreadCapacity items over the buffer's
// lifetime.
func NewStackBuffer[T any](numThreads, perThreadCapacity int, orc oracle.Oracle, env hostenv.Env) *StackBuffer[T] {
	b := &StackBuffer[T]{
		numThreads:     numThreads,
		orc:            orc,
		env:            env,
		arena:          arena.New[StackItem[T]](numThreads, perThreadCapacity+1), // +1 for the sentinel
		heads:          make([]tagged.Head[StackItem[T]], numThreads),
		emptinessCheck: make([][]*tagged.Ref[StackItem[T]], numThreads),
	}
	for tid := 0; tid < numThreads; tid++ {
		sentinel := b.arena.Alloc(tid)
		sentinel.next = sentinel // self-loop terminator
		sentinel.taken.markTaken()
		orc.InitSentinel(&sentinel.ts)
		b.heads[tid].Init(sentinel)
		b.emptinessCheck[tid] = make([]*tagged.Ref[StackItem[T]], numThreads)
	}
	return b
}

// Insert publishes a new item into tid's own list. Only tid itself may
// call Insert(tid, ...).
func (b *StackBuffer[T]) Insert(tid int, element T) {
	item := b.arena.Alloc(tid)
	b.orc.InitTop(&item.ts)
	item.data = element
	// taken is already 0 (zero value of takenFlag)

	old := b.heads[tid].Load()
	top := skipTaken(old.Item)
	item.next = top
	b.heads[tid].Store(item)

	b.orc.SetTimestamp(tid, &item.ts)
}

// skipTaken walks next from start, skipping already-claimed items,
// stopping at the first live item or the terminating self-loop, so a
// fresh insert links past tombstones instead of on top of them.
func skipTaken[T any](start *StackItem[T]) *StackItem[T] {
	cur := start
	for cur.taken.Load() && cur.next != cur {
		cur = cur.next
	}
	return cur
}

// scanYoungest walks next from start looking for the first live item,
// returning nil if the walk reaches the terminating self-loop first.
func scanYoungest[T any](start *StackItem[T]) *StackItem[T] {
	cur := start
	for {
		if !cur.taken.Load() {
			return cur
		}
		if cur.next == cur {
			return nil
		}
		cur = cur.next
	}
}

// TryRemoveYoungest performs one scan pass over every thread's list,
// electing and attempting to claim the youngest eligible item.
// claimed reports whether *value* was
// actually removed; when claimed is false, nonEmpty distinguishes
// "retry" from "the buffer was observed empty". nonEmpty is true when
// some thread had a live item but the claim race was lost, or when a
// thread's list held no live item but its head differed from the one
// tid recorded for it on its previous such observation. The first scan
// that finds a list without live items therefore reports nonEmpty, and
// only a later scan that sees the same head again reports empty.
func (b *StackBuffer[T]) TryRemoveYoungest(tid int, invocation *oracle.Interval) (value T, claimed bool, nonEmpty bool) {
	var best *StackItem[T]
	var bestIdx int
	var bestOld *tagged.Ref[StackItem[T]]
	var bestTS oracle.Interval
	b.orc.InitSentinel(&bestTS)

	start := int(b.env.HWRand(tid) % uint64(b.numThreads))
	for k := 0; k < b.numThreads; k++ {
		i := ring.WrapIndex(start, k, b.numThreads)
		tmpHead := b.heads[i].Load()
		item := scanYoungest(tmpHead.Item)

		if item == nil {
			prev := b.emptinessCheck[tid][i]
			if prev != tmpHead {
				nonEmpty = true
			}
			b.emptinessCheck[tid][i] = tmpHead
			continue
		}

		nonEmpty = true
		var itemTS oracle.Interval
		b.orc.LoadTimestamp(&itemTS, &item.ts)

		if !b.orc.IsLater(invocation, &itemTS) {
			// The item's interval does not end before the invocation's
			// own timestamp began: its insert overlaps or follows the
			// start of this remove, so it is claimed at once, without the
			// full election below.
			if item.taken.CompareAndSwap() {
				b.advancePastTombstones(i, tmpHead, item)
				return item.data, true, true
			}
			continue
		}

		if best == nil || b.orc.IsLater(&itemTS, &bestTS) {
			best = item
			bestIdx = i
			bestOld = tmpHead
			b.orc.LoadTimestamp(&bestTS, &itemTS)
		}
	}

	if best != nil && best.taken.CompareAndSwap() {
		b.advancePastTombstones(bestIdx, bestOld, best)
		return best.data, true, true
	}

	var zero T
	return zero, false, nonEmpty
}

// advancePastTombstones opportunistically moves head[i] down to the
// item it is about to report as taken, skipping the tombstones above
// it, so later scans don't have to re-walk them. Failure is ignored: another thread already advanced
// or inserted, and the next scan will see that.
func (b *StackBuffer[T]) advancePastTombstones(i int, old *tagged.Ref[StackItem[T]], item *StackItem[T]) {
	b.heads[i].CASSame(old, item)
}
