package tsbuffer

import (
	"github.com/concurrency-lab/tspool/hostenv"
	"github.com/concurrency-lab/tspool/internal/arena"
	"github.com/concurrency-lab/tspool/internal/ring"
	"github.com/concurrency-lab/tspool/internal/tagged"
	"github.com/concurrency-lab/tspool/oracle"
)

// DequeBuffer is the timestamped deque buffer: two head pointers per
// thread (left and right), over a doubly linked list of items, scanned
// and elected from by TryRemoveLeft/TryRemoveRight.
//
// The immediate-claim fast path only fires for items inserted on the
// same side being removed from: TryRemoveLeft only fast-paths
// left-inserted items, TryRemoveRight only right-inserted ones. Items
// inserted on the opposite side are never claimed inline, only elected
// through the isMoreLeft/isMoreRight ordering.
type DequeBuffer[T any] struct {
	numThreads int
	orc        oracle.Oracle
	env        hostenv.Env
	arena      *arena.Pool[DequeItem[T]]
	left       []tagged.Head[DequeItem[T]]
	right      []tagged.Head[DequeItem[T]]
	nextIndex  []int64
	emptyLeft  [][]*tagged.Ref[DequeItem[T]]
	emptyRight [][]*tagged.Ref[DequeItem[T]]
}

// NewDequeBuffer constructs a DequeBuffer for numThreads threads, each
// able to insert up to perThreadCapacity items (either side, combined)
// over the buffer's lifetime.
func NewDequeBuffer[T any](numThreads, perThreadCapacity int, orc oracle.Oracle, env hostenv.Env) *DequeBuffer[T] {
	b := &DequeBuffer[T]{
		numThreads: numThreads,
		orc:        orc,
		env:        env,
		arena:      arena.New[DequeItem[T]](numThreads, perThreadCapacity+1),
		left:       make([]tagged.Head[DequeItem[T]], numThreads),
		right:      make([]tagged.Head[DequeItem[T]], numThreads),
		nextIndex:  make([]int64, numThreads),
		emptyLeft:  make([][]*tagged.Ref[DequeItem[T]], numThreads),
		emptyRight: make([][]*tagged.Ref[DequeItem[T]], numThreads),
	}
	for tid := 0; tid < numThreads; tid++ {
		sentinel := b.arena.Alloc(tid)
		sentinel.left = sentinel
		sentinel.right = sentinel
		sentinel.taken.markTaken()
		sentinel.index = 0
		orc.InitSentinel(&sentinel.ts)
		b.left[tid].Init(sentinel)
		b.right[tid].Init(sentinel)
		b.emptyLeft[tid] = make([]*tagged.Ref[DequeItem[T]], numThreads)
		b.emptyRight[tid] = make([]*tagged.Ref[DequeItem[T]], numThreads)
	}
	return b
}

// InsertRight publishes a new item at the right end of tid's own list.
func (b *DequeBuffer[T]) InsertRight(tid int, element T) {
	item := b.arena.Alloc(tid)
	item.right = item
	b.nextIndex[tid]++
	item.index = Side(b.nextIndex[tid])
	b.orc.InitTop(&item.ts)
	item.data = element

	oldRight := b.right[tid].Load()
	rightItem := walkSkipTaken(oldRight.Item, func(n *DequeItem[T]) *DequeItem[T] { return n.left })
	// the walk reaching a self-looped item means the list is (or may
	// be) empty: a remover scanning from the stale left head would
	// otherwise follow a different list than one scanning from the
	// right, so the left side's ABA counter is bumped along with the
	// right store.
	empty := rightItem.left == rightItem

	item.left = rightItem
	rightItem.right = item
	if empty {
		b.left[tid].BumpABA()
	}
	b.right[tid].Store(item)

	b.orc.SetTimestamp(tid, &item.ts)
}

// InsertLeft is InsertRight's mirror image.
func (b *DequeBuffer[T]) InsertLeft(tid int, element T) {
	item := b.arena.Alloc(tid)
	item.left = item
	b.nextIndex[tid]++
	item.index = Side(-b.nextIndex[tid])
	b.orc.InitTop(&item.ts)
	item.data = element

	oldLeft := b.left[tid].Load()
	leftItem := walkSkipTaken(oldLeft.Item, func(n *DequeItem[T]) *DequeItem[T] { return n.right })
	empty := leftItem.right == leftItem

	item.right = leftItem
	leftItem.left = item
	if empty {
		b.right[tid].BumpABA()
	}
	b.left[tid].Store(item)

	b.orc.SetTimestamp(tid, &item.ts)
}

// walkSkipTaken walks from start via step, skipping claimed items,
// stopping at the first live item or wherever step first returns its
// input unchanged (a self-loop terminator).
func walkSkipTaken[T any](start *DequeItem[T], step func(*DequeItem[T]) *DequeItem[T]) *DequeItem[T] {
	cur := start
	for cur.taken.Load() {
		next := step(cur)
		if next == cur {
			return cur
		}
		cur = next
	}
	return cur
}

// getRightItem finds thread i's current rightmost non-taken item
// reachable from right[i], walking towards the left end via .left and
// skipping taken items. Left- and right-inserted items share one
// physical list, so the walk must be able to reach a left-inserted
// item once everything right of it is taken; it stops (returns nil)
// only once the item's index crosses the left head's own index, or it
// reaches the self-loop terminator. The index bound keeps a scan from
// chasing across a transiently empty list.
func (b *DequeBuffer[T]) getRightItem(i int) *DequeItem[T] {
	opposite := b.left[i].Load().Item.index
	cur := b.right[i].Load().Item
	for {
		if cur.index < opposite {
			return nil
		}
		if !cur.taken.Load() {
			return cur
		}
		if cur.left == cur {
			return nil
		}
		cur = cur.left
	}
}

// getLeftItem is getRightItem's mirror image.
func (b *DequeBuffer[T]) getLeftItem(i int) *DequeItem[T] {
	opposite := b.right[i].Load().Item.index
	cur := b.left[i].Load().Item
	for {
		if cur.index > opposite {
			return nil
		}
		if !cur.taken.Load() {
			return cur
		}
		if cur.right == cur {
			return nil
		}
		cur = cur.right
	}
}

func (b *DequeBuffer[T]) ts(item *DequeItem[T]) oracle.Interval {
	var out oracle.Interval
	b.orc.LoadTimestamp(&out, &item.ts)
	return out
}

// isMoreLeft reports whether a is further left than b. A left-inserted
// item always beats a right-inserted one; among left insertions the
// later timestamp is further left, among right insertions the earlier.
func (b *DequeBuffer[T]) isMoreLeft(a, b2 *DequeItem[T]) bool {
	aTS, bTS := b.ts(a), b.ts(b2)
	switch {
	case b2.index.Left() && a.index.Left():
		return b.orc.IsLater(&aTS, &bTS)
	case b2.index.Left() && a.index.Right():
		return false
	case b2.index.Right() && a.index.Left():
		return true
	default: // both inserted right
		return b.orc.IsLater(&bTS, &aTS)
	}
}

// isMoreRight is isMoreLeft's mirror.
func (b *DequeBuffer[T]) isMoreRight(a, b2 *DequeItem[T]) bool {
	aTS, bTS := b.ts(a), b.ts(b2)
	switch {
	case b2.index.Right() && a.index.Right():
		return b.orc.IsLater(&aTS, &bTS)
	case b2.index.Right() && a.index.Left():
		return false
	case b2.index.Left() && a.index.Right():
		return true
	default: // both inserted left
		return b.orc.IsLater(&bTS, &aTS)
	}
}

// TryRemoveLeft performs one scan pass electing the most-left eligible
// item. See StackBuffer.TryRemoveYoungest for the claimed/nonEmpty
// contract.
func (b *DequeBuffer[T]) TryRemoveLeft(tid int, invocation *oracle.Interval) (value T, claimed bool, nonEmpty bool) {
	var best *DequeItem[T]
	var bestIdx int
	var bestHead *tagged.Ref[DequeItem[T]]

	start := int(b.env.HWRand(tid) % uint64(b.numThreads))
	for k := 0; k < b.numThreads; k++ {
		i := ring.WrapIndex(start, k, b.numThreads)
		head := b.left[i].Load()
		item := b.getLeftItem(i)

		if item == nil {
			prev := b.emptyLeft[tid][i]
			if prev != head {
				nonEmpty = true
			}
			b.emptyLeft[tid][i] = head
			continue
		}
		nonEmpty = true

		itemTS := b.ts(item)
		if item.index.Left() && !b.orc.IsLater(invocation, &itemTS) {
			if item.taken.CompareAndSwap() {
				b.left[i].CASSame(head, item)
				return item.data, true, true
			}
			continue
		}

		if best == nil || b.isMoreLeft(item, best) {
			best, bestIdx, bestHead = item, i, head
		}
	}

	if best != nil && best.taken.CompareAndSwap() {
		b.left[bestIdx].CASSame(bestHead, best)
		return best.data, true, true
	}

	var zero T
	return zero, false, nonEmpty
}

// TryRemoveRight is TryRemoveLeft's mirror image.
func (b *DequeBuffer[T]) TryRemoveRight(tid int, invocation *oracle.Interval) (value T, claimed bool, nonEmpty bool) {
	var best *DequeItem[T]
	var bestIdx int
	var bestHead *tagged.Ref[DequeItem[T]]

	start := int(b.env.HWRand(tid) % uint64(b.numThreads))
	for k := 0; k < b.numThreads; k++ {
		i := ring.WrapIndex(start, k, b.numThreads)
		head := b.right[i].Load()
		item := b.getRightItem(i)

		if item == nil {
			prev := b.emptyRight[tid][i]
			if prev != head {
				nonEmpty = true
			}
			b.emptyRight[tid][i] = head
			continue
		}
		nonEmpty = true

		itemTS := b.ts(item)
		if item.index.Right() && !b.orc.IsLater(invocation, &itemTS) {
			if item.taken.CompareAndSwap() {
				b.right[i].CASSame(head, item)
				return item.data, true, true
			}
			continue
		}

		if best == nil || b.isMoreRight(item, best) {
			best, bestIdx, bestHead = item, i, head
		}
	}

	if best != nil && best.taken.CompareAndSwap() {
		b.right[bestIdx].CASSame(bestHead, best)
		return best.data, true, true
	}

	var zero T
	return zero, false, nonEmpty
}
