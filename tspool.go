package tspool

import (
	"fmt"

	"github.com/concurrency-lab/tspool/hostenv"
	"github.com/concurrency-lab/tspool/oracle"
	"github.com/concurrency-lab/tspool/tsbuffer"
)

// stackLike is the common surface of tsbuffer.StackBuffer and
// tsbuffer.ArrayStackBuffer, letting StackPool bind either variant
// without duplicating the retry loop below.
type stackLike[T any] interface {
	Insert(tid int, element T)
	TryRemoveYoungest(tid int, invocation *oracle.Interval) (value T, claimed bool, nonEmpty bool)
}

// StackPool binds a stack-shaped TS buffer to an Oracle and implements
// Pool[T] on top.
type StackPool[T any] struct {
	buffer     stackLike[T]
	orc        oracle.Oracle
	numThreads int
	puts       []int64
	gets       []int64
}

// NewStackPool constructs a StackPool over tsbuffer.StackBuffer, the
// base linked-list variant.
func NewStackPool[T any](numThreads int, orc oracle.Oracle, opts ...Option) *StackPool[T] {
	cfg := resolveOptions(numThreads, opts)
	buf := tsbuffer.NewStackBuffer[T](numThreads, cfg.capacityPerThread, orc, cfg.env)
	return newStackPool[T](buf, orc, numThreads)
}

// NewArrayStackPool constructs a StackPool over
// tsbuffer.ArrayStackBuffer, the array-indexed variant.
func NewArrayStackPool[T any](numThreads int, orc oracle.Oracle, opts ...Option) *StackPool[T] {
	cfg := resolveOptions(numThreads, opts)
	buf := tsbuffer.NewArrayStackBuffer[T](numThreads, cfg.capacityPerThread, orc, cfg.env)
	return newStackPool[T](buf, orc, numThreads)
}

// NewTL2StackPool constructs a StackPool over tsbuffer.StackBuffer
// pinned to a HardwareSerialized oracle — the double-timestamp-plus-
// delay variant. It builds the oracle directly (rather than going
// through
// tsbuffer.NewTL2StackBuffer, which does the same construction but
// doesn't hand back the oracle) so Get's invocation-time read below has
// something to call ReadTime on.
func NewTL2StackPool[T any](numThreads int, opts ...Option) *StackPool[T] {
	cfg := resolveOptions(numThreads, opts)
	orc := oracle.NewHardwareSerialized(cfg.env, cfg.oracleDelay)
	buf := tsbuffer.NewStackBuffer[T](numThreads, cfg.capacityPerThread, orc, cfg.env)
	return newStackPool[T](buf, orc, numThreads)
}

func newStackPool[T any](buf stackLike[T], orc oracle.Oracle, numThreads int) *StackPool[T] {
	return &StackPool[T]{
		buffer:     buf,
		orc:        orc,
		numThreads: numThreads,
		puts:       make([]int64, numThreads),
		gets:       make([]int64, numThreads),
	}
}

// Put inserts item into tid's own list.
func (p *StackPool[T]) Put(tid int, item T) bool {
	logArenaExhaustion("tsbuffer", func() { p.buffer.Insert(tid, item) })
	p.puts[tid]++
	logDebug("tsbuffer", "put", map[string]any{"tid": tid})
	return true
}

// Get removes the youngest eligible item across every thread's list,
// retrying the scan internally while it reports claimed false +
// nonEmpty true: some thread had a live item but this attempt lost the
// claim race, or a head moved since this thread's last empty snapshot
// of it. claimed false + nonEmpty false means the pool was observed
// empty.
func (p *StackPool[T]) Get(tid int) (T, bool) {
	var invocation oracle.Interval
	if p.orc != nil {
		p.orc.ReadTime(&invocation)
	}
	for retries := 0; ; retries++ {
		value, claimed, nonEmpty := p.buffer.TryRemoveYoungest(tid, &invocation)
		if claimed {
			p.gets[tid]++
			logDebug("tsbuffer", "get", map[string]any{"tid": tid})
			return value, true
		}
		if !nonEmpty {
			var zero T
			return zero, false
		}
		warnOnSustainedRetry("tsbuffer", tid, retries)
	}
}

// Stats reports aggregate put/get counters.
func (p *StackPool[T]) Stats() (string, bool) {
	return formatStats("stack", p.puts, p.gets), true
}

// QueuePool binds a tsbuffer.Queue (the deque buffer's enqueue-left/
// dequeue-right surface) to an Oracle and implements Pool[T] on top.
type QueuePool[T any] struct {
	queue      *tsbuffer.Queue[T]
	orc        oracle.Oracle
	numThreads int
	puts       []int64
	gets       []int64
}

// NewQueuePool constructs a QueuePool over tsbuffer.Queue, the thin
// enqueue-left/dequeue-right specialization of the deque buffer.
func NewQueuePool[T any](numThreads int, orc oracle.Oracle, opts ...Option) *QueuePool[T] {
	cfg := resolveOptions(numThreads, opts)
	return &QueuePool[T]{
		queue:      tsbuffer.NewQueue[T](numThreads, cfg.capacityPerThread, orc, cfg.env),
		orc:        orc,
		numThreads: numThreads,
		puts:       make([]int64, numThreads),
		gets:       make([]int64, numThreads),
	}
}

func (p *QueuePool[T]) Put(tid int, item T) bool {
	logArenaExhaustion("tsbuffer", func() { p.queue.Enqueue(tid, item) })
	p.puts[tid]++
	return true
}

func (p *QueuePool[T]) Get(tid int) (T, bool) {
	var invocation oracle.Interval
	p.orc.ReadTime(&invocation)
	for retries := 0; ; retries++ {
		value, claimed, nonEmpty := p.queue.Dequeue(tid, &invocation)
		if claimed {
			p.gets[tid]++
			return value, true
		}
		if !nonEmpty {
			var zero T
			return zero, false
		}
		warnOnSustainedRetry("tsbuffer", tid, retries)
	}
}

func (p *QueuePool[T]) Stats() (string, bool) {
	return formatStats("queue", p.puts, p.gets), true
}

// DequePool exposes a tsbuffer.DequeBuffer as a Pool, choosing which
// side to insert/remove from randomly per call.
type DequePool[T any] struct {
	deque      *tsbuffer.DequeBuffer[T]
	orc        oracle.Oracle
	env        hostenv.Env
	numThreads int
	puts       []int64
	gets       []int64
}

// NewDequePool constructs a DequePool over tsbuffer.DequeBuffer.
func NewDequePool[T any](numThreads int, orc oracle.Oracle, opts ...Option) *DequePool[T] {
	cfg := resolveOptions(numThreads, opts)
	return &DequePool[T]{
		deque:      tsbuffer.NewDequeBuffer[T](numThreads, cfg.capacityPerThread, orc, cfg.env),
		orc:        orc,
		env:        cfg.env,
		numThreads: numThreads,
		puts:       make([]int64, numThreads),
		gets:       make([]int64, numThreads),
	}
}

func (p *DequePool[T]) Put(tid int, item T) bool {
	logArenaExhaustion("tsbuffer", func() {
		if p.env.HWRand(tid)&1 == 0 {
			p.deque.InsertLeft(tid, item)
		} else {
			p.deque.InsertRight(tid, item)
		}
	})
	p.puts[tid]++
	return true
}

func (p *DequePool[T]) Get(tid int) (T, bool) {
	var invocation oracle.Interval
	p.orc.ReadTime(&invocation)
	for retries := 0; ; retries++ {
		var value T
		var claimed, nonEmpty bool
		if p.env.HWRand(tid)&1 == 0 {
			value, claimed, nonEmpty = p.deque.TryRemoveLeft(tid, &invocation)
		} else {
			value, claimed, nonEmpty = p.deque.TryRemoveRight(tid, &invocation)
		}
		if claimed {
			p.gets[tid]++
			return value, true
		}
		if !nonEmpty {
			var zero T
			return zero, false
		}
		warnOnSustainedRetry("tsbuffer", tid, retries)
	}
}

func (p *DequePool[T]) Stats() (string, bool) {
	return formatStats("deque", p.puts, p.gets), true
}

func formatStats(kind string, puts, gets []int64) string {
	var totalPuts, totalGets int64
	for i := range puts {
		totalPuts += puts[i]
		totalGets += gets[i]
	}
	return fmt.Sprintf("kind=%s;puts=%d;gets=%d;threads=%d", kind, totalPuts, totalGets, len(puts))
}
