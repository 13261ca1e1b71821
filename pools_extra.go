package tspool

import (
	"github.com/concurrency-lab/tspool/elimination"
	"github.com/concurrency-lab/tspool/flatcombining"
	"github.com/concurrency-lab/tspool/oplog"
)

// opLogger returns a logger backed by this package's own structured
// Logger (see logging.go) when withOpLog is set, or nil (interpreted as
// oplog.NoOp by both constructors below) otherwise.
func opLogger(withOpLog bool) oplog.Logger {
	if !withOpLog {
		return nil
	}
	return oplog.FuncLogger(func(e oplog.Entry) {
		logDebug("oplog", e.Phase, map[string]any{"tid": e.Tid, "kind": e.Kind, "ok": e.OK})
	})
}

// EliminationStackPool binds an elimination.Stack to the Pool[T]
// contract.
type EliminationStackPool[T any] struct {
	stack *elimination.Stack[T]
}

// NewEliminationStackPool constructs an EliminationStackPool. The
// elimination array is sized by WithCollisionSize (default:
// numThreads) and paced by WithBackoffDelay.
func NewEliminationStackPool[T any](numThreads int, opts ...Option) *EliminationStackPool[T] {
	cfg := resolveOptions(numThreads, opts)
	return &EliminationStackPool[T]{
		stack: elimination.NewStack[T](numThreads, cfg.capacityPerThread, cfg.collisionSize, cfg.backoffDelay, cfg.env),
	}
}

func (p *EliminationStackPool[T]) Put(tid int, item T) bool {
	var ok bool
	logArenaExhaustion("elimination", func() { ok = p.stack.Push(tid, item) })
	return ok
}
func (p *EliminationStackPool[T]) Get(tid int) (T, bool) { return p.stack.Pop(tid) }
func (p *EliminationStackPool[T]) Stats() (string, bool) { return p.stack.Stats() }

// FlatCombiningQueuePool binds a flatcombining.Queue to the Pool[T]
// contract.
type FlatCombiningQueuePool[T any] struct {
	queue *flatcombining.Queue[T]
}

// NewFlatCombiningQueuePool constructs a FlatCombiningQueuePool. Pass
// WithOperationLog to record invoke/response/linearization events
// through this package's structured Logger.
func NewFlatCombiningQueuePool[T any](numThreads int, opts ...Option) *FlatCombiningQueuePool[T] {
	cfg := resolveOptions(numThreads, opts)
	return &FlatCombiningQueuePool[T]{
		queue: flatcombining.NewQueue[T](numThreads, cfg.capacityPerThread, opLogger(cfg.withOpLog)),
	}
}

func (p *FlatCombiningQueuePool[T]) Put(tid int, item T) bool {
	var ok bool
	logArenaExhaustion("flatcombining", func() { ok = p.queue.Enqueue(tid, item) })
	return ok
}
func (p *FlatCombiningQueuePool[T]) Get(tid int) (T, bool) { return p.queue.Dequeue(tid) }
func (p *FlatCombiningQueuePool[T]) Stats() (string, bool) { return p.queue.Stats() }
