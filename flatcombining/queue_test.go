package flatcombining

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueue_EnqueueDequeueFIFO(t *testing.T) {
	q := NewQueue[int](1, 64, nil)
	q.Enqueue(0, 1)
	q.Enqueue(0, 2)
	q.Enqueue(0, 3)

	v, ok := q.Dequeue(0)
	require.True(t, ok)
	require.Equal(t, 1, v)

	v, ok = q.Dequeue(0)
	require.True(t, ok)
	require.Equal(t, 2, v)

	v, ok = q.Dequeue(0)
	require.True(t, ok)
	require.Equal(t, 3, v)

	_, ok = q.Dequeue(0)
	require.False(t, ok)
}

func TestQueue_DequeueEmptyIsFalse(t *testing.T) {
	q := NewQueue[string](2, 8, nil)
	_, ok := q.Dequeue(0)
	require.False(t, ok)
}

func TestQueue_StatsEmptyBeforeAnyCombine(t *testing.T) {
	q := NewQueue[int](2, 8, nil)
	_, ok := q.Stats()
	require.False(t, ok)
}

// TestQueue_ConcurrentNoLostOrDuplicateItems exercises the combining
// path itself (many threads racing the global lock) rather than just
// the single-threaded fast path above.
func TestQueue_ConcurrentNoLostOrDuplicateItems(t *testing.T) {
	const numThreads = 8
	const perThread = 300

	q := NewQueue[int](numThreads, numThreads*perThread, nil)

	var wg sync.WaitGroup
	for tid := 0; tid < numThreads; tid++ {
		wg.Add(1)
		go func(tid int) {
			defer wg.Done()
			for i := 0; i < perThread; i++ {
				q.Enqueue(tid, tid*perThread+i)
			}
		}(tid)
	}
	wg.Wait()

	seen := make(map[int]bool, numThreads*perThread)
	var mu sync.Mutex
	for tid := 0; tid < numThreads; tid++ {
		wg.Add(1)
		go func(tid int) {
			defer wg.Done()
			for {
				v, ok := q.Dequeue(tid)
				if !ok {
					return
				}
				mu.Lock()
				require.False(t, seen[v], "item %d dequeued twice", v)
				seen[v] = true
				mu.Unlock()
			}
		}(tid)
	}
	wg.Wait()

	require.Len(t, seen, numThreads*perThread)

	line, ok := q.Stats()
	require.True(t, ok)
	require.Contains(t, line, "combines=")
}

// TestQueue_PerProducerOrderIsPreserved checks the per-producer FIFO
// guarantee: with concurrent enqueuers and dequeuers, the sequence
// numbers of any single producer come out in ascending order.
func TestQueue_PerProducerOrderIsPreserved(t *testing.T) {
	const producers = 4
	const consumers = 4
	const perProducer = 300
	const numThreads = producers + consumers

	type pair struct{ tid, seq int }
	q := NewQueue[pair](numThreads, perProducer+1, nil)

	var wg sync.WaitGroup
	for tid := 0; tid < producers; tid++ {
		wg.Add(1)
		go func(tid int) {
			defer wg.Done()
			for seq := 0; seq < perProducer; seq++ {
				q.Enqueue(tid, pair{tid: tid, seq: seq})
			}
		}(tid)
	}

	// ordering is only observable within one consumer's own stream: a
	// second consumer may record a later item first even though the
	// combiner applied them in order. Each consumer therefore checks
	// per-producer monotonicity over what it alone dequeued, and the
	// shared set only checks completeness.
	var mu sync.Mutex
	seen := make(map[pair]bool, producers*perProducer)
	var dequeued atomic.Int64
	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func(tid int) {
			defer wg.Done()
			lastSeq := make([]int, producers)
			for i := range lastSeq {
				lastSeq[i] = -1
			}
			for dequeued.Load() < producers*perProducer {
				v, ok := q.Dequeue(tid)
				if !ok {
					continue
				}
				dequeued.Add(1)
				require.Greater(t, v.seq, lastSeq[v.tid], "producer %d's items out of order", v.tid)
				lastSeq[v.tid] = v.seq
				mu.Lock()
				require.False(t, seen[v])
				seen[v] = true
				mu.Unlock()
			}
		}(producers + i)
	}
	wg.Wait()

	require.Len(t, seen, producers*perProducer)
}

func TestQueue_PutGetPoolAdapter(t *testing.T) {
	q := NewQueue[int](2, 8, nil)
	require.True(t, q.Put(0, 7))
	v, ok := q.Get(0)
	require.True(t, ok)
	require.Equal(t, 7, v)
}
