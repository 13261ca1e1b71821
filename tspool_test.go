package tspool

import (
	"sync"
	"testing"

	"github.com/concurrency-lab/tspool/oracle"
	"github.com/stretchr/testify/require"
)

func TestStackPool_PutGetSingleThread(t *testing.T) {
	p := NewStackPool[int](1, oracle.NewAtomicCounter(), WithCapacityPerThread(8))
	require.True(t, p.Put(0, 1))
	require.True(t, p.Put(0, 2))

	v, ok := p.Get(0)
	require.True(t, ok)
	require.Equal(t, 2, v, "stack pool is LIFO")

	v, ok = p.Get(0)
	require.True(t, ok)
	require.Equal(t, 1, v)

	_, ok = p.Get(0)
	require.False(t, ok)
}

func TestArrayStackPool_PutGetSingleThread(t *testing.T) {
	p := NewArrayStackPool[string](1, oracle.NewAtomicCounter(), WithCapacityPerThread(8))
	p.Put(0, "x")
	v, ok := p.Get(0)
	require.True(t, ok)
	require.Equal(t, "x", v)
}

func TestTL2StackPool_PutGetSingleThread(t *testing.T) {
	p := NewTL2StackPool[int](1, WithOracleDelay(1), WithCapacityPerThread(8))
	p.Put(0, 42)
	v, ok := p.Get(0)
	require.True(t, ok)
	require.Equal(t, 42, v)

	line, ok := p.Stats()
	require.True(t, ok)
	require.Contains(t, line, "kind=stack")
}

func TestQueuePool_FIFOSingleThread(t *testing.T) {
	p := NewQueuePool[int](1, oracle.NewAtomicCounter(), WithCapacityPerThread(8))
	p.Put(0, 1)
	p.Put(0, 2)
	p.Put(0, 3)

	var got []int
	for i := 0; i < 3; i++ {
		v, ok := p.Get(0)
		require.True(t, ok)
		got = append(got, v)
	}
	require.Equal(t, []int{1, 2, 3}, got)
}

func TestDequePool_NoLossAcrossConcurrentPutGet(t *testing.T) {
	const numThreads = 6
	const perThread = 150

	p := NewDequePool[int](numThreads, oracle.NewAtomicCounter(), WithCapacityPerThread(perThread+1))

	var wg sync.WaitGroup
	for tid := 0; tid < numThreads; tid++ {
		wg.Add(1)
		go func(tid int) {
			defer wg.Done()
			for i := 0; i < perThread; i++ {
				require.True(t, p.Put(tid, tid*perThread+i))
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
				v, ok := p.Get(tid)
				if !ok {
					return
				}
				mu.Lock()
				require.False(t, seen[v])
				seen[v] = true
				mu.Unlock()
			}
		}(tid)
	}
	wg.Wait()

	require.Len(t, seen, numThreads*perThread)
}

func TestEliminationStackPool_PutGetSingleThread(t *testing.T) {
	p := NewEliminationStackPool[int](2, WithCollisionSize(4), WithBackoffDelay(1), WithCapacityPerThread(8))
	p.Put(0, 9)
	v, ok := p.Get(0)
	require.True(t, ok)
	require.Equal(t, 9, v)

	line, ok := p.Stats()
	require.True(t, ok)
	require.Contains(t, line, "collision: 4")
}

func TestFlatCombiningQueuePool_PutGetSingleThread(t *testing.T) {
	p := NewFlatCombiningQueuePool[int](2, WithOperationLog(), WithCapacityPerThread(8))
	p.Put(0, 5)
	v, ok := p.Get(0)
	require.True(t, ok)
	require.Equal(t, 5, v)
}

func TestStackPool_PutPastCapacityPanics(t *testing.T) {
	p := NewStackPool[int](1, oracle.NewAtomicCounter(), WithCapacityPerThread(1))
	p.Put(0, 1)

	require.Panics(t, func() { p.Put(0, 2) })
}

func TestEliminationStackPool_PopOnlyHarvestsWithoutInvariantPanic(t *testing.T) {
	const numThreads = 4
	const perThread = 50

	p := NewEliminationStackPool[int](numThreads, WithCollisionSize(numThreads), WithBackoffDelay(2), WithCapacityPerThread(perThread))

	var wg sync.WaitGroup
	for tid := 0; tid < numThreads; tid++ {
		wg.Add(1)
		go func(tid int) {
			defer wg.Done()
			for i := 0; i < perThread; i++ {
				p.Put(tid, tid*perThread+i)
			}
		}(tid)
	}
	wg.Wait()

	for tid := 0; tid < numThreads; tid++ {
		wg.Add(1)
		go func(tid int) {
			defer wg.Done()
			for {
				if _, ok := p.Get(tid); !ok {
					return
				}
			}
		}(tid)
	}
	wg.Wait()
}

func TestPool_InterfaceSatisfiedByEveryConstructor(t *testing.T) {
	var _ Pool[int] = NewStackPool[int](1, oracle.NewAtomicCounter(), WithCapacityPerThread(8))
	var _ Pool[int] = NewArrayStackPool[int](1, oracle.NewAtomicCounter(), WithCapacityPerThread(8))
	var _ Pool[int] = NewTL2StackPool[int](1, WithCapacityPerThread(8))
	var _ Pool[int] = NewQueuePool[int](1, oracle.NewAtomicCounter(), WithCapacityPerThread(8))
	var _ Pool[int] = NewDequePool[int](1, oracle.NewAtomicCounter(), WithCapacityPerThread(8))
	var _ Pool[int] = NewEliminationStackPool[int](1, WithCapacityPerThread(8))
	var _ Pool[int] = NewFlatCombiningQueuePool[int](1, WithCapacityPerThread(8))
}
