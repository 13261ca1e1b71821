// Command tspoolbench is a producer/consumer benchmark harness. It
// drives one concrete Pool[int64] implementation with a
// configurable number of producer and consumer threads, optionally
// gated behind a start barrier, and prints a single semicolon-delimited
// summary line once the run completes.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/concurrency-lab/tspool"
	"github.com/concurrency-lab/tspool/internal/arena"
	"github.com/concurrency-lab/tspool/internal/ring"
	"github.com/concurrency-lab/tspool/oracle"
)

func main() {
	pool := flag.String("pool", "stack", "pool kind: stack|arraystack|tl2stack|queue|deque|elimination|flatcombining")
	producers := flag.Int("producers", 4, "number of producer threads")
	consumers := flag.Int("consumers", 4, "number of consumer threads")
	operations := flag.Uint64("operations", 100000, "operations per producer")
	c := flag.Uint64("c", 0, "computational workload iterations per operation (0 disables)")
	barrier := flag.Bool("barrier", false, "hold all threads at a start barrier until every thread is ready")
	measureAt := flag.Uint64("measure-at", 0, "exclude the first N completed operations (warmup) from the measured interval")
	logOperations := flag.Bool("log-operations", false, "record an invoke/response/linearization oplog entry per operation (flatcombining pool only; other pools ignore it)")
	printSummary := flag.Bool("print-summary", true, "print the semicolon-delimited summary line")
	preallocSize := flag.Int("prealloc-size", 1<<17, "arena capacity reserved per thread; must cover -operations")
	flag.Parse()

	var numThreads int
	if *barrier {
		numThreads = ring.Max(*producers, *consumers)
	} else {
		numThreads = *producers + *consumers
	}
	if numThreads <= 0 {
		log.Fatal("tspoolbench: producers+consumers must be positive")
	}

	defer func() {
		if r := recover(); r != nil {
			switch r.(type) {
			case *tspool.ErrInvariantViolation, *arena.ExhaustedError:
				fmt.Fprintf(os.Stderr, "tspoolbench: %v\n", r)
				os.Exit(1)
			default:
				panic(r)
			}
		}
	}()

	p := buildPool(*pool, numThreads, *preallocSize, *logOperations)

	// measuredStart marks the instant the warmup of -measure-at
	// operations has completed; the reported runtime excludes everything
	// before it. If -measure-at is 0 (the default) it is armed
	// immediately; if the run never reaches -measure-at operations it
	// falls back to fallbackStart so the reported interval still makes
	// sense.
	var completed atomic.Uint64
	var measuredStart atomic.Int64 // unix nano, 0 until armed
	var startOnce sync.Once
	arm := func() {
		startOnce.Do(func() { measuredStart.Store(time.Now().UnixNano()) })
	}
	if *measureAt == 0 {
		arm()
	}
	onOperationDone := func() {
		if n := completed.Add(1); *measureAt > 0 && n == *measureAt {
			arm()
		}
	}
	fallbackStart := time.Now()

	var ready, start sync.WaitGroup
	ready.Add(numThreads)
	start.Add(1)
	var wg sync.WaitGroup

	totalOperations := *operations * uint64(*producers)
	if *barrier {
		// under barrier mode each of the numThreads threads plays both
		// roles, so operations are counted per thread rather than per
		// producer.
		totalOperations = *operations * uint64(numThreads)
	}

	runProducer := func(tid int) {
		defer wg.Done()
		if *barrier {
			// only the fill phase is gated: every thread parks at the
			// barrier until all numThreads goroutines are ready, so no
			// thread gets a head start on its puts.
			ready.Done()
			start.Wait()
		}
		for i := uint64(0); i < *operations; i++ {
			workload(*c)
			p.Put(tid, int64(tid)<<32|int64(i))
			onOperationDone()
		}
	}
	runConsumer := func(tid int) {
		defer wg.Done()
		got := uint64(0)
		for got < *operations {
			workload(*c)
			if _, ok := p.Get(tid); ok {
				got++
				onOperationDone()
			}
		}
	}

	if *barrier {
		// the same numThreads threads act as both producer and consumer
		// of their own tid's slice of work: fill fully, then drain.
		wg.Add(numThreads)
		for tid := 0; tid < numThreads; tid++ {
			go runProducer(tid)
		}
		ready.Wait()
		start.Done()
		wg.Wait()

		wg.Add(numThreads)
		for tid := 0; tid < numThreads; tid++ {
			go runConsumer(tid)
		}
		wg.Wait()
		report(numThreads, *producers, *consumers, elapsedSince(fallbackStart, &measuredStart), totalOperations, *c, p, *printSummary)
		return
	}

	wg.Add(*producers + *consumers)
	for tid := 0; tid < *producers; tid++ {
		go runProducer(tid)
	}
	for i := 0; i < *consumers; i++ {
		go runConsumer(*producers + i)
	}
	wg.Wait()
	report(numThreads, *producers, *consumers, elapsedSince(fallbackStart, &measuredStart), totalOperations, *c, p, *printSummary)
}

// elapsedSince returns the time since the measured-phase start if one
// was armed (-measure-at was reached), or since fallback otherwise (the
// common -measure-at=0 case, or a run too short to reach -measure-at).
func elapsedSince(fallback time.Time, measuredStart *atomic.Int64) time.Duration {
	if ns := measuredStart.Load(); ns != 0 {
		return time.Since(time.Unix(0, ns))
	}
	return time.Since(fallback)
}

func buildPool(kind string, numThreads, prealloc int, withLog bool) tspool.Pool[int64] {
	opts := []tspool.Option{tspool.WithCapacityPerThread(prealloc)}
	switch kind {
	case "stack":
		return tspool.NewStackPool[int64](numThreads, oracle.NewAtomicCounter(), opts...)
	case "arraystack":
		return tspool.NewArrayStackPool[int64](numThreads, oracle.NewAtomicCounter(), opts...)
	case "tl2stack":
		return tspool.NewTL2StackPool[int64](numThreads, opts...)
	case "queue":
		return tspool.NewQueuePool[int64](numThreads, oracle.NewAtomicCounter(), opts...)
	case "deque":
		return tspool.NewDequePool[int64](numThreads, oracle.NewAtomicCounter(), opts...)
	case "elimination":
		if withLog {
			opts = append(opts, tspool.WithOperationLog())
		}
		return tspool.NewEliminationStackPool[int64](numThreads, opts...)
	case "flatcombining":
		if withLog {
			opts = append(opts, tspool.WithOperationLog())
		}
		return tspool.NewFlatCombiningQueuePool[int64](numThreads, opts...)
	default:
		log.Fatalf("tspoolbench: unknown -pool %q", kind)
		return nil
	}
}

// workload spends n iterations computing a Leibniz-series approximation
// of pi, a cheap, allocation-free stand-in for application work between
// pool operations.
func workload(n uint64) float64 {
	sum := 0.0
	sign := 1.0
	for i := uint64(0); i < n; i++ {
		sum += sign / (2*float64(i) + 1)
		sign = -sign
	}
	return sum * 4
}

func report(numThreads, producers, consumers int, runtime time.Duration, totalOperations, c uint64, p tspool.Pool[int64], printSummary bool) {
	if !printSummary {
		return
	}
	seconds := runtime.Seconds()
	var aggr uint64
	if seconds > 0 {
		aggr = uint64(float64(totalOperations) / seconds)
	}
	line := fmt.Sprintf(
		"threads: %d ;producers: %d consumers: %d ;runtime: %d ;operations: %d ;c: %d ;aggr: %d",
		numThreads, producers, consumers, runtime.Nanoseconds(), totalOperations, c, aggr)
	if stats, ok := p.Stats(); ok {
		line += " ;ds_stats: " + stats
	}
	fmt.Println(line)
}

