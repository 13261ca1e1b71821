// Package tspool provides concurrent pool data structures (stacks,
// queues, deques) for multi-threaded producer/consumer workloads: a
// put/get contract over the timestamped buffer family, bound to a
// timestamp oracle. Thread id is an explicit parameter on every
// operation, never ambient state.
package tspool

// Pool is the contract every concrete pool in this module satisfies:
// put/get plus an implementation-defined diagnostic line. tid is the
// caller's dense, contiguous thread identifier in [0, numThreads).
//
// Get's bool result is false iff the pool was observed empty; the
// returned value is the zero value of T in that case.
type Pool[T any] interface {
	Put(tid int, item T) bool
	Get(tid int) (T, bool)

	// Stats returns an implementation-defined diagnostic line; the
	// bool is false when a pool has nothing useful to report.
	Stats() (string, bool)
}
