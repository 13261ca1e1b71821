package tsbuffer

import (
	"github.com/concurrency-lab/tspool/hostenv"
	"github.com/concurrency-lab/tspool/oracle"
)

// NewTL2StackBuffer constructs a StackBuffer whose items are stamped
// with two independent readings separated by an explicit spin delay,
// compared strictly: an interval is later only when the other's high
// reading precedes its low one.
//
// That stamping/comparison scheme is exactly oracle.HardwareSerialized's
// contract, so this variant is expressed as StackBuffer pinned to a
// HardwareSerialized oracle rather than as a parallel implementation of
// the same scan/election algorithm.
func NewTL2StackBuffer[T any](numThreads, perThreadCapacity int, env hostenv.Env, delay uint64) *StackBuffer[T] {
	return NewStackBuffer[T](numThreads, perThreadCapacity, oracle.NewHardwareSerialized(env, delay), env)
}
