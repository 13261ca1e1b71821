// Package hostenv supplies the host primitives the rest of the module
// consumes: cycle-ish time sources and a fast per-thread
// pseudorandom generator. There is no thread_id() primitive — the
// thread id is an explicit parameter on every pool/buffer/oracle call
// instead of ambient, goroutine-local state.
package hostenv

import (
	"sync/atomic"
	"time"
)

// Env is the set of primitives the oracle, buffer and elimination/
// flat-combining packages consume. A host embedding this library in a
// context with real cycle-counter access (e.g. via a cgo RDTSC shim)
// can supply its own Env; Default is sufficient for everything this
// repository tests against.
type Env interface {
	// HWTime returns a cheap time counter. Unlike a real RDTSC read this
	// has no hardware serialization guarantee. Default reads the wall
	// clock (time.Now().UnixNano()), which does not go backwards unless
	// the system clock is adjusted; it is not a monotonic clock reading.
	HWTime() uint64
	// HWPTime is nominally the serialized variant: two back-to-back
	// calls are guaranteed not to observe a store that happened-before
	// the first call after the second call returns. Go has no user-mode
	// serializing instruction, so Default implements it with the same
	// wall-clock source as HWTime; nothing in this module's correctness
	// depends on the stronger guarantee.
	HWPTime() uint64
	// HWRand returns a fast pseudorandom value for thread tid. Callers
	// use it for random start-thread selection during scans and random
	// elimination-array slot selection.
	HWRand(tid int) uint64
}

// Default is a concrete Env backed by time.Now for the time sources and
// a per-thread xorshift64 generator for randomness, so no two threads
// contend on a shared random source.
type Default struct {
	rng []atomic.Uint64
}

// NewDefault constructs a Default sized for numThreads, seeding each
// thread's generator from its id and the current time so repeated runs
// within the same process do not produce identical sequences.
func NewDefault(numThreads int) *Default {
	d := &Default{rng: make([]atomic.Uint64, numThreads)}
	seed := uint64(time.Now().UnixNano())
	for i := range d.rng {
		s := seed ^ (uint64(i+1) * 0x9E3779B97F4A7C15)
		if s == 0 {
			s = 0xD1B54A32D192ED03
		}
		d.rng[i].Store(s)
	}
	return d
}

func (d *Default) HWTime() uint64 {
	return uint64(time.Now().UnixNano())
}

func (d *Default) HWPTime() uint64 {
	return uint64(time.Now().UnixNano())
}

// HWRand advances thread tid's xorshift64 state and returns it. Each
// thread owns its slot exclusively, so no atomic CAS loop is needed —
// the atomic.Uint64 is used only so the race detector does not flag the
// unsynchronized-looking read/write pair under -race.
func (d *Default) HWRand(tid int) uint64 {
	x := d.rng[tid].Load()
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	d.rng[tid].Store(x)
	return x
}
