package oracle

import "sync/atomic"

// AtomicCounter issues strictly monotone, totally ordered timestamps via
// fetch-add on a single shared counter. It is the
// simplest variant to reason about and the most contended: every
// SetTimestamp call serializes through the same cache line.
type AtomicCounter struct {
	baseOracle
	counter atomic.Int64
}

// NewAtomicCounter constructs an AtomicCounter oracle starting at 0.
func NewAtomicCounter() *AtomicCounter {
	return &AtomicCounter{}
}

func (c *AtomicCounter) SetTimestamp(_ int, ts *Interval) {
	v := c.counter.Add(1)
	ts.Store(v, v)
}

func (c *AtomicCounter) ReadTime(out *Interval) {
	v := c.counter.Load()
	out.Store(v, v)
}
