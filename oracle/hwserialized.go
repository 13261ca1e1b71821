package oracle

import "github.com/concurrency-lab/tspool/hostenv"

// HardwareSerialized is the interval-form oracle: it samples a start
// reading, spins until delay HWPTime units have elapsed, then samples an
// end reading, so the published interval [lo, hi] widens to cover the
// whole window during which SetTimestamp was in flight. In tsbuffer's
// try-remove algorithms, an item whose interval does not end before the
// remover's invocation time is claimed at once (for the deque, only from
// its own insertion side); items whose intervals end earlier go through
// the full election instead.
type HardwareSerialized struct {
	baseOracle
	env   hostenv.Env
	delay uint64
}

// NewHardwareSerialized constructs a HardwareSerialized oracle that
// spins until delay HWPTime units have elapsed between the lo and hi
// samples.
func NewHardwareSerialized(env hostenv.Env, delay uint64) *HardwareSerialized {
	return &HardwareSerialized{env: env, delay: delay}
}

func (h *HardwareSerialized) SetTimestamp(_ int, ts *Interval) {
	lo := int64(h.env.HWPTime())
	spin(h.env, h.delay)
	hi := int64(h.env.HWPTime())
	ts.Store(lo, hi)
}

func (h *HardwareSerialized) ReadTime(out *Interval) {
	v := int64(h.env.HWPTime())
	out.Store(v, v)
}

// spin busy-waits until HWPTime has advanced by at least delay from its
// value at entry, so the delay is expressed in time-source units rather
// than loop iterations.
func spin(env hostenv.Env, delay uint64) {
	if delay == 0 {
		return
	}
	start := env.HWPTime()
	for env.HWPTime()-start < delay {
	}
}
