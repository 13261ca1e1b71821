package oracle

import "github.com/concurrency-lab/tspool/hostenv"

// Hardware issues a single unserialized cycle-counter reading as a
// point timestamp: cheap, but not globally serialized —
// two threads' readings are not guaranteed to be ordered the way their
// real-time order was.
type Hardware struct {
	baseOracle
	env hostenv.Env
}

// NewHardware constructs a Hardware oracle backed by env's HWTime.
func NewHardware(env hostenv.Env) *Hardware {
	return &Hardware{env: env}
}

func (h *Hardware) SetTimestamp(_ int, ts *Interval) {
	v := int64(h.env.HWTime())
	ts.Store(v, v)
}

func (h *Hardware) ReadTime(out *Interval) {
	v := int64(h.env.HWTime())
	out.Store(v, v)
}

// ShiftedHardware coarsens Hardware's reading by discarding its low
// bit, intentionally colliding concurrent inserts onto the
// same timestamp to trade precision for fewer false "not later yet"
// scan outcomes under high insert contention.
type ShiftedHardware struct {
	baseOracle
	env hostenv.Env
}

// NewShiftedHardware constructs a ShiftedHardware oracle.
func NewShiftedHardware(env hostenv.Env) *ShiftedHardware {
	return &ShiftedHardware{env: env}
}

func (s *ShiftedHardware) SetTimestamp(_ int, ts *Interval) {
	v := int64(s.env.HWTime() >> 1)
	ts.Store(v, v)
}

func (s *ShiftedHardware) ReadTime(out *Interval) {
	v := int64(s.env.HWTime() >> 1)
	out.Store(v, v)
}
