package oracle

import "sync/atomic"

// Stuttering issues timestamps by scanning every thread's last-issued
// value and storing max+1 into the calling thread's own slot. It has
// no acquire/release barrier between the scan and the
// store, so two threads racing SetTimestamp may both observe the same
// max and write the same value — timestamps are monotone per thread but
// may "stutter" across threads.
type Stuttering struct {
	baseOracle
	clocks []atomic.Int64
}

// NewStuttering constructs a Stuttering oracle with one clock slot per
// thread, all initialized to 0.
func NewStuttering(numThreads int) *Stuttering {
	return &Stuttering{clocks: make([]atomic.Int64, numThreads)}
}

func (s *Stuttering) scanMax() int64 {
	var max int64
	for i := range s.clocks {
		if v := s.clocks[i].Load(); v > max {
			max = v
		}
	}
	return max
}

func (s *Stuttering) SetTimestamp(tid int, ts *Interval) {
	v := s.scanMax() + 1
	s.clocks[tid].Store(v)
	ts.Store(v, v)
}

func (s *Stuttering) ReadTime(out *Interval) {
	v := s.scanMax()
	out.Store(v, v)
}
