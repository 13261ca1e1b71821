// Package oracle implements the timestamp oracle family: pluggable
// strategies for issuing totally- or partially-comparable timestamps,
// and the strictly-later ordering the TS buffers scan against.
package oracle

import (
	"math"
	"sync/atomic"
)

// MaxTimestamp is the "infinity top" sentinel value: an un-stamped
// item's interval is [MaxTimestamp, MaxTimestamp]. By construction no
// invocation time is ever "strictly later" than it (its hi is Max),
// while it is itself strictly later than any finite interval (its lo
// is Max).
const MaxTimestamp = math.MaxInt64

// Interval is the atomic [lo, hi] pair carried by every TS buffer item.
// Once both halves are written by the inserting thread's call to
// SetTimestamp, the interval is constant thereafter; concurrent readers
// only ever Load it.
type Interval struct {
	lo atomic.Int64
	hi atomic.Int64
}

// Store writes both halves. Called exactly once per item by its
// inserting thread (via Oracle.SetTimestamp), or by Oracle.InitSentinel/
// InitTop before the item is published.
func (iv *Interval) Store(lo, hi int64) {
	iv.lo.Store(lo)
	iv.hi.Store(hi)
}

// Load reads both halves.
func (iv *Interval) Load() (lo, hi int64) {
	return iv.lo.Load(), iv.hi.Load()
}

// Oracle is the pluggable timestamp strategy bound into a TS buffer at
// construction. The thread id is always an explicit parameter, never
// ambient state.
type Oracle interface {
	// SetTimestamp stamps ts on behalf of thread tid. Implementations
	// that model an in-flight publication window (HardwareSerialized)
	// write lo, spin for the configured delay, then write hi.
	SetTimestamp(tid int, ts *Interval)
	// ReadTime samples "now" into out, without publishing it anywhere.
	// Used to capture a get/remove call's invocation timestamp.
	ReadTime(out *Interval)
	// LoadTimestamp copies src into dst. Exists as a named operation
	// (rather than bare field access) to keep buffer code
	// oracle-agnostic.
	LoadTimestamp(dst, src *Interval)
	// InitSentinel sets ts to the sentinel interval [0, 0].
	InitSentinel(ts *Interval)
	// InitTop sets ts to the "un-stamped" interval [Max, Max].
	InitTop(ts *Interval)
	// IsLater reports whether b definitely happened before a: strictly
	// true iff b.hi < a.lo. Overlapping intervals are not later.
	IsLater(a, b *Interval) bool
}

// baseOracle implements the three operations every variant shares, so
// each concrete oracle only needs to implement SetTimestamp and
// ReadTime.
type baseOracle struct{}

func (baseOracle) LoadTimestamp(dst, src *Interval) {
	lo, hi := src.Load()
	dst.Store(lo, hi)
}

func (baseOracle) InitSentinel(ts *Interval) {
	ts.Store(0, 0)
}

func (baseOracle) InitTop(ts *Interval) {
	ts.Store(MaxTimestamp, MaxTimestamp)
}

func (baseOracle) IsLater(a, b *Interval) bool {
	_, bHi := b.Load()
	aLo, _ := a.Load()
	return bHi < aLo
}
