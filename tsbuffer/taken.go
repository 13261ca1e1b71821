package tsbuffer

import "sync/atomic"

// takenFlag is the monotone 0->1 claim flag carried by every item.
// Exactly one CompareAndSwap(0, 1) call ever succeeds for a given item;
// that caller is its unique remover.
type takenFlag struct {
	v atomic.Uint32
}

// Load reports whether the item has already been claimed.
func (f *takenFlag) Load() bool {
	return f.v.Load() != 0
}

// CompareAndSwap attempts the 0->1 claim transition.
func (f *takenFlag) CompareAndSwap() bool {
	return f.v.CompareAndSwap(0, 1)
}

// markTaken force-sets the flag without a claim race, used only for
// sentinel initialization.
func (f *takenFlag) markTaken() {
	f.v.Store(1)
}
