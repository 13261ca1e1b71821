// Package cacheline provides padding primitives used to separate hot
// per-thread fields so independent threads do not bounce the same cache
// line. 128 bytes covers both standard x86-64 (64 byte) lines and the
// wider lines used by Apple Silicon and other ARM64 parts.
package cacheline

// Size is the padding unit applied between hot fields of different
// threads.
const Size = 128

// Pad is embedded (by value, not pointer) in per-thread records to push
// the next field onto its own cache line. It carries no data.
type Pad struct {
	_ [Size]byte
}
