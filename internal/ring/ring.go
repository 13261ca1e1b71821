// Package ring provides small generic index-arithmetic helpers shared
// by the TS buffer family's randomized full-election scans. Bucket
// counts are not necessarily powers of two, so wrapping is a modulo
// rather than a mask.
package ring

import "golang.org/x/exp/constraints"

// WrapIndex returns (start+k) mod n, the round-robin index every
// randomized full-election scan in tsbuffer uses to visit each thread's
// bucket starting from a random offset.
func WrapIndex[T constraints.Integer](start, k, n T) T {
	return (start + k) % n
}

// Max returns the larger of a and b.
func Max[T constraints.Integer](a, b T) T {
	if a > b {
		return a
	}
	return b
}
