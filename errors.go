package tspool

import "github.com/concurrency-lab/tspool/internal/invariant"

// ErrInvariantViolation is panicked when an algorithm invariant the
// design guarantees cannot fail, fails anyway: a put that cannot fail
// failing, list corruption. There is no recoverable path above a bool
// return for this class of failure — it is a programming bug, not an
// expected condition.
//
// It is a type alias for invariant.Violation rather than a distinct
// wrapper: elimination can't import this package without a cycle, so
// it panics through invariant.Violation directly, and callers like
// cmd/tspoolbench need a single type to recover on regardless of which
// package raised it.
type ErrInvariantViolation = invariant.Violation

// Invariant panics with an *ErrInvariantViolation if cond is false, by
// forwarding to invariant.Check. No code in this package calls it; the
// module's one invariant check is elimination's pop harvest.
func Invariant(cond bool, component, detail string) {
	invariant.Check(cond, component, detail)
}
