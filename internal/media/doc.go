// Package media owns imported assets and their readiness lifecycle.
//
// A media item wraps a data source and moves through
// pending → asyncprocessing → webavdecoding → ready, with error, cancelled,
// and missing as the off-ramps. The Library is the process-wide registry:
// all mutation goes through its action methods so the transition table and
// the ready-state invariant (duration and decoded objects populated) are
// enforced in one place, and status observers see every change for a given
// item in the order it was applied.
package media
