// Package cleanlock is a per-node lock with three access
// modes: read, write and clean.
//
// Read and write behave like a reader/writer lock with an
// explicit hand-off token that admits waiting readers in
// batches and waiting writers one at a time, so neither side
// can starve the other. Clean is the quiescence mode: it
// returns once nobody holds the lock and nobody is queued on
// it, and has no paired release.

package cleanlock
