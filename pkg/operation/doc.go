// Package operation serializes all access to a GGPK archive handle onto a
// single dispatcher goroutine.
//
// The archive handle is not safe for concurrent use, so every read against it
// is wrapped in an operation and submitted to a Dispatcher. The dispatcher
// owns exactly one worker goroutine that executes operations strictly in
// submission order. Submitting returns a typed Handle immediately; the caller
// awaits, polls, cancels, or abandons it without ever blocking the worker.
//
// An operation reaches exactly one of three terminal outcomes: Completed,
// Canceled, or Failed. Cancellation is authoritative for operations still
// queued (the body never runs) and cooperative for the one in flight (the
// body's context is canceled, but a body that ignores it runs to completion).
package operation
