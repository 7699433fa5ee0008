// Package memo caches the results of expensive functions.
//
// A Computation is wrapped once with Wrap, which fixes its Policy: how long
// results stay fresh, which backend holds them and how keys are derived.
// Each Call then serves a fresh cached value, or recomputes and stores a new
// one.
//
// Graceful policies keep serving the last value when recomputation fails.
// Background policies serve stale values immediately and hand the refresh
// to the engine's dispatcher. Both keep entries in the backend for the
// engine's max timeout so a fallback exists long after the value went stale.
//
// Concurrent callers of a stale key may each trigger a recomputation (or
// a refresh job); the last write wins.
package memo
