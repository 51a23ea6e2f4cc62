// Package store defines the key-value store contract consumed by kvops and
// provides Redis and in-memory implementations.
//
// The contract is the small set of primitives the caching and instrumentation
// layers rely on: SET, SETEX, GET, INCR, RPUSH, LRANGE, EXISTS and FLUSHDB.
// Each primitive is assumed atomic at the single-key level; no in-process
// locking is layered on top.
//
// Reading a missing key is not an error. Get reports it as (nil, false, nil).
package store
