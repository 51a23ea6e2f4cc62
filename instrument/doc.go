// Package instrument provides an explicit interceptor chain for store
// operations, with interceptors that count calls and record call history.
//
// A Chain is an ordered list of interceptors. Wrapping an operation runs each
// interceptor's Before hook in order, then the operation, then each After hook
// in reverse order:
//
//	chain := instrument.NewChain(
//	    instrument.NewCallCounter(st), // INCR {name}
//	    instrument.NewCallHistory(st), // RPUSH {name}:inputs / {name}:outputs
//	)
//	store := chain.Wrap("Cache.store", storeFn)
//
// Order matters: with the counter first, a call is counted before its input
// is logged, so the count record and the history logs reflect the same
// invocations.
//
// Records written per operation name:
//
//	{name}          call count (INCR)
//	{name}:inputs   argument tuples, one per call (RPUSH)
//	{name}:outputs  results, one per call (RPUSH)
package instrument
