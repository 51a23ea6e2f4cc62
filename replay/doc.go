// Package replay reconstructs the recorded call history of an instrumented
// operation and prints it in call order.
//
// Replay takes an explicit (operation name, store) pair rather than
// recovering either from the operation itself:
//
//	replay.Replay(ctx, os.Stdout, c.OperationName(), c.Backend())
//
// prints
//
//	Cache.store was called 3 times:
//	Cache.store(*('a',)) -> 4c0a...
//	Cache.store(*('b',)) -> 9f31...
//	Cache.store(*('c',)) -> 1d77...
//
// Replay only reads; it never writes to the store.
package replay
