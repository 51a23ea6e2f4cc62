// Package cache stores values under generated unique keys in a key-value
// store and reads them back through caller-supplied decoders.
//
// Values are a small tagged union (String, Bytes, Int, Float). They are
// written untyped; reading them back typed is the caller's job, done by
// passing a Decoder such as DecodeInt to GetAs.
//
// Constructing a Cache flushes the store's current namespace. This is
// intentional: every Cache starts from a clean slate, and records written by
// earlier instances (values, call counts, call history) are gone.
//
// Store runs through an instrument.Chain. By default the chain counts calls
// and records call history under the operation name "Cache.store", which the
// replay package can read back.
package cache
