// Package core defines the shared types used across duplog.
//
// Level orders record severity from TraceLevel (least severe) to
// PanicLevel. LevelFilter expresses the opposite view: how much a
// destination is willing to accept, from FilterOff to FilterTrace, so
// that "the least restrictive of two filters" is simply the larger one.
//
// Entry is a single log record. Entries are pooled via sync.Pool;
// callers get one with GetEntry and return it with PutEntry once every
// destination has consumed it. Destinations that keep a record past
// Write must Clone it.
//
// Now is the deferred timestamp handed to destinations alongside the
// entry. It captures the clock lazily and at most once, so that all
// outputs of one record carry the same instant. After StartCoarseClock
// the capture reads a cached time that is refreshed every 500µs.
//
// Field encodes values into fixed-size numeric fields (Int64, Float64)
// wherever possible so that common types like int, bool, and time.Time
// never escape to the heap. The Any field exists as a fallback for
// arbitrary types but will cause an allocation.
package core
