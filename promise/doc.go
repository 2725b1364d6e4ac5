// Package promise provides the one-shot result cells the runtime routes
// completions through.
//
// A Promise is safe for any number of racing writers: completion runs a
// pending → completing → done protocol on a single atomic state word and
// the first writer wins; later completions are silent no-ops. A
// Completable is the single-writer variant for callers that own the only
// completion path. Both validate outcomes against the result class they
// were built with and reject foreign outcomes at the completion call.
//
// The read side is a Future: wait-free status queries, a blocking Await,
// and on-complete callbacks that fire exactly once (immediately if the
// cell is already done). Futures born rejected carry the structured
// rejection reason and never transition.
package promise
