// Package extract decides, one inbound message at a time, whether the
// message reveals a durable fact about its author and commits accepted
// facts to the memory store.
//
// The oracle's judgment is opaque and unverifiable, so the pipeline's
// job is to make the surrounding state transitions deterministic and
// safe: a single terminal pass per message, idempotent writes through
// the store's dedup, and no gateway failure ever escaping into the
// caller's event loop.
package extract
