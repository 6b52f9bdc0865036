// Package persona manages the named tone templates that prefix every
// generation prompt, and the single process-wide active persona.
//
// The catalog is a slowly-changing JSON document seeded with built-in
// defaults on first run and loaded verbatim afterwards, so operator
// edits survive restarts. A designated fallback template always
// resolves, even when the recorded active persona has gone stale.
// The first-boot active persona is picked uniformly at random from the
// catalog; the randomness is injectable so tests can pin the outcome.
package persona
