// Package runner implements the batch controller.
//
// One run enumerates tracked cards from an offset and, for each card and
// condition, drives the pipeline: source adapters -> normalizer ->
// reconciler -> persistence. Pacing is a token bucket per pair plus a
// longer cooldown every N pairs. Per-pair failures are isolated; only
// configuration-class errors abort a run.
//
// Runs are sequential and single-threaded. Resumption is offset-based and
// only well-defined while the card list is stable between invocations.
package runner
