// Package source implements the external price-source adapters.
//
// Each adapter turns one (card, condition) pair into zero or more candidate
// listings from a single external source:
//   - ebay: Browse API item-summary search, OAuth2 client-credentials
//   - retail: Japanese single-card storefront search page
//
// Adapters never write to storage and never retry; a failed or malformed
// response surfaces as a SourceError the driver downgrades to a per-pair
// skip. Each adapter owns its own query grammar.
package source
