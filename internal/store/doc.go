// Package store implements persistence for the pricing pipeline.
//
// Tables:
//   - cards: catalog master records (read-only to this core)
//   - card_prices: current-price projection per (card, condition), upserted
//   - price_history: append-only observations, never updated or deleted
//   - exchange_rates: currency time series, most recent wins
//
// The current-price upsert and the history append are independent writes;
// no cross-table transaction is assumed.
package store
