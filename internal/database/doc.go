// Package database provides the PostgreSQL connection pool for pricewatch.
//
// One database holds everything:
//   - cards: catalog master records with the current-price projection
//   - card_prices: current reconciled price per (card, condition)
//   - price_history: append-only price observations
//   - exchange_rates: currency rate time series
package database
