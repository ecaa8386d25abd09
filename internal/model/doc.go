// Package model defines shared data types used across the pricewatch pipeline.
//
// Conventions:
//   - Money: shopspring/decimal paired with an ISO-4217 currency code
//   - The home currency for reference prices and outlier filtering is JPY
//   - Card numbers ("OP07-051") are the natural key for cards
package model
