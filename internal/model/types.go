package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HomeCurrency is the currency reference prices are expressed in.
const HomeCurrency = "JPY"

// Condition identifies which price a reconciliation targets.
type Condition string

const (
	// ConditionRaw is an ungraded near-mint card.
	ConditionRaw Condition = "raw"

	// ConditionPSA10 is a PSA-graded gem mint card.
	ConditionPSA10 Condition = "psa10"
)

// Conditions lists every tracked condition in processing order.
var Conditions = []Condition{ConditionRaw, ConditionPSA10}

// SourceID identifies an external price source.
type SourceID string

const (
	SourceEbay   SourceID = "ebay"
	SourceRetail SourceID = "retail"
)

// Card is an immutable catalog reference to a single trading card.
// Created at catalog import; the pricing pipeline only reads it.
type Card struct {
	Number string // Set+index code, primary key (e.g., "OP07-051")
	NameEN string // English display name
	NameJA string // Japanese display name
	Rarity string // Rarity signifier (e.g., "SR", "SEC")
	Slug   string // URL-stable identifier; variant prints carry a suffix (e.g., "-alt-art")
}

// Listing is a single candidate price observed from one source.
// Ephemeral: produced by an adapter, consumed by the normalizer,
// discarded after reconciliation.
type Listing struct {
	Price      decimal.Decimal // Asking price in the listing's own currency
	Currency   string          // ISO-4217 code as reported by the source
	Title      string          // Listing title as shown by the source
	URL        string          // Listing page URL
	Source     SourceID        // Adapter that produced the listing
	ObservedAt time.Time       // Fetch time
}

// NormalizedListing is a Listing with its price expressed in the home
// currency, rounded to the nearest whole unit. The original listing amount
// is retained so the representative can be persisted in its own currency.
type NormalizedListing struct {
	Listing
	AmountJPY decimal.Decimal // Home-currency equivalent used for filtering
}

// ReconciledPrice is the pipeline's output for one (card, condition) pair.
type ReconciledPrice struct {
	CardNumber   string
	Condition    Condition
	Amount       decimal.Decimal // Representative listing's amount, own currency
	Currency     string
	AmountJPY    decimal.Decimal // Home-currency equivalent; seeds the next reference price
	SourceURL    string          // Affiliate-tagged listing URL
	Source       SourceID
	ReconciledAt time.Time
}

// PriceHistoryEntry is an append-only price observation. Created exactly
// once per successful reconciliation; never updated or deleted.
type PriceHistoryEntry struct {
	ID         uuid.UUID
	CardNumber string
	Condition  Condition
	Amount     decimal.Decimal
	Currency   string
	AmountJPY  decimal.Decimal
	RecordedAt time.Time
}

// ExchangeRate is one point of a currency-rate time series.
// Most recent RecordedAt wins for conversion purposes.
type ExchangeRate struct {
	Base       string          // e.g., "USD"
	Target     string          // e.g., "JPY"
	Rate       decimal.Decimal // Units of Target per one unit of Base
	RecordedAt time.Time
}

// FailureReason classifies a per-pair failure in the run summary.
type FailureReason string

const (
	ReasonSourceUnavailable FailureReason = "source_unavailable"
	ReasonOutlierRejected   FailureReason = "outlier_rejected"
	ReasonPersistFailed     FailureReason = "persist_failed"
)

// Failure records one failed (card, condition) pair for the run summary.
type Failure struct {
	CardNumber string        `json:"card_number"`
	Condition  Condition     `json:"condition"`
	Reason     FailureReason `json:"reason"`
	Detail     string        `json:"detail,omitempty"`
}

// RunSummary reports the outcome of one batch invocation.
type RunSummary struct {
	RunID      uuid.UUID `json:"run_id"`
	Processed  int       `json:"processed"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	Failures   []Failure `json:"failures,omitempty"`
	Complete   bool      `json:"complete"`
	NextOffset int       `json:"next_offset,omitempty"` // Card offset to resume from; meaningful only when !Complete
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// IsAltArt reports whether the card's slug marks a special print that
// needs a variant qualifier in source queries.
func (c Card) IsAltArt() bool {
	for _, suffix := range []string{"-alt-art", "-parallel", "-manga"} {
		if len(c.Slug) > len(suffix) && c.Slug[len(c.Slug)-len(suffix):] == suffix {
			return true
		}
	}
	return false
}

// Valid reports whether the condition is a known tracked condition.
func (c Condition) Valid() bool {
	return c == ConditionRaw || c == ConditionPSA10
}
