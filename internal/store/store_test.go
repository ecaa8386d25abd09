package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/knaito/opcg-pricewatch/internal/model"
)

func TestHistoryEntryFor(t *testing.T) {
	at := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	rp := model.ReconciledPrice{
		CardNumber:   "OP07-051",
		Condition:    model.ConditionRaw,
		Amount:       decimal.NewFromInt(55),
		Currency:     "USD",
		AmountJPY:    decimal.NewFromInt(8250),
		SourceURL:    "https://www.ebay.com/itm/2",
		Source:       model.SourceEbay,
		ReconciledAt: at,
	}

	e := HistoryEntryFor(rp)

	if e.ID == uuid.Nil {
		t.Error("ID should be assigned")
	}
	if e.CardNumber != "OP07-051" || e.Condition != model.ConditionRaw {
		t.Errorf("key = %s/%s, want OP07-051/raw", e.CardNumber, e.Condition)
	}
	if !e.Amount.Equal(decimal.NewFromInt(55)) || e.Currency != "USD" {
		t.Errorf("amount = %s %s, want 55 USD", e.Amount, e.Currency)
	}
	if !e.AmountJPY.Equal(decimal.NewFromInt(8250)) {
		t.Errorf("AmountJPY = %s, want 8250", e.AmountJPY)
	}
	if !e.RecordedAt.Equal(at) {
		t.Errorf("RecordedAt = %v, want reconciliation time %v", e.RecordedAt, at)
	}

	// Two entries for the same price are distinct rows: history is
	// append-only and never deduplicated.
	e2 := HistoryEntryFor(rp)
	if e.ID == e2.ID {
		t.Error("history entries must get distinct IDs")
	}
}
