package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/knaito/opcg-pricewatch/internal/model"
)

// Store provides the pipeline's reads and writes against PostgreSQL.
type Store struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// New creates a Store.
func New(db *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Ping verifies the connection is healthy.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// ListCards returns tracked cards in stable ascending card-number order.
// The ordering is what makes offset-based resumption well-defined.
func (s *Store) ListCards(ctx context.Context, offset, limit int) ([]model.Card, error) {
	rows, err := s.db.Query(ctx, `
		SELECT card_number, COALESCE(name_en, ''), COALESCE(name_ja, ''), COALESCE(rarity, ''), slug
		FROM cards
		WHERE tracked
		ORDER BY card_number ASC
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []model.Card
	for rows.Next() {
		var c model.Card
		if err := rows.Scan(&c.Number, &c.NameEN, &c.NameJA, &c.Rarity, &c.Slug); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}

	return cards, nil
}

// GetCard returns one catalog card by number. ok is false when the card is
// unknown or untracked.
func (s *Store) GetCard(ctx context.Context, number string) (model.Card, bool, error) {
	var c model.Card
	err := s.db.QueryRow(ctx, `
		SELECT card_number, COALESCE(name_en, ''), COALESCE(name_ja, ''), COALESCE(rarity, ''), slug
		FROM cards
		WHERE card_number = $1 AND tracked
	`, number).Scan(&c.Number, &c.NameEN, &c.NameJA, &c.Rarity, &c.Slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Card{}, false, nil
	}
	if err != nil {
		return model.Card{}, false, fmt.Errorf("get card %s: %w", number, err)
	}
	return c, true, nil
}

// GetReferencePrice returns the last persisted home-currency price for a
// (card, condition) pair. ok is false when no price has ever been recorded.
func (s *Store) GetReferencePrice(ctx context.Context, cardNumber string, cond model.Condition) (decimal.Decimal, bool, error) {
	var amount decimal.Decimal
	err := s.db.QueryRow(ctx, `
		SELECT amount_jpy
		FROM card_prices
		WHERE card_number = $1 AND condition = $2
	`, cardNumber, string(cond)).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Decimal{}, false, nil
	}
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("get reference price %s/%s: %w", cardNumber, cond, err)
	}
	return amount, true, nil
}

// UpsertCurrentPrice writes the current-price projection for one pair.
// Idempotent: re-running with the same reconciled value changes nothing
// but the scraped-at timestamp.
func (s *Store) UpsertCurrentPrice(ctx context.Context, rp model.ReconciledPrice) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO card_prices (card_number, condition, amount, currency, amount_jpy, source, source_url, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (card_number, condition) DO UPDATE SET
			amount     = EXCLUDED.amount,
			currency   = EXCLUDED.currency,
			amount_jpy = EXCLUDED.amount_jpy,
			source     = EXCLUDED.source,
			source_url = EXCLUDED.source_url,
			scraped_at = EXCLUDED.scraped_at
	`, rp.CardNumber, string(rp.Condition), rp.Amount, rp.Currency, rp.AmountJPY, string(rp.Source), rp.SourceURL, rp.ReconciledAt)
	if err != nil {
		return fmt.Errorf("upsert current price %s/%s: %w", rp.CardNumber, rp.Condition, err)
	}
	s.logger.Debug("current price upserted",
		"card", rp.CardNumber,
		"condition", rp.Condition,
		"amount_jpy", rp.AmountJPY.String(),
	)
	return nil
}

// AppendPriceHistory inserts one append-only observation. History is not
// deduplicated: two runs observing the same price produce two rows.
func (s *Store) AppendPriceHistory(ctx context.Context, e model.PriceHistoryEntry) error {
	id := e.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO price_history (id, card_number, condition, amount, currency, amount_jpy, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, e.CardNumber, string(e.Condition), e.Amount, e.Currency, e.AmountJPY, e.RecordedAt)
	if err != nil {
		return fmt.Errorf("append price history %s/%s: %w", e.CardNumber, e.Condition, err)
	}
	return nil
}

// LatestExchangeRate returns the most recent stored rate for a pair.
// ok is false when the series is empty.
func (s *Store) LatestExchangeRate(ctx context.Context, base, target string) (model.ExchangeRate, bool, error) {
	var r model.ExchangeRate
	err := s.db.QueryRow(ctx, `
		SELECT base_currency, target_currency, rate, recorded_at
		FROM exchange_rates
		WHERE base_currency = $1 AND target_currency = $2
		ORDER BY recorded_at DESC
		LIMIT 1
	`, base, target).Scan(&r.Base, &r.Target, &r.Rate, &r.RecordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ExchangeRate{}, false, nil
	}
	if err != nil {
		return model.ExchangeRate{}, false, fmt.Errorf("latest exchange rate %s/%s: %w", base, target, err)
	}
	return r, true, nil
}

// HistoryEntryFor builds the append-only row matching a reconciled price.
func HistoryEntryFor(rp model.ReconciledPrice) model.PriceHistoryEntry {
	return model.PriceHistoryEntry{
		ID:         uuid.New(),
		CardNumber: rp.CardNumber,
		Condition:  rp.Condition,
		Amount:     rp.Amount,
		Currency:   rp.Currency,
		AmountJPY:  rp.AmountJPY,
		RecordedAt: rp.ReconciledAt,
	}
}
