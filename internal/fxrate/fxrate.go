// Package fxrate resolves currency conversion rates for price normalization.
//
// Rates come from the exchange_rates time series (most recent wins). When no
// stored rate exists, a configured fallback is used so a fresh deployment can
// still run a batch.
package fxrate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/knaito/opcg-pricewatch/internal/model"
)

// RateSource reads the latest stored exchange rate for a currency pair.
type RateSource interface {
	LatestExchangeRate(ctx context.Context, base, target string) (model.ExchangeRate, bool, error)
}

// Resolver loads a per-run rate table from a RateSource.
type Resolver struct {
	source         RateSource
	fallbackUSDJPY decimal.Decimal
	logger         *slog.Logger
}

// NewResolver creates a Resolver. fallbackUSDJPY must be positive.
func NewResolver(source RateSource, fallbackUSDJPY decimal.Decimal, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		source:         source,
		fallbackUSDJPY: fallbackUSDJPY,
		logger:         logger,
	}
}

// Rates converts listing amounts into one target currency.
// perUnit maps a source currency to the target-currency value of one unit.
type Rates struct {
	Target  string
	perUnit map[string]decimal.Decimal
}

// NewRates builds a rate table for a target currency. The target itself
// always converts at 1.
func NewRates(target string, perUnit map[string]decimal.Decimal) Rates {
	m := make(map[string]decimal.Decimal, len(perUnit)+1)
	for c, r := range perUnit {
		m[c] = r
	}
	m[target] = decimal.NewFromInt(1)
	return Rates{Target: target, perUnit: m}
}

// Load resolves the rate table for converting into the home currency.
// Currently the only foreign currency the sources report is USD.
func (r *Resolver) Load(ctx context.Context) (Rates, error) {
	usdjpy := r.fallbackUSDJPY

	stored, ok, err := r.source.LatestExchangeRate(ctx, "USD", model.HomeCurrency)
	if err != nil {
		return Rates{}, fmt.Errorf("load exchange rate USD/%s: %w", model.HomeCurrency, err)
	}
	if ok {
		usdjpy = stored.Rate
		r.logger.Debug("loaded exchange rate",
			"pair", "USD/"+model.HomeCurrency,
			"rate", stored.Rate.String(),
			"recorded_at", stored.RecordedAt,
		)
	} else {
		r.logger.Warn("no stored exchange rate, using fallback",
			"pair", "USD/"+model.HomeCurrency,
			"fallback", usdjpy.String(),
		)
	}

	return NewRates(model.HomeCurrency, map[string]decimal.Decimal{
		"USD": usdjpy,
	}), nil
}

// Convert expresses amount (denominated in `from`) in the table's target
// currency, rounded to the nearest whole unit. An unknown currency is an
// error; callers drop the listing rather than assume a rate.
func (t Rates) Convert(amount decimal.Decimal, from string) (decimal.Decimal, error) {
	rate, ok := t.perUnit[from]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("no exchange rate for %s/%s", from, t.Target)
	}
	return amount.Mul(rate).Round(0), nil
}

// Invert expresses a target-currency amount back in `to`, rounded to two
// decimal places. Used only for reporting; the pipeline persists listing
// amounts in their own currency.
func (t Rates) Invert(amount decimal.Decimal, to string) (decimal.Decimal, error) {
	rate, ok := t.perUnit[to]
	if !ok || rate.IsZero() {
		return decimal.Decimal{}, fmt.Errorf("no exchange rate for %s/%s", t.Target, to)
	}
	return amount.Div(rate).Round(2), nil
}
