package fxrate

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/knaito/opcg-pricewatch/internal/model"
)

type fakeRateSource struct {
	rate model.ExchangeRate
	ok   bool
	err  error
}

func (f *fakeRateSource) LatestExchangeRate(_ context.Context, base, target string) (model.ExchangeRate, bool, error) {
	return f.rate, f.ok, f.err
}

func TestRates_Convert(t *testing.T) {
	rates := NewRates("JPY", map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(150),
	})

	got, err := rates.Convert(decimal.NewFromInt(55), "USD")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !got.Equal(decimal.NewFromInt(8250)) {
		t.Errorf("Convert(55 USD) = %s, want 8250", got)
	}

	// JPY converts at identity.
	got, err = rates.Convert(decimal.NewFromInt(3200), "JPY")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !got.Equal(decimal.NewFromInt(3200)) {
		t.Errorf("Convert(3200 JPY) = %s, want 3200", got)
	}
}

func TestRates_Convert_UnknownCurrency(t *testing.T) {
	rates := NewRates("JPY", map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(150),
	})

	if _, err := rates.Convert(decimal.NewFromInt(10), "EUR"); err == nil {
		t.Error("Convert() with unknown currency should return error, not default to rate 1")
	}
}

func TestRates_RoundTrip(t *testing.T) {
	// JPY -> USD -> JPY with the same rate returns the original within ±1.
	rates := NewRates("JPY", map[string]decimal.Decimal{
		"USD": decimal.NewFromFloat(151.37),
	})

	original := decimal.NewFromInt(8300)
	usd, err := rates.Invert(original, "USD")
	if err != nil {
		t.Fatalf("Invert() error = %v", err)
	}
	back, err := rates.Convert(usd, "USD")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	diff := back.Sub(original).Abs()
	if diff.GreaterThan(decimal.NewFromInt(1)) {
		t.Errorf("round trip %s -> %s -> %s, drift %s exceeds 1 unit", original, usd, back, diff)
	}
}

func TestResolver_Load_StoredRate(t *testing.T) {
	src := &fakeRateSource{
		rate: model.ExchangeRate{
			Base:       "USD",
			Target:     "JPY",
			Rate:       decimal.NewFromInt(148),
			RecordedAt: time.Now(),
		},
		ok: true,
	}
	r := NewResolver(src, decimal.NewFromInt(150), nil)

	rates, err := r.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	got, err := rates.Convert(decimal.NewFromInt(1), "USD")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !got.Equal(decimal.NewFromInt(148)) {
		t.Errorf("Convert(1 USD) = %s, want stored rate 148", got)
	}
}

func TestResolver_Load_Fallback(t *testing.T) {
	r := NewResolver(&fakeRateSource{ok: false}, decimal.NewFromInt(150), nil)

	rates, err := r.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	got, err := rates.Convert(decimal.NewFromInt(2), "USD")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !got.Equal(decimal.NewFromInt(300)) {
		t.Errorf("Convert(2 USD) = %s, want fallback-rate 300", got)
	}
}
