// Package normalize converts raw listings into home-currency values
// comparable to a card's reference price. Pure transforms, no I/O.
package normalize

import (
	"github.com/knaito/opcg-pricewatch/internal/fxrate"
	"github.com/knaito/opcg-pricewatch/internal/model"
)

// Listing expresses one listing's price in the rate table's target currency,
// rounded to the nearest whole unit. Listings in a currency the table cannot
// resolve produce an error; callers drop them rather than assume a rate.
func Listing(l model.Listing, rates fxrate.Rates) (model.NormalizedListing, error) {
	amount, err := rates.Convert(l.Price, l.Currency)
	if err != nil {
		return model.NormalizedListing{}, err
	}
	return model.NormalizedListing{
		Listing:   l,
		AmountJPY: amount,
	}, nil
}

// Listings normalizes a batch, preserving source order and dropping listings
// whose currency cannot be resolved. Returns the survivors and the number
// dropped.
func Listings(in []model.Listing, rates fxrate.Rates) ([]model.NormalizedListing, int) {
	out := make([]model.NormalizedListing, 0, len(in))
	dropped := 0
	for _, l := range in {
		n, err := Listing(l, rates)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, n)
	}
	return out, dropped
}
