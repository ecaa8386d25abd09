// Package reconcile reduces normalized candidate listings for one
// (card, condition) pair to at most one representative price.
//
// The plausibility floor (reference * ratio) rejects obviously mismatched
// listings: wrong card, wrong language edition, bundle lots. It is a
// heuristic, not content classification.
package reconcile

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/knaito/opcg-pricewatch/internal/model"
)

var (
	// ErrNoCandidates means the sources produced nothing to reconcile.
	ErrNoCandidates = errors.New("reconcile: no candidates")

	// ErrAllRejected means every candidate fell below the plausibility floor.
	ErrAllRejected = errors.New("reconcile: all candidates below plausibility floor")
)

// Stats are aggregates over surviving candidates, reported for observability
// but never persisted as the current price.
type Stats struct {
	Count  int
	Min    decimal.Decimal
	Max    decimal.Decimal
	Mean   decimal.Decimal
	Median decimal.Decimal
}

// Result is a successful reconciliation.
type Result struct {
	// Representative is the cheapest surviving listing by JPY amount. Ties
	// keep the earlier candidate, so per-source ordering still matters.
	Representative model.NormalizedListing
	Stats          Stats
	Rejected       int // Candidates discarded by the floor
}

// Reference bounds candidate plausibility. Absent means a new card whose
// first observed price seeds future references.
type Reference struct {
	AmountJPY decimal.Decimal
	Exists    bool
}

// Reconcile filters candidates against the reference floor and selects a
// representative. floorRatio is typically 0.5.
func Reconcile(candidates []model.NormalizedListing, ref Reference, floorRatio decimal.Decimal) (Result, error) {
	if len(candidates) == 0 {
		return Result{}, ErrNoCandidates
	}

	threshold := decimal.Zero
	if ref.Exists {
		threshold = ref.AmountJPY.Mul(floorRatio)
	}

	survivors := make([]model.NormalizedListing, 0, len(candidates))
	for _, c := range candidates {
		if c.AmountJPY.LessThan(threshold) {
			continue
		}
		survivors = append(survivors, c)
	}

	if len(survivors) == 0 {
		return Result{Rejected: len(candidates)}, ErrAllRejected
	}

	rep := survivors[0]
	for _, s := range survivors[1:] {
		if s.AmountJPY.LessThan(rep.AmountJPY) {
			rep = s
		}
	}

	return Result{
		Representative: rep,
		Stats:          statsOf(survivors),
		Rejected:       len(candidates) - len(survivors),
	}, nil
}

func statsOf(survivors []model.NormalizedListing) Stats {
	amounts := make([]decimal.Decimal, len(survivors))
	sum := decimal.Zero
	for i, s := range survivors {
		amounts[i] = s.AmountJPY
		sum = sum.Add(s.AmountJPY)
	}
	sort.Slice(amounts, func(i, j int) bool { return amounts[i].LessThan(amounts[j]) })

	n := len(amounts)
	median := amounts[n/2]
	if n%2 == 0 {
		median = amounts[n/2-1].Add(amounts[n/2]).Div(decimal.NewFromInt(2))
	}

	return Stats{
		Count:  n,
		Min:    amounts[0],
		Max:    amounts[n-1],
		Mean:   sum.Div(decimal.NewFromInt(int64(n))).Round(0),
		Median: median,
	}
}
