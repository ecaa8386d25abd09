package reconcile

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/knaito/opcg-pricewatch/internal/model"
)

var halfFloor = decimal.NewFromFloat(0.5)

func candidate(priceUSD float64, jpy int64) model.NormalizedListing {
	return model.NormalizedListing{
		Listing: model.Listing{
			Price:    decimal.NewFromFloat(priceUSD),
			Currency: "USD",
			Source:   model.SourceEbay,
		},
		AmountJPY: decimal.NewFromInt(jpy),
	}
}

func TestReconcile_FloorRejectsOutliers(t *testing.T) {
	// Reference ¥8,000 -> threshold ¥4,000. The $20 (¥3,000) listing is a
	// mismatch and must be rejected; cheapest survivor is $55 (¥8,250).
	candidates := []model.NormalizedListing{
		candidate(20, 3000),
		candidate(55, 8250),
		candidate(60, 9000),
	}
	ref := Reference{AmountJPY: decimal.NewFromInt(8000), Exists: true}

	res, err := Reconcile(candidates, ref, halfFloor)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if !res.Representative.Price.Equal(decimal.NewFromInt(55)) {
		t.Errorf("Representative.Price = %s, want 55", res.Representative.Price)
	}
	if !res.Representative.AmountJPY.Equal(decimal.NewFromInt(8250)) {
		t.Errorf("Representative.AmountJPY = %s, want 8250", res.Representative.AmountJPY)
	}
	if res.Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", res.Rejected)
	}
	if res.Stats.Count != 2 {
		t.Errorf("Stats.Count = %d, want 2", res.Stats.Count)
	}
	if !res.Stats.Min.Equal(decimal.NewFromInt(8250)) {
		t.Errorf("Stats.Min = %s, want 8250", res.Stats.Min)
	}
	if !res.Stats.Max.Equal(decimal.NewFromInt(9000)) {
		t.Errorf("Stats.Max = %s, want 9000", res.Stats.Max)
	}
	if !res.Stats.Mean.Equal(decimal.NewFromInt(8625)) {
		t.Errorf("Stats.Mean = %s, want 8625", res.Stats.Mean)
	}
}

func TestReconcile_PlausibilityInvariant(t *testing.T) {
	ref := Reference{AmountJPY: decimal.NewFromInt(10000), Exists: true}
	candidates := []model.NormalizedListing{
		candidate(10, 1500),
		candidate(40, 6000),
		candidate(80, 12000),
	}

	res, err := Reconcile(candidates, ref, halfFloor)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	floor := ref.AmountJPY.Mul(halfFloor)
	if res.Representative.AmountJPY.LessThan(floor) {
		t.Errorf("Representative.AmountJPY = %s violates floor %s", res.Representative.AmountJPY, floor)
	}
}

func TestReconcile_NoReferencePassthrough(t *testing.T) {
	// No reference price yet: every candidate passes, cheapest-first wins.
	candidates := []model.NormalizedListing{
		candidate(5, 750),
		candidate(1000, 150000),
	}

	res, err := Reconcile(candidates, Reference{}, halfFloor)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if !res.Representative.Price.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Representative.Price = %s, want 5 (cheapest-first)", res.Representative.Price)
	}
	if res.Rejected != 0 {
		t.Errorf("Rejected = %d, want 0", res.Rejected)
	}
}

func TestReconcile_AllRejected(t *testing.T) {
	ref := Reference{AmountJPY: decimal.NewFromInt(8000), Exists: true}
	candidates := []model.NormalizedListing{
		candidate(10, 1500),
		candidate(12, 1800),
	}

	_, err := Reconcile(candidates, ref, halfFloor)
	if !errors.Is(err, ErrAllRejected) {
		t.Errorf("Reconcile() error = %v, want ErrAllRejected", err)
	}
}

func TestReconcile_Empty(t *testing.T) {
	_, err := Reconcile(nil, Reference{}, halfFloor)
	if !errors.Is(err, ErrNoCandidates) {
		t.Errorf("Reconcile() error = %v, want ErrNoCandidates", err)
	}
}

func TestReconcile_ExactlyAtFloorSurvives(t *testing.T) {
	// Rejection is strictly below threshold; a candidate at the floor passes.
	ref := Reference{AmountJPY: decimal.NewFromInt(8000), Exists: true}
	candidates := []model.NormalizedListing{candidate(27, 4000)}

	res, err := Reconcile(candidates, ref, halfFloor)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if !res.Representative.AmountJPY.Equal(decimal.NewFromInt(4000)) {
		t.Errorf("Representative.AmountJPY = %s, want 4000", res.Representative.AmountJPY)
	}
}

func TestReconcile_UnsortedUnionPicksCheapest(t *testing.T) {
	// Listings merged from several sources arrive unsorted; the cheapest
	// survivor must still win.
	candidates := []model.NormalizedListing{
		candidate(60, 9000),
		candidate(55, 8250),
		candidate(58, 8700),
	}

	res, err := Reconcile(candidates, Reference{}, halfFloor)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if !res.Representative.AmountJPY.Equal(decimal.NewFromInt(8250)) {
		t.Errorf("Representative.AmountJPY = %s, want 8250", res.Representative.AmountJPY)
	}
}

func TestStats_Median(t *testing.T) {
	candidates := []model.NormalizedListing{
		candidate(10, 3000),
		candidate(20, 5000),
		candidate(30, 9000),
	}

	res, err := Reconcile(candidates, Reference{}, halfFloor)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if !res.Stats.Median.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("Stats.Median = %s, want 5000", res.Stats.Median)
	}
}
