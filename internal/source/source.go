package source

import (
	"context"
	"fmt"

	"github.com/knaito/opcg-pricewatch/internal/model"
)

// Adapter fetches candidate listings from one external source.
type Adapter interface {
	// Name identifies the source in logs and listings.
	Name() model.SourceID

	// Search returns candidate listings for a card and condition, ordered by
	// the producer (the ebay adapter sorts ascending by price). An empty
	// slice with a nil error is a valid "nothing found" outcome.
	Search(ctx context.Context, card model.Card, cond model.Condition) ([]model.Listing, error)
}

// SourceError reports a failed fetch from one source.
type SourceError struct {
	Source     model.SourceID
	StatusCode int // 0 when the failure happened before an HTTP status
	Message    string
	Err        error
}

func (e *SourceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("source %s: http %d: %s", e.Source, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("source %s: %s", e.Source, e.Message)
}

func (e *SourceError) Unwrap() error { return e.Err }
