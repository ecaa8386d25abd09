package source

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/knaito/opcg-pricewatch/internal/config"
	"github.com/knaito/opcg-pricewatch/internal/model"
)

// EbayAdapter searches the eBay Browse API for card listings.
type EbayAdapter struct {
	cfg        config.EbayConfig
	httpClient *http.Client
	logger     *slog.Logger

	// Token obtained once per run via EnsureToken and reused across calls.
	bearerToken string
}

// EbayOption configures an EbayAdapter.
type EbayOption func(*EbayAdapter)

// NewEbayAdapter creates an adapter for the Browse API.
func NewEbayAdapter(cfg config.EbayConfig, opts ...EbayOption) *EbayAdapter {
	a := &EbayAdapter{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// WithEbayHTTPClient sets a custom HTTP client.
func WithEbayHTTPClient(hc *http.Client) EbayOption {
	return func(a *EbayAdapter) {
		a.httpClient = hc
	}
}

// WithEbayLogger sets the logger.
func WithEbayLogger(logger *slog.Logger) EbayOption {
	return func(a *EbayAdapter) {
		a.logger = logger
	}
}

// Name implements Adapter.
func (a *EbayAdapter) Name() model.SourceID { return model.SourceEbay }

// tokenResponse from the client-credentials exchange.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// EnsureToken performs the client-credentials exchange once per run; the
// token is reused for every Search until the process exits. No refresh
// handling: a batch run is shorter than the token lifetime.
func (a *EbayAdapter) EnsureToken(ctx context.Context) error {
	if a.bearerToken != "" {
		return nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", "https://api.ebay.com/oauth/api_scope")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create token request: %w", err)
	}
	basic := base64.StdEncoding.EncodeToString([]byte(a.cfg.ClientID + ":" + a.cfg.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return &SourceError{Source: a.Name(), Message: "token exchange failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &SourceError{Source: a.Name(), Message: "read token response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &SourceError{Source: a.Name(), StatusCode: resp.StatusCode, Message: "token exchange rejected"}
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil || tok.AccessToken == "" {
		return &SourceError{Source: a.Name(), Message: "malformed token response", Err: err}
	}

	a.bearerToken = tok.AccessToken
	a.logger.Debug("ebay token acquired", "expires_in", tok.ExpiresIn)
	return nil
}

// browseResponse from GET /item_summary/search
type browseResponse struct {
	Total         int           `json:"total"`
	ItemSummaries []itemSummary `json:"itemSummaries"`
}

type itemSummary struct {
	ItemID     string    `json:"itemId"`
	Title      string    `json:"title"`
	Price      itemPrice `json:"price"`
	ItemWebURL string    `json:"itemWebUrl"`
}

type itemPrice struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Search implements Adapter. Results come back sorted ascending by price so
// the cheapest legitimate candidates lead.
func (a *EbayAdapter) Search(ctx context.Context, card model.Card, cond model.Condition) ([]model.Listing, error) {
	if err := a.EnsureToken(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("q", a.buildQuery(card, cond))
	query.Set("sort", "price")
	query.Set("limit", "20")
	query.Set("filter", "buyingOptions:{FIXED_PRICE}")

	fullURL := a.cfg.BaseURL + "/item_summary/search?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.bearerToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", a.cfg.MarketplaceID)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &SourceError{Source: a.Name(), Message: "search request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SourceError{Source: a.Name(), Message: "read search response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &SourceError{Source: a.Name(), StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	var br browseResponse
	if err := json.Unmarshal(body, &br); err != nil {
		return nil, &SourceError{Source: a.Name(), Message: "malformed search response", Err: err}
	}

	now := time.Now().UTC()
	listings := make([]model.Listing, 0, len(br.ItemSummaries))
	for _, item := range br.ItemSummaries {
		price, err := decimal.NewFromString(item.Price.Value)
		if err != nil || item.ItemWebURL == "" {
			a.logger.Debug("skipping unparseable item",
				"item_id", item.ItemID,
				"price", item.Price.Value,
			)
			continue
		}
		listings = append(listings, model.Listing{
			Price:      price,
			Currency:   item.Price.Currency,
			Title:      item.Title,
			URL:        item.ItemWebURL,
			Source:     a.Name(),
			ObservedAt: now,
		})
	}

	a.logger.Debug("ebay search complete",
		"card", card.Number,
		"condition", cond,
		"total", br.Total,
		"usable", len(listings),
	)

	return listings, nil
}

// buildQuery assembles the free-text search for one card and condition.
// Grammar is owned by this adapter:
//   - card number + game qualifier + "japanese" market qualifier
//   - RAW excludes grading vocabulary, PSA10 requires the grade token
//   - alt-art slugs add the variant qualifier
func (a *EbayAdapter) buildQuery(card model.Card, cond model.Condition) string {
	parts := []string{card.Number, "one piece", "japanese"}

	if card.IsAltArt() {
		parts = append(parts, "alt art")
	}

	switch cond {
	case model.ConditionPSA10:
		parts = append(parts, "psa 10")
	default:
		parts = append(parts, "-psa -bgs -cgc -graded -lot")
	}

	return strings.Join(parts, " ")
}
