package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/knaito/opcg-pricewatch/internal/config"
	"github.com/knaito/opcg-pricewatch/internal/model"
)

// RetailAdapter scrapes a Japanese single-card storefront's search page.
// Prices are always JPY. The markup extraction is deliberately narrow: one
// item block pattern, one price pattern, nothing speculative.
type RetailAdapter struct {
	cfg        config.RetailConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewRetailAdapter creates a storefront adapter.
func NewRetailAdapter(cfg config.RetailConfig, logger *slog.Logger) *RetailAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetailAdapter{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// Name implements Adapter.
func (a *RetailAdapter) Name() model.SourceID { return model.SourceRetail }

var (
	// One product cell per match: href, title, price text.
	retailItemRe  = regexp.MustCompile(`(?s)<a[^>]+class="[^"]*item_data[^"]*"[^>]+href="([^"]+)"[^>]*>(.*?)</a>`)
	retailTitleRe = regexp.MustCompile(`(?s)<p[^>]+class="[^"]*goods_name[^"]*"[^>]*>(.*?)</p>`)
	retailPriceRe = regexp.MustCompile(`([0-9][0-9,]*)\s*円`)
	tagRe         = regexp.MustCompile(`<[^>]+>`)
)

// Search implements Adapter. PSA-graded listings do not exist on the
// storefront, so PSA10 searches return nothing rather than guessing.
func (a *RetailAdapter) Search(ctx context.Context, card model.Card, cond model.Condition) ([]model.Listing, error) {
	if cond == model.ConditionPSA10 {
		return nil, nil
	}

	query := url.Values{}
	query.Set("keyword", a.buildQuery(card))

	searchURL := strings.TrimRight(a.cfg.BaseURL, "/") + "/product-list?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("User-Agent", a.cfg.UserAgent)
	req.Header.Set("Accept-Language", "ja")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &SourceError{Source: a.Name(), Message: "search request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &SourceError{Source: a.Name(), StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &SourceError{Source: a.Name(), Message: "read search response", Err: err}
	}

	listings := a.extract(string(body), card)
	a.logger.Debug("retail search complete",
		"card", card.Number,
		"usable", len(listings),
	)
	return listings, nil
}

// extract pulls (url, title, price) triples out of the search-result markup.
// Items whose title does not carry the card number are dropped: storefront
// search matches on names too, and a name-only match is usually a different
// printing.
func (a *RetailAdapter) extract(page string, card model.Card) []model.Listing {
	now := time.Now().UTC()
	var listings []model.Listing

	for _, m := range retailItemRe.FindAllStringSubmatch(page, -1) {
		href, block := m[1], m[2]

		title := ""
		if tm := retailTitleRe.FindStringSubmatch(block); tm != nil {
			title = strings.TrimSpace(tagRe.ReplaceAllString(tm[1], ""))
		}
		if title == "" || !strings.Contains(title, card.Number) {
			continue
		}

		pm := retailPriceRe.FindStringSubmatch(block)
		if pm == nil {
			continue
		}
		price, err := decimal.NewFromString(strings.ReplaceAll(pm[1], ",", ""))
		if err != nil || price.IsZero() {
			continue
		}

		listings = append(listings, model.Listing{
			Price:      price,
			Currency:   model.HomeCurrency,
			Title:      title,
			URL:        a.absoluteURL(href),
			Source:     a.Name(),
			ObservedAt: now,
		})
	}

	return listings
}

func (a *RetailAdapter) absoluteURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimRight(a.cfg.BaseURL, "/") + "/" + strings.TrimLeft(href, "/")
}

// buildQuery is the storefront's query grammar: card number plus the
// Japanese card name when the catalog has one.
func (a *RetailAdapter) buildQuery(card model.Card) string {
	if card.NameJA != "" {
		return card.Number + " " + card.NameJA
	}
	return card.Number
}
