// Package affiliate rewrites outbound listing URLs to carry the tracking
// parameters required for revenue attribution.
package affiliate

import (
	"net/url"
)

// trackedParams is the allow-list of tracking parameters stripped before the
// configured set is applied. Anything else on the URL is preserved.
var trackedParams = []string{
	"mkcid", "mkrid", "siid", "campid", "customid", "toolid", "mkevt", "mpre",
}

// Tagger applies eBay Partner Network tracking parameters to listing URLs.
type Tagger struct {
	campaignID string
	customID   string
}

// NewTagger creates a Tagger for the given campaign. customID may be empty.
func NewTagger(campaignID, customID string) *Tagger {
	return &Tagger{campaignID: campaignID, customID: customID}
}

// Tag returns the URL with any pre-existing tracking parameters replaced by
// the configured set. Idempotent: tagging a tagged URL yields the same
// result. A URL that cannot be parsed is returned unchanged; persistence is
// never blocked on rewrite failure.
func (t *Tagger) Tag(raw string) string {
	if t == nil || t.campaignID == "" {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}

	q := u.Query()
	for _, p := range trackedParams {
		q.Del(p)
	}

	q.Set("mkcid", "1")
	q.Set("mkrid", "711-53200-19255-0")
	q.Set("siid", "0")
	q.Set("campid", t.campaignID)
	if t.customID != "" {
		q.Set("customid", t.customID)
	}
	q.Set("toolid", "10001")
	q.Set("mkevt", "1")

	u.RawQuery = q.Encode()
	return u.String()
}
