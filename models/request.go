package models

// SearchRequest is the payload for POST /api/v1/search.
type SearchRequest struct {
	// Marketplace is the site to search. Required.
	Marketplace string `json:"marketplace" binding:"required,oneof=amazon walmart target homedepot"`

	// Query is the search phrase. Required.
	Query string `json:"query" binding:"required,min=1,max=200"`

	// Timeout is the maximum duration in seconds for the entire
	// operation (navigation + rendering + extraction).
	// Default: 30. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`

	// Stealth enables anti-bot-detection evasions (e.g. navigator.webdriver masking).
	// Default: false.
	Stealth bool `json:"stealth,omitempty"`

	// FetchMode controls the fetching strategy.
	// "auto" (default): HTTP-first with browser escalation via the dispatcher.
	// "http": force pure HTTP (fastest, no JS rendering).
	// "browser": force headless Chrome.
	FetchMode string `json:"fetch_mode,omitempty" binding:"omitempty,oneof=auto browser http"`

	// MaxAge, in milliseconds, allows serving a cached response no older
	// than this. 0 (default) bypasses the cache.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// Defaults applies default values to unset fields.
func (r *SearchRequest) Defaults() {
	if r.Timeout == 0 {
		r.Timeout = 30
	}
	if r.FetchMode == "" {
		r.FetchMode = "auto"
	}
}

// CompareRequest is the payload for POST /api/v1/compare.
type CompareRequest struct {
	// Query is the search phrase sent to every marketplace. Required.
	Query string `json:"query" binding:"required,min=1,max=200"`

	// ReferenceTitle is the title offers are scored against.
	// Defaults to Query when empty.
	ReferenceTitle string `json:"reference_title,omitempty" binding:"omitempty,max=500"`

	// Marketplaces restricts the comparison to a subset of sites.
	// Empty means all supported marketplaces.
	Marketplaces []string `json:"marketplaces,omitempty" binding:"omitempty,dive,oneof=amazon walmart target homedepot"`

	// MinSimilarity filters out offers scoring below this threshold.
	// Default: 0.3.
	MinSimilarity *float64 `json:"min_similarity,omitempty" binding:"omitempty,min=0,max=1"`

	// MaxResults caps the number of ranked offers returned. Default: 20.
	MaxResults int `json:"max_results,omitempty" binding:"omitempty,min=1,max=100"`

	// Timeout is the per-marketplace fetch deadline in seconds.
	// Default: 30. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`

	// Stealth enables anti-bot evasions for the underlying fetches.
	Stealth bool `json:"stealth,omitempty"`

	// WebhookURL, when set, receives the completed comparison as an
	// HMAC-signed webhook event in addition to the HTTP response.
	WebhookURL string `json:"webhook_url,omitempty" binding:"omitempty,url"`

	// WebhookSecret signs the webhook payload when non-empty.
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *CompareRequest) Defaults() {
	if r.ReferenceTitle == "" {
		r.ReferenceTitle = r.Query
	}
	if len(r.Marketplaces) == 0 {
		r.Marketplaces = make([]string, 0, len(AllMarketplaces))
		for _, m := range AllMarketplaces {
			r.Marketplaces = append(r.Marketplaces, string(m))
		}
	}
	if r.MinSimilarity == nil {
		def := 0.3
		r.MinSimilarity = &def
	}
	if r.MaxResults == 0 {
		r.MaxResults = 20
	}
	if r.Timeout == 0 {
		r.Timeout = 30
	}
}
