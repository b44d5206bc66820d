package models

// SearchResponse is the response for POST /api/v1/search.
type SearchResponse struct {
	// Success indicates whether the search completed without errors.
	// An empty Products slice with Success=true means the page yielded
	// no extractable listings — indistinguishable, by design, from a
	// page that had no results at all.
	Success bool `json:"success"`

	// Marketplace and Query echo the request.
	Marketplace Marketplace `json:"marketplace"`
	Query       string      `json:"query"`

	// Products are the listings extracted from the search-result page.
	Products []Product `json:"products"`

	// CandidatesFound is how many result elements the locator discovered.
	CandidatesFound int `json:"candidates_found"`

	// CandidatesSkipped counts elements where a mandatory field
	// (title, price, url) could not be resolved.
	CandidatesSkipped int `json:"candidates_skipped"`

	// StatusCode is the HTTP status code from the fetched page.
	StatusCode int `json:"status_code,omitempty"`

	// FinalURL is the search page URL after following redirects.
	FinalURL string `json:"final_url,omitempty"`

	// EngineUsed indicates which fetch engine produced the page
	// (e.g. "http", "rod", "rod-stealth").
	EngineUsed string `json:"engine_used,omitempty"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// CompareResponse is the response for POST /api/v1/compare.
type CompareResponse struct {
	Success        bool   `json:"success"`
	Query          string `json:"query"`
	ReferenceTitle string `json:"reference_title"`

	// Offers are the cross-marketplace results ranked by similarity,
	// then ascending price.
	Offers []Offer `json:"offers"`

	// BestOffer is the top-ranked offer, duplicated for convenience.
	BestOffer *Offer `json:"best_offer,omitempty"`

	// Errors maps marketplaces whose fetch failed to a short description.
	// A marketplace absent from both Offers and Errors returned no
	// extractable listings.
	Errors map[Marketplace]string `json:"errors,omitempty"`

	Timing TimingInfo   `json:"timing"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// FetchMs is the time spent fetching and rendering the page(s).
	FetchMs int64 `json:"fetch_ms,omitempty"`

	// ExtractMs is the time spent locating and extracting listings.
	ExtractMs int64 `json:"extract_ms,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}
