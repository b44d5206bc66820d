package models

import "time"

// Watch is a saved comparison re-run on a schedule. When the best price
// drops below the previous run's, a webhook event is fired.
type Watch struct {
	ID             string      `json:"id"`
	Query          string      `json:"query"`
	ReferenceTitle string      `json:"reference_title"`
	Marketplaces   []string    `json:"marketplaces"`
	MinSimilarity  float64     `json:"min_similarity"`
	WebhookURL     string      `json:"webhook_url,omitempty"`
	WebhookSecret  string      `json:"-"`
	CreatedAt      time.Time   `json:"created_at"`
	LastRunAt      *time.Time  `json:"last_run_at,omitempty"`
	LastBestOffer  *Offer      `json:"last_best_offer,omitempty"`
}

// WatchRequest is the payload for POST /api/v1/watches.
type WatchRequest struct {
	Query          string   `json:"query" binding:"required,min=1,max=200"`
	ReferenceTitle string   `json:"reference_title,omitempty" binding:"omitempty,max=500"`
	Marketplaces   []string `json:"marketplaces,omitempty" binding:"omitempty,dive,oneof=amazon walmart target homedepot"`
	MinSimilarity  *float64 `json:"min_similarity,omitempty" binding:"omitempty,min=0,max=1"`
	WebhookURL     string   `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret  string   `json:"webhook_secret,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *WatchRequest) Defaults() {
	if r.ReferenceTitle == "" {
		r.ReferenceTitle = r.Query
	}
	if len(r.Marketplaces) == 0 {
		for _, m := range AllMarketplaces {
			r.Marketplaces = append(r.Marketplaces, string(m))
		}
	}
	if r.MinSimilarity == nil {
		def := 0.3
		r.MinSimilarity = &def
	}
}

// WatchListResponse is the response for GET /api/v1/watches.
type WatchListResponse struct {
	Watches []*Watch `json:"watches"`
	Total   int      `json:"total"`
}
