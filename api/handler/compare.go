package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopscout/shopscout/models"
	"github.com/shopscout/shopscout/store"
	"github.com/shopscout/shopscout/webhook"
)

// Comparer runs a cross-marketplace comparison. *scraper.Scraper satisfies it.
type Comparer interface {
	Compare(ctx context.Context, req *models.CompareRequest) (*models.CompareResponse, error)
}

// Compare returns a handler for POST /api/v1/compare.
//
// The comparison fans out to every requested marketplace concurrently;
// per-marketplace failures degrade to entries in the response's Errors map
// rather than failing the whole request. Ranked offers are persisted as
// price snapshots, and an optional webhook receives the completed result.
func Compare(sc Comparer, st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.CompareRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.CompareResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		resp, err := sc.Compare(c.Request.Context(), &req)
		if err != nil {
			searchErr, ok := err.(*models.SearchError)
			if !ok {
				searchErr = models.NewSearchError(models.ErrCodeInternal, err.Error(), err)
			}
			c.JSON(mapErrorToStatus(searchErr), models.CompareResponse{
				Success: false,
				Error:   searchErr.ToDetail(),
				Timing:  models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()},
			})
			return
		}

		// Persist offers as price snapshots (best-effort).
		if st != nil {
			recordOffers(c.Request.Context(), st, req.Query, resp.Offers)
		}

		if req.WebhookURL != "" {
			webhook.DeliverAsync(req.WebhookURL, req.WebhookSecret, &webhook.Event{
				Type:      "compare.completed",
				Timestamp: time.Now().Unix(),
				Data:      resp,
			})
		}

		c.JSON(http.StatusOK, resp)
	}
}

// recordOffers writes one price snapshot per ranked offer. Storage failures
// are logged, never surfaced: history is an accumulating side effect.
func recordOffers(ctx context.Context, st store.Store, query string, offers []models.Offer) {
	now := time.Now().UTC()
	for i := range offers {
		o := &offers[i]
		snap := &store.Snapshot{
			ID:          uuid.NewString(),
			Marketplace: o.Marketplace,
			Query:       query,
			ItemID:      o.ItemID,
			Title:       o.Title,
			Price:       o.Price,
			URL:         o.URL,
			Similarity:  o.Similarity,
			CreatedAt:   now,
		}
		if err := st.SaveSnapshot(ctx, snap); err != nil {
			slog.Warn("price snapshot not persisted",
				"marketplace", o.Marketplace, "query", query, "error", err)
			continue
		}
	}
}
