package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopscout/shopscout/cache"
	"github.com/shopscout/shopscout/metrics"
	"github.com/shopscout/shopscout/models"
)

// Searcher runs a single-marketplace search. *scraper.Scraper satisfies it.
type Searcher interface {
	Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error)
}

// Search returns a handler for POST /api/v1/search.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults.
//  2. Cache lookup when the client allows stale results (max_age > 0).
//  3. Scraper.Search → fetch + locate + extract.
//  4. Cache store, record metrics, return 200.
func Search(sc Searcher, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.SearchResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		marketplace := models.Marketplace(req.Marketplace)

		// ── 2. Cache lookup ─────────────────────────────────────────
		var cacheKey string
		if cc != nil && req.MaxAge > 0 {
			cacheKey = cache.Key(marketplace, req.Query, req.FetchMode)
			if cached, hit := cc.Get(cacheKey, req.MaxAge); hit {
				// Shallow copy; the cached entry is shared across
				// concurrent hits and must not be mutated.
				resp := *cached
				resp.CacheStatus = "hit"
				resp.Timing = models.TimingInfo{
					TotalMs: time.Since(totalStart).Milliseconds(),
				}
				// Nothing was extracted on this request.
				metrics.RecordSearch(req.Marketplace, resp.StatusCode, "hit",
					time.Since(totalStart), 0, 0)
				c.JSON(http.StatusOK, &resp)
				return
			}
		}

		// ── 3. Search ───────────────────────────────────────────────
		resp, err := sc.Search(c.Request.Context(), &req)
		if err != nil {
			metrics.RecordSearch(req.Marketplace, 0, "", time.Since(totalStart), 0, 0)
			respondError(c, err, models.TimingInfo{
				TotalMs: time.Since(totalStart).Milliseconds(),
			})
			return
		}

		// ── 4. Cache store + metrics ────────────────────────────────
		if cacheKey != "" {
			// Mark before publishing; once stored, the entry is shared.
			resp.CacheStatus = "miss"
			cc.Set(cacheKey, resp)
		}
		metrics.RecordSearch(req.Marketplace, resp.StatusCode, resp.CacheStatus,
			time.Since(totalStart), len(resp.Products), resp.CandidatesSkipped)

		c.JSON(http.StatusOK, resp)
	}
}

// respondError maps a SearchError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	searchErr, ok := err.(*models.SearchError)
	if !ok {
		searchErr = models.NewSearchError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(searchErr), models.SearchResponse{
		Success: false,
		Error:   searchErr.ToDetail(),
		Timing:  timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.SearchError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
