package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopscout/shopscout/models"
	"github.com/shopscout/shopscout/store"
)

// History returns a handler for GET /api/v1/history.
//
// Query parameters: marketplace, query, item_id, since (RFC 3339),
// limit (default 50, max 500), offset.
func History(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := store.SnapshotFilter{
			Query:  c.Query("query"),
			ItemID: c.Query("item_id"),
			Limit:  50,
		}

		if m := c.Query("marketplace"); m != "" {
			marketplace, err := models.ParseMarketplace(m)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				}})
				return
			}
			filter.Marketplace = marketplace
		}
		if s := c.Query("since"); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "since must be RFC 3339",
				}})
				return
			}
			filter.Since = &t
		}
		if l := c.Query("limit"); l != "" {
			n, err := strconv.Atoi(l)
			if err != nil || n < 1 || n > 500 {
				c.JSON(http.StatusBadRequest, gin.H{"error": &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "limit must be between 1 and 500",
				}})
				return
			}
			filter.Limit = n
		}
		if o := c.Query("offset"); o != "" {
			n, err := strconv.Atoi(o)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "offset must be non-negative",
				}})
				return
			}
			filter.Offset = n
		}

		snaps, err := st.Snapshots(c.Request.Context(), filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": &models.ErrorDetail{
				Code:    models.ErrCodeStore,
				Message: "failed to query price history",
			}})
			return
		}
		if snaps == nil {
			snaps = []*store.Snapshot{}
		}
		c.JSON(http.StatusOK, gin.H{
			"snapshots": snaps,
			"total":     len(snaps),
		})
	}
}
