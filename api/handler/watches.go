package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopscout/shopscout/models"
	"github.com/shopscout/shopscout/store"
)

// WatchRunner executes a single watch on demand. *watch.Runner satisfies it.
type WatchRunner interface {
	RunOne(ctx context.Context, w *models.Watch) error
}

// CreateWatch returns a handler for POST /api/v1/watches.
func CreateWatch(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.WatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": &models.ErrorDetail{
				Code:    models.ErrCodeInvalidInput,
				Message: err.Error(),
			}})
			return
		}
		req.Defaults()

		w := &models.Watch{
			ID:             uuid.NewString(),
			Query:          req.Query,
			ReferenceTitle: req.ReferenceTitle,
			Marketplaces:   req.Marketplaces,
			MinSimilarity:  *req.MinSimilarity,
			WebhookURL:     req.WebhookURL,
			WebhookSecret:  req.WebhookSecret,
			CreatedAt:      time.Now().UTC(),
		}
		if err := st.SaveWatch(c.Request.Context(), w); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": &models.ErrorDetail{
				Code:    models.ErrCodeStore,
				Message: "failed to save watch",
			}})
			return
		}
		c.JSON(http.StatusCreated, w)
	}
}

// ListWatches returns a handler for GET /api/v1/watches.
func ListWatches(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		watches, err := st.Watches(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": &models.ErrorDetail{
				Code:    models.ErrCodeStore,
				Message: "failed to list watches",
			}})
			return
		}
		if watches == nil {
			watches = []*models.Watch{}
		}
		c.JSON(http.StatusOK, models.WatchListResponse{
			Watches: watches,
			Total:   len(watches),
		})
	}
}

// GetWatch returns a handler for GET /api/v1/watches/:id.
func GetWatch(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, err := st.Watch(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondWatchError(c, err)
			return
		}
		c.JSON(http.StatusOK, w)
	}
}

// DeleteWatch returns a handler for DELETE /api/v1/watches/:id.
func DeleteWatch(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := st.DeleteWatch(c.Request.Context(), c.Param("id")); err != nil {
			respondWatchError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// RunWatch returns a handler for POST /api/v1/watches/:id/run.
// It executes the watch immediately, outside its schedule.
func RunWatch(st store.Store, runner WatchRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, err := st.Watch(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondWatchError(c, err)
			return
		}
		if err := runner.RunOne(c.Request.Context(), w); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": &models.ErrorDetail{
				Code:    models.ErrCodeNavigation,
				Message: err.Error(),
			}})
			return
		}
		c.JSON(http.StatusOK, w)
	}
}

func respondWatchError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": &models.ErrorDetail{
			Code:    models.ErrCodeInvalidInput,
			Message: "watch not found",
		}})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": &models.ErrorDetail{
		Code:    models.ErrCodeStore,
		Message: "watch lookup failed",
	}})
}
