package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopscout/shopscout/api/handler"
	"github.com/shopscout/shopscout/api/middleware"
	"github.com/shopscout/shopscout/cache"
	"github.com/shopscout/shopscout/config"
	"github.com/shopscout/shopscout/scraper"
	"github.com/shopscout/shopscout/store"
	"github.com/shopscout/shopscout/watch"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health and metrics endpoints are intentionally outside auth so monitoring
// probes always work.
func NewRouter(sc *scraper.Scraper, cfg *config.Config, cc *cache.Cache, st store.Store, runner *watch.Runner, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(sc, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Search and comparison.
	protected.POST("/search", handler.Search(sc, cc))
	protected.POST("/compare", handler.Compare(sc, st))

	// Price watches.
	protected.POST("/watches", handler.CreateWatch(st))
	protected.GET("/watches", handler.ListWatches(st))
	protected.GET("/watches/:id", handler.GetWatch(st))
	protected.DELETE("/watches/:id", handler.DeleteWatch(st))
	protected.POST("/watches/:id/run", handler.RunWatch(st, runner))

	// Price history.
	protected.GET("/history", handler.History(st))

	return r
}
