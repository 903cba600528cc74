package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/truther/analyzer"
	"github.com/use-agent/truther/api/handler"
	"github.com/use-agent/truther/api/middleware"
	"github.com/use-agent/truther/config"
	"github.com/use-agent/truther/engine"
	"github.com/use-agent/truther/scraper"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(an *analyzer.Analyzer, extractor *scraper.Extractor, backend engine.Backend, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(backend, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Full verification pipeline.
	protected.POST("/analyze", handler.Analyze(an, cfg.Server.MaxUploadBytes))

	// Extraction stage on its own.
	protected.POST("/extract", handler.Extract(extractor))

	return r
}
