package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/truther/classify"
	"github.com/use-agent/truther/models"
)

// PageExtractor acquires page evidence, optionally honoring a per-request
// cache-staleness bound.
type PageExtractor interface {
	ExtractWithCacheAge(ctx context.Context, target string, gated bool, maxAge time.Duration) (*models.ExtractionResult, error)
}

// Extract returns the handler for POST /api/v1/extract. It exposes the
// extraction stage on its own so callers can inspect what the analysis
// pipeline would feed the model for a given URL.
func Extract(extractor PageExtractor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ExtractRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ExtractionResult{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		gated := classify.Classify(req.URL).Gated
		maxAge := time.Duration(req.MaxAge) * time.Millisecond

		result, err := extractor.ExtractWithCacheAge(c.Request.Context(), req.URL, gated, maxAge)
		if err != nil {
			respondExtractError(c, err)
			return
		}
		if result.CacheStatus == "" {
			result.CacheStatus = "miss"
		}
		c.JSON(http.StatusOK, result)
	}
}

// respondExtractError maps an extraction failure to the HTTP status code
// and writes a structured error body.
func respondExtractError(c *gin.Context, err error) {
	analysisErr, ok := err.(*models.AnalysisError)
	if !ok {
		analysisErr = models.NewAnalysisError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(analysisErr), models.ExtractionResult{
		Success: false,
		Error:   analysisErr.ToDetail(),
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.AnalysisError) int {
	switch e.Code {
	case models.ErrCodeNavTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavFailed, models.ErrCodeExtractionEmpty:
		return http.StatusBadGateway // 502
	case models.ErrCodeSessionUnavailable:
		return http.StatusServiceUnavailable // 503
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
