package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/use-agent/truther/models"
)

// Verifier runs one verification end to end.
type Verifier interface {
	Verify(ctx context.Context, req *models.EvidenceRequest) (*models.AnalysisResult, error)
}

// Analyze returns the handler for POST /api/v1/analyze.
//
// The request is multipart form data: a "textInput" field, a "fileInput"
// file, or both. At least one must be present. The response is either the
// full analysis result or a plain {"error": ...} body.
func Analyze(verifier Verifier, maxUploadBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Header("X-Request-ID", requestID)

		// Bound the whole multipart body, not just the file part.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

		req, err := parseAnalyzeRequest(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
			return
		}
		if !req.HasContent() {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: "No content provided. Submit text, a URL, or a media file.",
			})
			return
		}

		slog.Info("analysis started",
			"requestId", requestID,
			"textChars", len(req.RawInput),
			"hasMedia", req.Media != nil)

		result, err := verifier.Verify(c.Request.Context(), req)
		if err != nil {
			respondAnalyzeError(c, requestID, err)
			return
		}

		slog.Info("analysis complete",
			"requestId", requestID,
			"status", result.Status,
			"score", result.Score)
		c.JSON(http.StatusOK, result)
	}
}

// parseAnalyzeRequest reads the multipart fields into an EvidenceRequest.
// Both fields are individually optional.
func parseAnalyzeRequest(c *gin.Context) (*models.EvidenceRequest, error) {
	req := &models.EvidenceRequest{
		RawInput: c.PostForm("textInput"),
	}

	file, header, err := c.Request.FormFile("fileInput")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return req, nil
		}
		return nil, errors.New("malformed upload: " + err.Error())
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.New("failed to read uploaded file: " + err.Error())
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if !supportedMediaType(mimeType) {
		return nil, errors.New("unsupported media type: " + mimeType)
	}
	req.Media = &models.Media{Data: data, MimeType: mimeType}
	return req, nil
}

// supportedMediaType limits uploads to media the reasoning model accepts
// inline.
func supportedMediaType(mimeType string) bool {
	for _, prefix := range []string{"image/", "video/", "audio/"} {
		if strings.HasPrefix(mimeType, prefix) {
			return true
		}
	}
	return false
}

// respondAnalyzeError maps pipeline errors to status codes. Safety
// rejections get a distinct user-facing message so the frontend can
// explain why no verdict exists.
func respondAnalyzeError(c *gin.Context, requestID string, err error) {
	var analysisErr *models.AnalysisError
	if !errors.As(err, &analysisErr) {
		analysisErr = models.NewAnalysisError(models.ErrCodeInternal, err.Error(), err)
	}

	slog.Error("analysis failed",
		"requestId", requestID,
		"code", analysisErr.Code,
		"error", err)

	switch analysisErr.Code {
	case models.ErrCodeInvalidInput:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: analysisErr.Message})
	case models.ErrCodeModelSafety:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Analysis blocked: the submission was rejected by the model's content safety filters.",
		})
	case models.ErrCodeModelRateLimited:
		c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
			Error: "The analysis service is under heavy load. Try again shortly.",
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Analysis failed. The content could not be verified at this time.",
		})
	}
}
