// Package llm is a lightweight Gemini generateContent client. It uses
// net/http directly rather than the vendor SDK, keeping the request and
// response surface small enough to test against httptest.
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/use-agent/truther/config"
	"github.com/use-agent/truther/models"
	"github.com/use-agent/truther/prompt"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client issues generateContent calls against the Gemini API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

// NewClient builds a Gemini client from config. A missing API key is a
// deployment error and is reported here rather than on the first request.
func NewClient(cfg config.ModelConfig, httpClient *http.Client) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, models.NewAnalysisError(models.ErrCodeModelAuthFailure, "model API key is not configured", nil)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}, nil
}

// generateRequest is the generateContent request body.
type generateRequest struct {
	SystemInstruction *content  `json:"system_instruction,omitempty"`
	Contents          []content `json:"contents"`
	Tools             []tool    `json:"tools,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type tool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

// generateResponse is the minimal generateContent response we need.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// generateErrorResponse captures an API error from the Gemini backend.
type generateErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate performs one reasoning call and returns the raw model text.
// Parsing the text into a structured verdict is the caller's concern.
func (c *Client) Generate(ctx context.Context, payload prompt.Payload) (string, error) {
	reqBody := buildRequest(payload)

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", models.NewAnalysisError(models.ErrCodeModelFailure, "model request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", models.NewAnalysisError(models.ErrCodeModelFailure, "failed to read model response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyAPIError(resp.StatusCode, respBody)
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", models.NewAnalysisError(models.ErrCodeModelFailure, "failed to parse model response", err)
	}

	if genResp.PromptFeedback.BlockReason != "" {
		return "", models.NewAnalysisError(models.ErrCodeModelSafety,
			fmt.Sprintf("request blocked by model safety filters: %s", genResp.PromptFeedback.BlockReason), nil)
	}
	if len(genResp.Candidates) == 0 {
		return "", models.NewAnalysisError(models.ErrCodeModelFailure, "model returned no candidates", nil)
	}

	candidate := genResp.Candidates[0]
	if isSafetyFinish(candidate.FinishReason) {
		return "", models.NewAnalysisError(models.ErrCodeModelSafety,
			fmt.Sprintf("response blocked by model safety filters: %s", candidate.FinishReason), nil)
	}

	var text strings.Builder
	for _, p := range candidate.Content.Parts {
		text.WriteString(p.Text)
	}
	if text.Len() == 0 {
		return "", models.NewAnalysisError(models.ErrCodeModelFailure, "model returned an empty response", nil)
	}
	return text.String(), nil
}

func buildRequest(payload prompt.Payload) generateRequest {
	parts := []part{{Text: payload.Text}}
	if payload.Media != nil && len(payload.Media.Data) > 0 {
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: payload.Media.MimeType,
			Data:     base64.StdEncoding.EncodeToString(payload.Media.Data),
		}})
	}

	req := generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
	}
	if payload.System != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: payload.System}}}
	}
	if payload.GroundSearch {
		req.Tools = []tool{{GoogleSearch: &struct{}{}}}
	}
	return req
}

func isSafetyFinish(reason string) bool {
	switch reason {
	case "SAFETY", "PROHIBITED_CONTENT", "BLOCKLIST", "SPII":
		return true
	}
	return false
}

// classifyAPIError maps HTTP status codes to the error taxonomy so callers
// can distinguish misconfiguration from throttling from everything else.
func classifyAPIError(statusCode int, body []byte) *models.AnalysisError {
	var errResp generateErrorResponse
	msg := "model API error"
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.NewAnalysisError(models.ErrCodeModelAuthFailure, msg, nil)
	case http.StatusTooManyRequests:
		return models.NewAnalysisError(models.ErrCodeModelRateLimited, msg, nil)
	default:
		return models.NewAnalysisError(models.ErrCodeModelFailure,
			fmt.Sprintf("model API returned %d: %s", statusCode, msg), nil)
	}
}
