// Command truther-mcp exposes the verification API as MCP tools over stdio,
// so agent frameworks can fact-check content without speaking HTTP
// themselves.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// analysisResponse mirrors the analyze API response model.
type analysisResponse struct {
	Status           string `json:"status"`
	Score            int    `json:"score"`
	Title            string `json:"title"`
	SimpleSummary    string `json:"simpleSummary"`
	DetailedAnalysis string `json:"detailedAnalysis"`
	ContentDate      string `json:"contentDate"`
	IsBreakingNews   bool   `json:"isBreakingNews"`
	IsAiGenerated    bool   `json:"isAiGenerated"`
	Sources          []struct {
		Title    string `json:"title"`
		URL      string `json:"url"`
		Category string `json:"category"`
	} `json:"sources"`
	Error string `json:"error"`
}

// extractionResponse mirrors the extract API response model.
type extractionResponse struct {
	Success  bool `json:"success"`
	Metadata struct {
		Title     string `json:"title"`
		Author    string `json:"author"`
		Published string `json:"date"`
		SiteName  string `json:"siteName"`
	} `json:"metadata"`
	Text        string `json:"text"`
	FetchMethod string `json:"fetch_method"`
	Error       *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("TRUTHER_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("TRUTHER_MCP_API_KEY")

	s := server.NewMCPServer(
		"truther",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	verifyTool := mcp.NewTool("verify_content",
		mcp.WithDescription("Verify a claim, news article, or social media post. Accepts plain text or text containing a URL; URLs are scraped or resolved through web search as needed. Returns a verdict with an authenticity score, analysis, and cited sources."),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The claim or URL to verify"),
		),
	)
	s.AddTool(verifyTool, handleVerifyContent(apiURL, apiKey))

	extractTool := mcp.NewTool("extract_page",
		mcp.WithDescription("Extract metadata and readable text from a web page using a headless browser. Returns the evidence the verification pipeline would use, without running the analysis."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the page to extract"),
		),
		mcp.WithNumber("max_age",
			mcp.Description("Maximum acceptable age in milliseconds for a cached extraction (default: 0, always fetch fresh)"),
		),
	)
	s.AddTool(extractTool, handleExtractPage(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleVerifyContent(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 180 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, err := request.RequireString("content")
		if err != nil {
			return mcp.NewToolResultError("content is required"), nil
		}

		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		if err := w.WriteField("textInput", content); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to build request: %v", err)), nil
		}
		w.Close()

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/api/v1/analyze", &body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}
		httpReq.Header.Set("Content-Type", w.FormDataContentType())
		if apiKey != "" {
			httpReq.Header.Set("X-API-Key", apiKey)
		}

		resp, err := client.Do(httpReq)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}

		var analysis analysisResponse
		if err := json.Unmarshal(respBody, &analysis); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if analysis.Error != "" {
			return mcp.NewToolResultError(analysis.Error), nil
		}

		return mcp.NewToolResultText(formatVerdict(&analysis)), nil
	}
}

func handleExtractPage(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 60 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		maxAge := request.GetInt("max_age", 0)

		payload, err := json.Marshal(map[string]any{"url": url, "max_age": maxAge})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal request: %v", err)), nil
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/api/v1/extract", bytes.NewReader(payload))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if apiKey != "" {
			httpReq.Header.Set("X-API-Key", apiKey)
		}

		resp, err := client.Do(httpReq)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}

		var extraction extractionResponse
		if err := json.Unmarshal(respBody, &extraction); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !extraction.Success {
			errMsg := "extraction failed"
			if extraction.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", extraction.Error.Code, extraction.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Title: %s\n", extraction.Metadata.Title)
		fmt.Fprintf(&b, "Author: %s\n", extraction.Metadata.Author)
		fmt.Fprintf(&b, "Published: %s\n", extraction.Metadata.Published)
		fmt.Fprintf(&b, "Site: %s\n", extraction.Metadata.SiteName)
		fmt.Fprintf(&b, "Fetched via: %s\n\n", extraction.FetchMethod)
		b.WriteString(extraction.Text)
		return mcp.NewToolResultText(b.String()), nil
	}
}

// formatVerdict renders the analysis as readable text for the calling agent.
func formatVerdict(a *analysisResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Verdict: %s (score %d/100)\n", a.Status, a.Score)
	fmt.Fprintf(&b, "Title: %s\n", a.Title)
	fmt.Fprintf(&b, "Content date: %s\n", a.ContentDate)
	if a.IsBreakingNews {
		b.WriteString("Flag: breaking news, coverage may still be developing\n")
	}
	if a.IsAiGenerated {
		b.WriteString("Flag: content appears AI-generated or manipulated\n")
	}
	fmt.Fprintf(&b, "\nSummary: %s\n\n%s\n", a.SimpleSummary, a.DetailedAnalysis)

	if len(a.Sources) > 0 {
		b.WriteString("\nSources:\n")
		for _, s := range a.Sources {
			fmt.Fprintf(&b, "- [%s] %s (%s)\n", s.Category, s.Title, s.URL)
		}
	}
	return b.String()
}
