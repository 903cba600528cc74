package models

// PageMetadata holds document metadata extracted from a target page.
// Field precedence during extraction: Open Graph > Twitter Card >
// generic meta > page <title>.
type PageMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	SiteName    string `json:"siteName"`
	Author      string `json:"author"`
	Published   string `json:"date"`
}

// ExtractionResult is the outcome of one extraction attempt.
// Produced once, never mutated, owned by the analyzer for the duration
// of a single request.
type ExtractionResult struct {
	Success  bool         `json:"success"`
	URL      string       `json:"url,omitempty"`
	Metadata PageMetadata `json:"metadata"`

	// Text is the cleaned visible body text, whitespace-collapsed and
	// truncated to the configured cap.
	Text string `json:"text"`

	// FetchMethod records how the page was obtained: "browser" or "http".
	FetchMethod string `json:"fetch_method,omitempty"`

	// CacheStatus is "hit" or "miss" when caching was consulted.
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// Empty reports whether the extraction yielded no usable signal at all.
func (r *ExtractionResult) Empty() bool {
	return r.Text == "" && r.Metadata == (PageMetadata{})
}
