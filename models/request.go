package models

// Media is an uploaded file attached to a verification request.
type Media struct {
	Data     []byte
	MimeType string
}

// EvidenceRequest is one user submission to the verification pipeline.
// Created per request, immutable, consumed once by the analyzer.
type EvidenceRequest struct {
	RawInput string
	Media    *Media
}

// HasContent reports whether the request carries anything to verify.
func (r *EvidenceRequest) HasContent() bool {
	return r.RawInput != "" || (r.Media != nil && len(r.Media.Data) > 0)
}

// ExtractRequest is the payload for POST /api/v1/extract.
type ExtractRequest struct {
	// URL is the target page. Required.
	URL string `json:"url" binding:"required,url"`

	// MaxAge is the maximum acceptable age in milliseconds for a cached
	// extraction. 0 disables the cache lookup for this request.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}
