package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	// Extraction failure taxonomy. All of these are recoverable: the
	// analyzer falls back to the advisory prompt instead of failing.
	ErrCodeNavTimeout         = "NAVIGATION_TIMEOUT"
	ErrCodeNavFailed          = "NAVIGATION_FAILED"
	ErrCodeSessionUnavailable = "SESSION_UNAVAILABLE"
	ErrCodeExtractionEmpty    = "EXTRACTION_EMPTY"

	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"

	// Reasoning-service error codes. The only class surfaced to callers
	// of /api/v1/analyze as a user-visible failure.
	ErrCodeModelFailure     = "MODEL_FAILURE"
	ErrCodeModelSafety      = "MODEL_SAFETY_REJECTED"
	ErrCodeModelAuthFailure = "MODEL_AUTH_FAILURE"
	ErrCodeModelRateLimited = "MODEL_RATE_LIMITED"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AnalysisError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type AnalysisError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// NewAnalysisError creates a new AnalysisError.
func NewAnalysisError(code, message string, err error) *AnalysisError {
	return &AnalysisError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *AnalysisError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
