package models

// VerificationStatus is the truthfulness verdict for a piece of content.
type VerificationStatus string

const (
	StatusVerifiedReal  VerificationStatus = "VERIFIED_REAL"
	StatusLikelyReal    VerificationStatus = "LIKELY_REAL"
	StatusUncertain     VerificationStatus = "UNCERTAIN"
	StatusLikelyFake    VerificationStatus = "LIKELY_FAKE"
	StatusConfirmedFake VerificationStatus = "CONFIRMED_FAKE"
)

// ValidStatus reports whether s is one of the five known verdict statuses.
func ValidStatus(s VerificationStatus) bool {
	switch s {
	case StatusVerifiedReal, StatusLikelyReal, StatusUncertain,
		StatusLikelyFake, StatusConfirmedFake:
		return true
	}
	return false
}

// SourceCategory classifies a supporting source.
type SourceCategory string

const (
	CategoryOfficial      SourceCategory = "OFFICIAL"
	CategoryNews          SourceCategory = "NEWS"
	CategoryOpinion       SourceCategory = "OPINION"
	CategorySatire        SourceCategory = "SATIRE"
	CategorySocial        SourceCategory = "SOCIAL"
	CategoryUncategorized SourceCategory = "UNCATEGORIZED"
)

// Source is a single supporting reference in an AnalysisResult.
type Source struct {
	Title    string         `json:"title"`
	URL      string         `json:"url"`
	Category SourceCategory `json:"category"`
}

// MaxSources caps the source list on every AnalysisResult.
const MaxSources = 5

// AnalysisResult is the externally visible verdict schema.
//
// Invariant: every field is always populated. The normalizer substitutes
// documented defaults for anything the model omitted or mistyped, and never
// hands a partial object past its boundary.
type AnalysisResult struct {
	Status           VerificationStatus `json:"status"`
	Score            int                `json:"score"` // confidence, 0-100
	Title            string             `json:"title"`
	SimpleSummary    string             `json:"simpleSummary"`
	DetailedAnalysis string             `json:"detailedAnalysis"`
	ContentDate      string             `json:"contentDate"` // "YYYY-MM-DD" or "Unknown"
	IsBreakingNews   bool               `json:"isBreakingNews"`
	IsAiGenerated    bool               `json:"isAiGenerated"`
	Sources          []Source           `json:"sources"`
}
