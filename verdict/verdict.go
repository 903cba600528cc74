// Package verdict converts the reasoning model's free-form response into a
// fully populated AnalysisResult. Malformed model output is an expected
// condition here, not an exceptional one: normalization never fails.
package verdict

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/use-agent/truther/models"
)

// Documented defaults substituted for missing or mistyped fields.
const (
	defaultTitle       = "Unknown Content"
	defaultSummary     = "No summary provided."
	defaultAnalysis    = "No details provided."
	defaultContentDate = "Unknown"
	defaultSourceTitle = "Reference"
	defaultSourceURL   = "#"
)

// rawPrefixLimit bounds how much of an unparseable response ends up in the
// diagnostic result.
const rawPrefixLimit = 500

// strictDraft mirrors the result schema with exact types. If the model
// response decodes into this cleanly, only enum validation, score clamping
// and source defaulting remain.
type strictDraft struct {
	Status           string        `json:"status"`
	Score            int           `json:"score"`
	Title            string        `json:"title"`
	SimpleSummary    string        `json:"simpleSummary"`
	DetailedAnalysis string        `json:"detailedAnalysis"`
	ContentDate      string        `json:"contentDate"`
	IsBreakingNews   bool          `json:"isBreakingNews"`
	IsAiGenerated    bool          `json:"isAiGenerated"`
	Sources          []sourceDraft `json:"sources"`
}

type sourceDraft struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

// Normalize parses raw model output into an AnalysisResult.
//
// Pipeline:
//  1. Strip markdown code fences.
//  2. Slice from the first '{' to the last '}' and try that; failing that,
//     try the whole trimmed text.
//  3. Strict typed decode; on type mismatch, loose decode with
//     field-by-field coercion.
//  4. If nothing parses, return a diagnostic UNCERTAIN result embedding a
//     bounded prefix of the raw text.
//
// The returned result always satisfies the full schema invariant.
func Normalize(raw string) *models.AnalysisResult {
	cleaned := stripFences(raw)

	for _, candidate := range parseCandidates(cleaned) {
		var strict strictDraft
		if err := json.Unmarshal([]byte(candidate), &strict); err == nil {
			return fromStrict(&strict)
		}

		var loose map[string]any
		if err := json.Unmarshal([]byte(candidate), &loose); err == nil {
			return fromLoose(loose)
		}
	}

	return diagnosticResult(raw)
}

// stripFences removes markdown code-fence markers the model was told not
// to emit but often does anyway.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// parseCandidates returns the substrings worth attempting to parse, in
// order: the brace-delimited slice, then the whole text.
func parseCandidates(cleaned string) []string {
	var candidates []string

	first := strings.IndexByte(cleaned, '{')
	last := strings.LastIndexByte(cleaned, '}')
	if first != -1 && last > first {
		candidates = append(candidates, cleaned[first:last+1])
	}
	if len(candidates) == 0 || candidates[0] != cleaned {
		candidates = append(candidates, cleaned)
	}
	return candidates
}

func fromStrict(d *strictDraft) *models.AnalysisResult {
	status := models.VerificationStatus(d.Status)
	if !models.ValidStatus(status) {
		status = models.StatusUncertain
	}

	return &models.AnalysisResult{
		Status:           status,
		Score:            clampScore(d.Score),
		Title:            stringOr(d.Title, defaultTitle),
		SimpleSummary:    stringOr(d.SimpleSummary, defaultSummary),
		DetailedAnalysis: stringOr(d.DetailedAnalysis, defaultAnalysis),
		ContentDate:      stringOr(d.ContentDate, defaultContentDate),
		IsBreakingNews:   d.IsBreakingNews,
		IsAiGenerated:    d.IsAiGenerated,
		Sources:          normalizeSourceDrafts(d.Sources),
	}
}

// fromLoose rebuilds the result from an untyped object, coercing each field
// and substituting defaults for anything absent or of the wrong shape.
func fromLoose(m map[string]any) *models.AnalysisResult {
	status := models.VerificationStatus(asString(m["status"]))
	if !models.ValidStatus(status) {
		status = models.StatusUncertain
	}

	return &models.AnalysisResult{
		Status:           status,
		Score:            clampScore(asInt(m["score"])),
		Title:            stringOr(asString(m["title"]), defaultTitle),
		SimpleSummary:    stringOr(asString(m["simpleSummary"]), defaultSummary),
		DetailedAnalysis: stringOr(asString(m["detailedAnalysis"]), defaultAnalysis),
		ContentDate:      stringOr(asString(m["contentDate"]), defaultContentDate),
		IsBreakingNews:   asBool(m["isBreakingNews"]),
		IsAiGenerated:    asBool(m["isAiGenerated"]),
		Sources:          normalizeLooseSources(m["sources"]),
	}
}

// diagnosticResult is the total-failure path: the caller still gets a fully
// valid result, carrying enough of the raw text to debug the upstream model.
func diagnosticResult(raw string) *models.AnalysisResult {
	prefix := strings.TrimSpace(raw)
	if len(prefix) > rawPrefixLimit {
		prefix = prefix[:rawPrefixLimit] + "..."
	}

	return &models.AnalysisResult{
		Status:           models.StatusUncertain,
		Score:            0,
		Title:            "Analysis Parse Error",
		SimpleSummary:    "The model returned a response that could not be processed automatically.",
		DetailedAnalysis: "Raw Output: " + prefix,
		ContentDate:      defaultContentDate,
		IsBreakingNews:   false,
		IsAiGenerated:    false,
		Sources:          []models.Source{},
	}
}

func normalizeSourceDrafts(drafts []sourceDraft) []models.Source {
	if len(drafts) > models.MaxSources {
		drafts = drafts[:models.MaxSources]
	}
	sources := make([]models.Source, 0, len(drafts))
	for _, d := range drafts {
		sources = append(sources, models.Source{
			Title:    stringOr(d.Title, defaultSourceTitle),
			URL:      stringOr(d.URL, defaultSourceURL),
			Category: categoryOr(d.Category),
		})
	}
	return sources
}

func normalizeLooseSources(v any) []models.Source {
	items, ok := v.([]any)
	if !ok {
		return []models.Source{}
	}
	if len(items) > models.MaxSources {
		items = items[:models.MaxSources]
	}

	sources := make([]models.Source, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			sources = append(sources, models.Source{
				Title:    defaultSourceTitle,
				URL:      defaultSourceURL,
				Category: models.CategoryUncategorized,
			})
			continue
		}
		sources = append(sources, models.Source{
			Title:    stringOr(asString(obj["title"]), defaultSourceTitle),
			URL:      stringOr(asString(obj["url"]), defaultSourceURL),
			Category: categoryOr(asString(obj["category"])),
		})
	}
	return sources
}

// --- coercion helpers ---

func stringOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func categoryOr(s string) models.SourceCategory {
	if strings.TrimSpace(s) == "" {
		return models.CategoryUncategorized
	}
	return models.SourceCategory(s)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asBool coerces any non-boolean to false.
func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// asInt accepts JSON numbers and numeric strings; everything else is 0.
func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return int(f)
		}
	}
	return 0
}
