// Package prompt composes the instruction payload consumed by the verdict
// model. It is pure: the same request and extraction outcome always yield
// the same payload.
package prompt

import (
	"fmt"
	"strings"

	"github.com/use-agent/truther/models"
)

// SystemInstruction is the verification protocol sent with every request.
const SystemInstruction = `You are TRUTHER, a professional verified intelligence analyst.

YOUR GOAL:
Determine if the provided content is TRUE, FAKE, or AI-GENERATED.

*** STRATEGIC ANALYSIS PROTOCOL ***

PHASE 1: INPUT PROCESSING
- If input contains "REAL EXTRACTED CONTENT", analyze that directly.
- If input contains "WARNING: This appears to be behind a login wall", execute "Metadata Mining" (Phase 2).
- If input is a standard public URL, analyze directly.

PHASE 2: TECHNIQUE FOR LOGIN WALLS ("Metadata Mining")
- DO NOT attempt to "scrape" or "read" the login page itself.
- INSTEAD, use Google Search to find "Publicly Indexed Metadata":
  1. EXTRACT ID: Isolate the unique numeric/alphanumeric ID from the URL.
  2. SEARCH ID: Search specifically for this ID + "video" or "post".
  3. SEARCH CAPTIONS: If URL slug has keywords, search them.
  4. TARGET: Look for search snippets that contain:
     - The video title/description (often indexed).
     - "Partial Transcripts" cached by search engines.
     - Reposts on public sites (YouTube, DailyMotion).
     - Fact-check articles referencing this ID.

PHASE 3: VERDICT SYNTHESIS
- IF EXTERNAL EVIDENCE FOUND: Cross-reference findings to determine truth.
- IF ONLY LOGIN WALL FOUND: Return "UNCERTAIN". State: "Content is behind a login wall and no publicly indexed metadata or fact-checks were found." (DO NOT HALLUCINATE).

CRITICAL:
- Return valid JSON. No Markdown code blocks.

OUTPUT SCHEMA:
{
  "status": "VERIFIED_REAL" | "LIKELY_REAL" | "UNCERTAIN" | "LIKELY_FAKE" | "CONFIRMED_FAKE",
  "score": number, // 0-100 Confidence
  "title": "Descriptive Title",
  "simpleSummary": "2 sentence summary.",
  "detailedAnalysis": "Methodology and findings.",
  "contentDate": "YYYY-MM-DD" or "Unknown",
  "isBreakingNews": boolean,
  "isAiGenerated": boolean,
  "sources": [{ "title": "Source", "url": "URL", "category": "NEWS" }]
}`

// Advisory markers appended when extraction was blocked. The login-wall
// variant triggers the protocol's metadata-mining phase; the generic
// variant covers every other extraction failure.
const (
	loginWallAdvisory = "WARNING: This appears to be behind a login wall. The direct scrape was blocked."
	blockedAdvisory   = "WARNING: The content at this URL could not be retrieved. Rely on publicly indexed metadata and fact-checks instead of guessing."
)

// closingInstruction forces machine-parseable output on every request.
const closingInstruction = "EXECUTE PROTOCOL.\nRETURN ONLY JSON."

// Payload is the assembled instruction payload for one reasoning call.
type Payload struct {
	System string
	Text   string
	Media  *models.Media

	// GroundSearch asks the reasoning service to consult its live search
	// index during synthesis.
	GroundSearch bool
}

// Direct builds the payload for inputs that need no extraction: plain
// claims, media-only submissions, and publicly indexable URLs. The raw
// input passes through unchanged.
func Direct(req *models.EvidenceRequest) Payload {
	return fromText(req, req.RawInput)
}

// WithEvidence builds the payload for a successful extraction. The scraped
// metadata and text are embedded in a block explicitly labeled as
// externally sourced, so the model treats them as primary evidence rather
// than a claim to verify from scratch.
func WithEvidence(req *models.EvidenceRequest, extraction *models.ExtractionResult) Payload {
	var b strings.Builder
	fmt.Fprintf(&b, "REAL EXTRACTED CONTENT (Sourced from %s):\n\n", extraction.URL)
	b.WriteString("[METADATA]\n")
	fmt.Fprintf(&b, "Title: %s\n", extraction.Metadata.Title)
	fmt.Fprintf(&b, "Author: %s\n", extraction.Metadata.Author)
	fmt.Fprintf(&b, "Published: %s\n", extraction.Metadata.Published)
	fmt.Fprintf(&b, "Description: %s\n", extraction.Metadata.Description)
	fmt.Fprintf(&b, "Site: %s\n", extraction.Metadata.SiteName)
	b.WriteString("\n[PAGE CONTENT SNIPPET]\n")
	b.WriteString(extraction.Text)
	fmt.Fprintf(&b, "\n\nOriginal URL: %s", extraction.URL)

	return fromText(req, b.String())
}

// WithAdvisory builds the payload when extraction failed or was blocked.
// gated selects the login-wall phrasing that steers the model into its
// metadata-mining phase.
func WithAdvisory(req *models.EvidenceRequest, gated bool) Payload {
	advisory := blockedAdvisory
	if gated {
		advisory = loginWallAdvisory
	}
	return fromText(req, req.RawInput+"\n\n"+advisory)
}

func fromText(req *models.EvidenceRequest, text string) Payload {
	var b strings.Builder
	if text != "" {
		fmt.Fprintf(&b, "TARGET DATA: %q\n\n", text)
	}
	b.WriteString(closingInstruction)

	return Payload{
		System:       SystemInstruction,
		Text:         b.String(),
		Media:        req.Media,
		GroundSearch: true,
	}
}
