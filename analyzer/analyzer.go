// Package analyzer orchestrates one verification: route the input, acquire
// evidence when a browser is needed, run a single reasoning call, and
// normalize the verdict.
package analyzer

import (
	"context"
	"log/slog"

	"github.com/use-agent/truther/classify"
	"github.com/use-agent/truther/models"
	"github.com/use-agent/truther/prompt"
	"github.com/use-agent/truther/verdict"
)

// Extractor acquires page evidence through a browser session.
type Extractor interface {
	Extract(ctx context.Context, target string, gated bool) (*models.ExtractionResult, error)
}

// Generator performs one reasoning call and returns the raw model text.
type Generator interface {
	Generate(ctx context.Context, payload prompt.Payload) (string, error)
}

// Analyzer runs the verification pipeline. Per verification it performs at
// most one extraction and exactly one reasoning call; extraction failure
// downgrades the prompt to an advisory instead of failing the request.
type Analyzer struct {
	extractor Extractor
	model     Generator
}

func New(extractor Extractor, model Generator) *Analyzer {
	return &Analyzer{extractor: extractor, model: model}
}

// Verify processes one submission end to end. The only errors it returns
// are invalid input and reasoning-service failures; everything that goes
// wrong during evidence acquisition is absorbed into the prompt.
func (a *Analyzer) Verify(ctx context.Context, req *models.EvidenceRequest) (*models.AnalysisResult, error) {
	if !req.HasContent() {
		return nil, models.NewAnalysisError(models.ErrCodeInvalidInput, "request has no text or media content", nil)
	}

	c := classify.Classify(req.RawInput)
	payload := a.buildPayload(ctx, req, c)

	raw, err := a.model.Generate(ctx, payload)
	if err != nil {
		return nil, err
	}

	return verdict.Normalize(raw), nil
}

// buildPayload picks the prompt variant for the routing decision. Only
// BrowserRequired inputs touch the extractor.
func (a *Analyzer) buildPayload(ctx context.Context, req *models.EvidenceRequest, c classify.Classification) prompt.Payload {
	slog.Debug("input classified",
		"kind", c.Kind.String(),
		"url", c.URL,
		"gated", c.Gated)

	if c.Kind != classify.BrowserRequired {
		return prompt.Direct(req)
	}

	extraction, err := a.extractor.Extract(ctx, c.URL, c.Gated)
	if err != nil || !extraction.Success {
		slog.Warn("extraction failed, downgrading to advisory prompt",
			"url", c.URL,
			"gated", c.Gated,
			"error", err)
		return prompt.WithAdvisory(req, c.Gated)
	}

	slog.Debug("extraction succeeded",
		"url", c.URL,
		"method", extraction.FetchMethod,
		"cache", extraction.CacheStatus)
	return prompt.WithEvidence(req, extraction)
}
