package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/use-agent/truther/cache"
	"github.com/use-agent/truther/cleaner"
	"github.com/use-agent/truther/engine"
	"github.com/use-agent/truther/models"
)

// Extract acquires a browser session, navigates to the target URL under the
// configured time budget, and returns metadata plus cleaned text.
//
// gated enables stealth for hosts known to fight automation.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Budget guard    – hard deadline on the entire attempt
//  2. Cache lookup    – skip the browser for recently extracted URLs
//  3. Acquire session – or fall back to a plain HTTP fetch
//  4. DEFER: release  – the session closes on every exit path, exactly once
//  5. Navigate        – bounded by the tighter navigation timeout
//  6. Wait            – base-DOM stability, never network idle
//  7. Read DOM        – attempted even after navigation errors (partial
//     extraction beats no extraction)
//  8. Clean           – metadata precedence + bounded text snippet
//
// Every returned error is one of the recoverable extraction failures
// (NAVIGATION_TIMEOUT, NAVIGATION_FAILED, SESSION_UNAVAILABLE,
// EXTRACTION_EMPTY); the analyzer treats all of them as a signal to fall
// back, never as a terminal failure.
func (e *Extractor) Extract(ctx context.Context, target string, gated bool) (*models.ExtractionResult, error) {
	return e.ExtractWithCacheAge(ctx, target, gated, e.cfg.CacheMaxAge)
}

// ExtractWithCacheAge is Extract with a per-call bound on how stale a cached
// result may be. maxAge 0 skips the cache lookup entirely; the fresh result
// is still stored for later callers.
func (e *Extractor) ExtractWithCacheAge(ctx context.Context, target string, gated bool, maxAge time.Duration) (*models.ExtractionResult, error) {
	// ── 1. Budget guard ─────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(ctx, e.cfg.PageTimeout)
	defer cancel()

	// ── 2. Cache lookup ─────────────────────────────────────────────
	cacheKey := cache.Key(target)
	if e.cache != nil && maxAge > 0 {
		if cached, hit := e.cache.Get(cacheKey, maxAge); hit {
			out := *cached
			out.CacheStatus = "hit"
			return &out, nil
		}
	}

	// ── 3. Acquire session ──────────────────────────────────────────
	sess, acquireErr := e.backend.OpenSession(ctx, engine.SessionOptions{
		Stealth:              gated,
		BlockedResourceTypes: e.cfg.BlockedResourceTypes,
	})
	if acquireErr != nil {
		if e.httpFetcher != nil {
			slog.Warn("no browser session, attempting plain HTTP fetch",
				"url", target, "error", acquireErr)
			if result, err := e.extractOverHTTP(ctx, target); err == nil {
				e.storeCache(cacheKey, result)
				return result, nil
			}
		}
		return nil, models.NewAnalysisError(
			models.ErrCodeSessionUnavailable,
			"browser session could not be acquired",
			acquireErr,
		)
	}

	// ── 4. CRITICAL DEFER: guarantee session release on all exit paths
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			slog.Warn("session release failed", "url", target, "error", closeErr)
		}
	}()

	// ── 5. Navigate (nested, tighter timeout) ───────────────────────
	navCtx, navCancel := context.WithTimeout(ctx, e.cfg.NavigationTimeout)
	navErr := sess.Navigate(navCtx, target)

	// ── 6. Wait for base-DOM readiness ──────────────────────────────
	if navErr == nil {
		if waitErr := sess.WaitReady(navCtx); waitErr != nil {
			slog.Debug("DOM did not stabilise, proceeding with current state",
				"url", target, "error", waitErr)
		}
	}
	navCancel()

	// ── 7. Read the DOM, even after a navigation error ──────────────
	rawHTML, htmlErr := sess.HTML(ctx)
	if htmlErr != nil {
		// Total inability to read any content.
		if navErr != nil {
			return nil, categorizeError(navErr, "navigation to target URL failed")
		}
		return nil, categorizeError(htmlErr, "failed to read page DOM")
	}
	if navErr != nil {
		slog.Warn("navigation failed, extracted partial DOM state",
			"url", target, "error", navErr)
	}

	// ── 8. Clean ────────────────────────────────────────────────────
	result := e.buildResult(target, rawHTML, "browser")
	if result.Empty() {
		return nil, models.NewAnalysisError(
			models.ErrCodeExtractionEmpty,
			"page loaded but no usable text or metadata found",
			nil,
		)
	}

	e.storeCache(cacheKey, result)
	return result, nil
}

// extractOverHTTP is the degraded path when no browser session exists:
// fetch the document with a Chrome TLS fingerprint and run the same
// cleaning pipeline on the static HTML.
func (e *Extractor) extractOverHTTP(ctx context.Context, target string) (*models.ExtractionResult, error) {
	body, err := e.httpFetcher.fetch(ctx, target)
	if err != nil {
		return nil, err
	}

	result := e.buildResult(target, string(body), "http")
	if result.Empty() {
		return nil, models.NewAnalysisError(
			models.ErrCodeExtractionEmpty,
			"HTTP fallback returned no usable content",
			nil,
		)
	}
	return result, nil
}

// buildResult runs the cleaner over raw HTML and assembles the result.
func (e *Extractor) buildResult(target, rawHTML, fetchMethod string) *models.ExtractionResult {
	metadata := cleaner.ExtractMetadata(rawHTML)
	text := e.cleaner.Text(rawHTML, target, e.cfg.TextCap)

	slog.Debug("extraction cleaned",
		"url", target,
		"method", fetchMethod,
		"textChars", len(text),
		"tokenEstimate", cleaner.EstimateTokens(text),
	)

	return &models.ExtractionResult{
		Success:     true,
		URL:         target,
		Metadata:    metadata,
		Text:        text,
		FetchMethod: fetchMethod,
	}
}

func (e *Extractor) storeCache(key string, result *models.ExtractionResult) {
	if e.cache != nil {
		e.cache.Set(key, result)
	}
}

// categorizeError wraps raw errors into typed AnalysisErrors so both the
// analyzer and the API layer can branch on the failure class.
func categorizeError(err error, msg string) *models.AnalysisError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewAnalysisError(models.ErrCodeNavTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewAnalysisError(models.ErrCodeNavTimeout, "request canceled", err)
	default:
		return models.NewAnalysisError(models.ErrCodeNavFailed, msg, err)
	}
}
