// Package scraper is the evidence-acquisition engine: given a target URL it
// produces page metadata plus a bounded text snippet, or a typed failure the
// analyzer can recover from.
package scraper

import (
	"github.com/use-agent/truther/cache"
	"github.com/use-agent/truther/cleaner"
	"github.com/use-agent/truther/config"
	"github.com/use-agent/truther/engine"
)

// Extractor runs single-page extractions against a browser backend.
// It is safe for concurrent use; every extraction gets its own session.
type Extractor struct {
	backend     engine.Backend
	cleaner     *cleaner.Cleaner
	cfg         config.ScraperConfig
	httpFetcher *httpFetcher
	cache       *cache.Cache
}

// NewExtractor wires the extraction engine. cache may be nil to disable
// extraction caching.
func NewExtractor(backend engine.Backend, cl *cleaner.Cleaner, cfg config.ScraperConfig, cc *cache.Cache) *Extractor {
	var hf *httpFetcher
	if cfg.HTTPFallback {
		hf = newHTTPFetcher()
	}
	return &Extractor{
		backend:     backend,
		cleaner:     cl,
		cfg:         cfg,
		httpFetcher: hf,
		cache:       cc,
	}
}

// Backend exposes the active backend for health reporting.
func (e *Extractor) Backend() engine.Backend {
	return e.backend
}
