package engine

import (
	"context"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"
)

// rodSession adapts a rod page to the Session interface. Both backends
// produce rodSessions; they differ only in how the page is acquired and
// released.
type rodSession struct {
	page    *rod.Page
	router  *rod.HijackRouter
	release func(*rod.Page)
}

// prepareSession applies per-session options to a freshly acquired page.
// Stealth JS and the hijack router must be installed before navigation:
// they only take effect for navigations that happen after they are mounted.
func prepareSession(page *rod.Page, opts SessionOptions, release func(*rod.Page)) *rodSession {
	if opts.Stealth {
		// Best-effort: proceed without stealth if injection fails.
		_, _ = page.EvalOnNewDocument(stealth.JS)
	}

	router := setupHijack(page, opts.BlockedResourceTypes)

	return &rodSession{
		page:    page,
		router:  router,
		release: release,
	}
}

func (s *rodSession) Navigate(ctx context.Context, target string) error {
	// A Google-search referer gets past the crudest hotlink checks.
	if u, err := url.Parse(target); err == nil {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(map[string]string{
				"Referer": "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname()),
			}),
		}.Call(s.page)
	}

	return s.page.Context(ctx).Navigate(target)
}

func (s *rodSession) WaitReady(ctx context.Context) error {
	// DOM-stable beats network-idle here: waiting for idle conflicts with
	// the Fetch-domain hijack router and busts the time budget on chatty
	// pages.
	return s.page.Context(ctx).WaitDOMStable(300*time.Millisecond, 0.1)
}

func (s *rodSession) HTML(ctx context.Context) (string, error) {
	return s.page.Context(ctx).HTML()
}

// Close stops the hijack router and hands the page back to the backend.
// It deliberately uses the original page reference (without any request
// context), so cleanup succeeds even after the request deadline expired.
func (s *rodSession) Close() error {
	if s.router != nil {
		_ = s.router.Stop()
	}
	s.release(s.page)
	return nil
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
