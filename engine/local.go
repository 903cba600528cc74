package engine

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/truther/config"
	"github.com/use-agent/truther/models"
)

// LocalBackend launches and owns a headless Chrome process, handing out
// tabs from a reusable page pool. It is safe for concurrent use.
type LocalBackend struct {
	browser        *rod.Browser
	pagePool       rod.Pool[rod.Page]
	cfg            config.BrowserConfig
	activeSessions atomic.Int32
}

// NewLocalBackend launches a headless browser and initialises the page pool.
func NewLocalBackend(cfg config.BrowserConfig) (*LocalBackend, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewAnalysisError(
			models.ErrCodeSessionUnavailable,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewAnalysisError(
			models.ErrCodeSessionUnavailable,
			"failed to connect to browser",
			err,
		)
	}

	pool := rod.NewPagePool(cfg.MaxSessions)
	slog.Info("session pool created", "maxSessions", cfg.MaxSessions)

	return &LocalBackend{
		browser:  browser,
		pagePool: pool,
		cfg:      cfg,
	}, nil
}

func (b *LocalBackend) Name() string { return "local" }

// OpenSession borrows a tab from the pool. The returned session's Close
// hands the tab back; session reuse across requests happens only through
// the pool, never by sharing a live session.
func (b *LocalBackend) OpenSession(ctx context.Context, opts SessionOptions) (Session, error) {
	page, err := b.pagePool.Get(func() (*rod.Page, error) {
		return b.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, models.NewAnalysisError(
			models.ErrCodeSessionUnavailable,
			"failed to acquire page from pool",
			err,
		)
	}
	b.activeSessions.Add(1)

	release := func(p *rod.Page) {
		// about:blank before pool return prevents DOM memory buildup
		// across borrows.
		if navErr := p.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		b.pagePool.Put(p)
		b.activeSessions.Add(-1)
	}

	return prepareSession(page, opts, release), nil
}

// Stats returns a snapshot of the pool's current state.
func (b *LocalBackend) Stats() models.PoolStats {
	return models.PoolStats{
		MaxSessions:    b.cfg.MaxSessions,
		ActiveSessions: int(b.activeSessions.Load()),
	}
}

// Close drains the page pool and kills the browser process.
// Call this on graceful shutdown to prevent zombie Chrome processes.
func (b *LocalBackend) Close() {
	slog.Info("local backend shutting down: draining session pool")
	b.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	slog.Info("local backend shutting down: closing browser")
	b.browser.MustClose()
	slog.Info("local backend shutdown complete")
}
