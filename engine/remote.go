package engine

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/truther/models"
)

// RemoteBackend connects to an externally managed CDP endpoint (a pooled
// browser service). Each session is a freshly created page on the remote
// browser, closed when the session closes; the remote service owns the
// browser process itself.
type RemoteBackend struct {
	browser        *rod.Browser
	maxSessions    int
	activeSessions atomic.Int32
}

// NewRemoteBackend connects to the given CDP control URL.
func NewRemoteBackend(controlURL string, maxSessions int) (*RemoteBackend, error) {
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewAnalysisError(
			models.ErrCodeSessionUnavailable,
			"failed to connect to remote browser",
			err,
		)
	}
	slog.Info("connected to remote browser", "controlURL", controlURL)

	return &RemoteBackend{
		browser:     browser,
		maxSessions: maxSessions,
	}, nil
}

func (b *RemoteBackend) Name() string { return "remote" }

func (b *RemoteBackend) OpenSession(ctx context.Context, opts SessionOptions) (Session, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewAnalysisError(
			models.ErrCodeSessionUnavailable,
			"failed to create page on remote browser",
			err,
		)
	}
	b.activeSessions.Add(1)

	release := func(p *rod.Page) {
		if closeErr := p.Close(); closeErr != nil {
			slog.Warn("cleanup: failed to close remote page", "error", closeErr)
		}
		b.activeSessions.Add(-1)
	}

	return prepareSession(page, opts, release), nil
}

func (b *RemoteBackend) Stats() models.PoolStats {
	return models.PoolStats{
		MaxSessions:    b.maxSessions,
		ActiveSessions: int(b.activeSessions.Load()),
	}
}

// Close disconnects the WebSocket but does NOT kill the remote browser;
// the pooled service owns its lifecycle.
func (b *RemoteBackend) Close() {
	if err := b.browser.Close(); err != nil {
		slog.Warn("remote backend: disconnect failed", "error", err)
	}
	slog.Info("remote backend disconnected")
}
