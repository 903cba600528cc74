// Package engine abstracts the browser execution environment behind a
// small capability interface. The extraction layer needs exactly: open a
// session, navigate, wait for base-DOM readiness, read the DOM, close the
// session. Which backend provides those capabilities (a locally launched
// headless Chrome or a remote pooled CDP endpoint) is decided once at
// process start from configuration.
package engine

import (
	"context"

	"github.com/use-agent/truther/models"
)

// Backend produces browser sessions.
type Backend interface {
	// Name returns the backend identifier (e.g. "local", "remote").
	Name() string

	// OpenSession acquires a fresh browser session. Every returned
	// session must be closed exactly once by the caller, on every exit
	// path.
	OpenSession(ctx context.Context, opts SessionOptions) (Session, error)

	// Stats returns a snapshot of session pool utilisation.
	Stats() models.PoolStats

	// Close releases the backend's resources (kills or disconnects the
	// browser). Call on graceful shutdown.
	Close()
}

// SessionOptions configures a single session.
type SessionOptions struct {
	// Stealth injects anti-bot-detection JS before navigation.
	Stealth bool

	// BlockedResourceTypes lists resource classes to abort before they
	// transfer (e.g. "Image", "Stylesheet", "Font", "Media", "Other").
	BlockedResourceTypes []string
}

// Session is one request-scoped browser tab.
type Session interface {
	// Navigate loads the target URL. It returns once the navigation has
	// been committed; use WaitReady for DOM readiness.
	Navigate(ctx context.Context, url string) error

	// WaitReady blocks until the DOM is stable enough to read. A timeout
	// here is not fatal: the caller may still read whatever DOM exists.
	WaitReady(ctx context.Context) error

	// HTML returns the current rendered document.
	HTML(ctx context.Context) (string, error)

	// Close releases the session. Idempotent behavior is not required;
	// callers close exactly once.
	Close() error
}
