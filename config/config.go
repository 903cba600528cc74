package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Model     ModelConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"

	// MaxUploadBytes caps attached media size on /api/v1/analyze.
	MaxUploadBytes int64 // default: 20 MiB
}

// BrowserConfig controls the browser backend.
type BrowserConfig struct {
	// RemoteURL, when set, selects the remote CDP backend instead of
	// launching a local browser. Format: "ws://host:port/...".
	RemoteURL string

	// Headless controls whether the local browser runs headless.
	Headless bool // default: true

	// MaxSessions is the session pool capacity (max concurrent tabs).
	MaxSessions int // default: 10

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// ScraperConfig controls extraction behavior.
type ScraperConfig struct {
	// PageTimeout is the hard wall-clock budget for one extraction
	// attempt (session acquisition + navigation + DOM read).
	PageTimeout time.Duration // default: 15s

	// NavigationTimeout bounds navigation alone, nested inside PageTimeout.
	NavigationTimeout time.Duration // default: 10s

	// TextCap is the maximum length in characters of extracted body text.
	TextCap int // default: 8000

	// BlockedResourceTypes lists resource classes aborted before transfer.
	// default: ["Image", "Stylesheet", "Font", "Media", "Other"]
	BlockedResourceTypes []string

	// HTTPFallback enables a plain HTTP fetch (Chrome TLS fingerprint)
	// when no browser session can be acquired.
	HTTPFallback bool // default: true

	// CacheMaxAge is how long a cached extraction stays acceptable.
	CacheMaxAge time.Duration // default: 15m
}

// ModelConfig controls the reasoning-service client.
type ModelConfig struct {
	// APIKey authenticates against the Gemini API. Required.
	APIKey string

	// Model is the Gemini model identifier.
	Model string // default: "gemini-2.5-flash"

	// BaseURL overrides the API endpoint (useful for tests).
	BaseURL string

	// Timeout bounds one generateContent call.
	Timeout time.Duration // default: 90s
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-identity rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per identity.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per identity.
	Burst int // default: 5
}

// CacheConfig controls the extraction-result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached extractions.
	MaxEntries int // default: 500
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           envOr("TRUTHER_HOST", "0.0.0.0"),
			Port:           envIntOr("TRUTHER_PORT", 8080),
			Mode:           envOr("TRUTHER_MODE", "release"),
			MaxUploadBytes: int64(envIntOr("TRUTHER_MAX_UPLOAD_BYTES", 20<<20)),
		},
		Browser: BrowserConfig{
			RemoteURL:   os.Getenv("TRUTHER_BROWSER_REMOTE_URL"),
			Headless:    envBoolOr("TRUTHER_HEADLESS", true),
			MaxSessions: envIntOr("TRUTHER_MAX_SESSIONS", 10),
			NoSandbox:   envBoolOr("TRUTHER_NO_SANDBOX", false),
			BrowserBin:  os.Getenv("TRUTHER_BROWSER_BIN"),
		},
		Scraper: ScraperConfig{
			PageTimeout:       envDurationOr("TRUTHER_PAGE_TIMEOUT", 15*time.Second),
			NavigationTimeout: envDurationOr("TRUTHER_NAV_TIMEOUT", 10*time.Second),
			TextCap:           envIntOr("TRUTHER_TEXT_CAP", 8000),
			BlockedResourceTypes: envSliceOr("TRUTHER_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media", "Other",
			}),
			HTTPFallback: envBoolOr("TRUTHER_HTTP_FALLBACK", true),
			CacheMaxAge:  envDurationOr("TRUTHER_CACHE_MAX_AGE", 15*time.Minute),
		},
		Model: ModelConfig{
			APIKey:  os.Getenv("TRUTHER_API_KEY"),
			Model:   envOr("TRUTHER_MODEL", "gemini-2.5-flash"),
			BaseURL: os.Getenv("TRUTHER_MODEL_BASE_URL"),
			Timeout: envDurationOr("TRUTHER_MODEL_TIMEOUT", 90*time.Second),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("TRUTHER_AUTH_ENABLED", false),
			APIKeys: envSliceOr("TRUTHER_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("TRUTHER_RATE_RPS", 2.0),
			Burst:             envIntOr("TRUTHER_RATE_BURST", 5),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("TRUTHER_CACHE_MAX_ENTRIES", 500),
		},
		Log: LogConfig{
			Level:  envOr("TRUTHER_LOG_LEVEL", "info"),
			Format: envOr("TRUTHER_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
