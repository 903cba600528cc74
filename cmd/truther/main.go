package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/use-agent/truther/analyzer"
	"github.com/use-agent/truther/api"
	"github.com/use-agent/truther/cache"
	"github.com/use-agent/truther/cleaner"
	"github.com/use-agent/truther/config"
	"github.com/use-agent/truther/engine"
	"github.com/use-agent/truther/llm"
	"github.com/use-agent/truther/scraper"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	_ = godotenv.Load() // .env is optional
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("truther starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"model", cfg.Model.Model,
		"maxSessions", cfg.Browser.MaxSessions,
	)

	// ── 3. Initialise browser backend ───────────────────────────────
	backend, err := newBackend(cfg.Browser)
	if err != nil {
		slog.Error("failed to initialise browser backend", "error", err)
		os.Exit(1)
	}
	defer backend.Close()
	slog.Info("browser backend ready", "backend", backend.Name())

	// ── 4. Initialise extraction pipeline ───────────────────────────
	cl := cleaner.NewCleaner()
	cc := cache.New(cfg.Cache.MaxEntries)
	extractor := scraper.NewExtractor(backend, cl, cfg.Scraper, cc)

	// ── 5. Initialise reasoning client ──────────────────────────────
	model, err := llm.NewClient(cfg.Model, nil)
	if err != nil {
		slog.Error("failed to initialise model client", "error", err)
		os.Exit(1)
	}

	an := analyzer.New(extractor, model)

	// ── 6. Setup router and HTTP server ─────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(an, extractor, backend, cfg, startTime)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// backend.Close() runs via defer — drains the session pool and, for the
	// local backend, kills the browser.
	slog.Info("truther stopped")
}

// newBackend selects the browser backend: a remote CDP endpoint when
// configured, otherwise a locally launched browser.
func newBackend(cfg config.BrowserConfig) (engine.Backend, error) {
	if cfg.RemoteURL != "" {
		return engine.NewRemoteBackend(cfg.RemoteURL, cfg.MaxSessions)
	}
	return engine.NewLocalBackend(cfg)
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
