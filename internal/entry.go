// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/vaultmetrics/internal/api"
	"github.com/starford/vaultmetrics/internal/mcpserver"
	"github.com/starford/vaultmetrics/internal/metrics"
	"github.com/starford/vaultmetrics/internal/models"
	"github.com/starford/vaultmetrics/internal/service"
	"github.com/starford/vaultmetrics/internal/sse"
	"github.com/starford/vaultmetrics/internal/storage"
	"github.com/starford/vaultmetrics/internal/watch"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	// Initialize structured JSON logger.
	app.logger = slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(app.logger)
	return app, nil
}

// newService opens the configured vault and wires the pipeline service.
func (a *application) newService() (*service.Service, error) {
	cfg := a.config

	a.logger.Info("Configuration loaded",
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("output", cfg.Vault.Output),
		slog.String("todo_tags", cfg.Metrics.TodoTags),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	return service.New(store, cfg.Metrics.Options(""), cfg.Vault.Output, a.logger), nil
}

// Generate writes the snapshot of the configured vault into its output file.
func Generate(ctx context.Context, opts ...Option) (service.WriteResult, error) {
	app, err := newApplication(opts)
	if err != nil {
		return service.WriteResult{}, err
	}
	svc, err := app.newService()
	if err != nil {
		return service.WriteResult{}, err
	}

	start := time.Now()
	res, err := svc.WriteOutput(ctx)
	if err != nil {
		return res, fmt.Errorf("generate: %w", err)
	}
	app.logger.Info("Snapshot generated",
		slog.String("path", res.Path),
		slog.Int("notes", res.Notes),
		slog.Int("skipped", res.Skipped),
		slog.Bool("changed", res.Changed),
		slog.Duration("took", time.Since(start)))
	return res, nil
}

// Compute reads a host payload from r and writes the serialized snapshot to w.
// Paths are measured against the payload's vault root; no vault is opened.
func Compute(ctx context.Context, r io.Reader, w io.Writer, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	var req models.Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return fmt.Errorf("compute: decode request: %w", err)
	}

	doc, err := metrics.Compute(ctx, req.Notes, app.config.Metrics.Options(req.PathToVault))
	if err != nil {
		return fmt.Errorf("compute: %w", err)
	}
	app.logger.Debug("Snapshot computed", slog.Int("notes", len(req.Notes)))

	_, err = io.WriteString(w, doc)
	return err
}

// ServeMCP exposes the vault over the Model Context Protocol on stdio.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	svc, err := app.newService()
	if err != nil {
		return err
	}
	app.logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc).ServeStdio()
}

// NewHTTPHandler builds the full HTTP surface: health probes plus the API
// mounted under /api. broker may be nil.
func NewHTTPHandler(cfg *Config, svc *service.Service, broker *sse.Broker) http.Handler {
	var events http.Handler
	if broker != nil {
		events = broker
	}
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, events)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)
	return r
}

// Run starts the HTTP server and, when enabled, the vault watcher that keeps
// the output file current.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger

	svc, err := app.newService()
	if err != nil {
		return err
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	regenerate := func(ctx context.Context) {
		res, err := svc.WriteOutput(ctx)
		if err != nil {
			logger.Error("regenerate failed", slog.String("error", err.Error()))
			return
		}
		logger.Info("Snapshot regenerated",
			slog.Int("notes", res.Notes),
			slog.Int("skipped", res.Skipped),
			slog.Bool("changed", res.Changed))
		if res.Changed {
			broker.PublishMetrics(res)
		}
	}

	// Initial snapshot.
	regenerate(ctx)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: NewHTTPHandler(cfg, svc, broker),
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gCtx := errgroup.WithContext(runCtx)

	// Start file watcher with SSE callback.
	if cfg.Watch.Enabled {
		g.Go(func() error {
			return watch.Watch(gCtx, svc.Root(), cfg.Vault.Output, cfg.Watch.Debounce, logger,
				broker.PublishNoteChange, regenerate)
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		// Stops the watcher.
		stop()

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
