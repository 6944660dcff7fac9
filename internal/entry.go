// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"crypto/rand"
	"encoding/hex"
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

	"github.com/starford/lookviz/internal/api"
	"github.com/starford/lookviz/internal/dashboardsvc"
	"github.com/starford/lookviz/internal/graph"
	"github.com/starford/lookviz/internal/history"
	"github.com/starford/lookviz/internal/mcpserver"
	"github.com/starford/lookviz/internal/sse"
	"github.com/starford/lookviz/internal/storage"
	"github.com/starford/lookviz/internal/ui"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", out: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func (a *application) jsonLogger(w io.Writer) *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	cfg := app.config
	logger := app.jsonLogger(os.Stdout)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("dashboards_path", cfg.Dashboards.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := openDashboards(cfg)
	if err != nil {
		return err
	}

	db, err := history.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init history: %w", err)
	}
	defer db.Close()

	broker := sse.NewBroker(cfg.Watch.Throttle)
	defer broker.Close()

	svc := dashboardsvc.New(store,
		dashboardsvc.WithHistory(db),
		dashboardsvc.WithNotifier(broker),
		dashboardsvc.WithLogger(logger),
	)

	secret := cfg.Session.Secret
	if secret == "" {
		if secret, err = randomSecret(); err != nil {
			return fmt.Errorf("generate session secret: %w", err)
		}
		logger.Warn("session.secret is empty, selections will not survive a restart")
	}
	sessions := api.NewSessions(api.NewCookieStore(secret))

	apiRouter := api.NewRouter(svc, sessions, api.RouterConfig{
		AuthEnabled:    cfg.Auth.AuthEnabled(),
		Token:          cfg.Auth.Token,
		MaxUploadBytes: cfg.Dashboards.MaxUploadBytes,
		Events:         broker,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", healthOK)
	r.Get("/health/ready", healthOK)

	r.Mount("/api", apiRouter)
	r.Handle("/", ui.Handler(ui.Page{
		APIBase:      "/api",
		AuthRequired: cfg.Auth.AuthEnabled(),
		Layouts: []string{
			string(graph.LayoutBarnesHut),
			string(graph.LayoutForceAtlas2),
			string(graph.LayoutHierarchical),
			string(graph.LayoutERD),
		},
	}))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Watch.Enabled {
		g.Go(func() error {
			if err := history.Watch(gCtx, store.Root(), store, logger, svc.HandleFileEvent); err != nil {
				logger.Warn("dashboard watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

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

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools over stdin/stdout. Logs go to stderr so they
// never interleave with protocol frames.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.jsonLogger(os.Stderr)

	store, err := openDashboards(app.config)
	if err != nil {
		return err
	}

	db, err := history.Open(app.config.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init history: %w", err)
	}
	defer db.Close()

	svc := dashboardsvc.New(store,
		dashboardsvc.WithHistory(db),
		dashboardsvc.WithLogger(logger),
	)

	logger.Info("MCP server starting", slog.String("dashboards_path", store.Root()))
	return mcpserver.New(svc, app.version).ServeStdio()
}

func openDashboards(cfg *Config) (*storage.FS, error) {
	if err := os.MkdirAll(cfg.Dashboards.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create dashboards dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Dashboards.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	return store, nil
}

func healthOK(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
