// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
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

	"github.com/starford/pantry/internal/api"
	"github.com/starford/pantry/internal/filter"
	"github.com/starford/pantry/internal/index"
	"github.com/starford/pantry/internal/mcpserver"
	"github.com/starford/pantry/internal/recipeservice"
	"github.com/starford/pantry/internal/session"
	"github.com/starford/pantry/internal/sse"
	"github.com/starford/pantry/internal/storage"
)

var errConfigRequired = errors.New("config is required")

// runtime holds the pieces shared by every entry point.
type runtime struct {
	store *storage.FS
	db    *index.DB
	ix    *index.Indexer
}

// openRuntime prepares the site directory and the catalogue, and brings the
// catalogue up to date with the pages on disk.
func openRuntime(cfg *Config, logger *slog.Logger) (*runtime, error) {
	if err := os.MkdirAll(cfg.Site.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create site dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Site.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	ix := index.NewIndexer(db, store, cfg.Capture.Selectors, logger)
	if err := ix.Sync(); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	return &runtime{store: store, db: db, ix: ix}, nil
}

func (a *application) loggerTo(w io.Writer) *slog.Logger {
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

	logger := app.loggerTo(os.Stdout)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("site_path", cfg.Site.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Duration("debounce", cfg.Filter.Debounce),
		slog.String("log_level", cfg.App.LogLevel.String()))

	rt, err := openRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	broker := sse.NewBroker(cfg.SSE.CatalogThrottle)
	defer broker.Close()

	sessions := session.NewManager(
		session.WithDelay(cfg.Filter.Debounce),
		session.WithLogger(logger),
		session.WithPublisher(func(id string, res filter.Result) {
			broker.Publish(sse.Event{Type: sse.TypeFilterApplied, Session: id, Data: res})
		}),
	)
	defer sessions.Close()

	svc := recipeservice.NewService(rt.db, sessions)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if _, err := svc.ListPages(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "catalog unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	// Keep the catalogue in step with the site and tell subscribers.
	g.Go(func() error {
		err := rt.ix.Watch(gCtx, cfg.Site.Path, func(kind index.Kind, path string) {
			broker.PublishPageEvent(string(kind), path)
		})
		if err != nil {
			return fmt.Errorf("watcher: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
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

// RunMCP serves the MCP tools over stdio until stdin closes. Logs go to
// stderr since stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := app.loggerTo(os.Stderr)
	slog.SetDefault(logger)

	rt, err := openRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := rt.ix.Watch(ctx, cfg.Site.Path, nil); err != nil {
			logger.Error("watcher failed", slog.String("error", err.Error()))
		}
	}()

	srv := mcpserver.New(recipeservice.NewService(rt.db, nil), rt.store, rt.ix)
	logger.Info("MCP server starting", slog.String("site_path", cfg.Site.Path))
	return srv.ServeStdio()
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"status":%q}`, status)
}
