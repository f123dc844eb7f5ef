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

	"github.com/starford/clm/internal/api"
	"github.com/starford/clm/internal/course"
	"github.com/starford/clm/internal/coursespec"
	"github.com/starford/clm/internal/docservice"
	"github.com/starford/clm/internal/index"
	"github.com/starford/clm/internal/mcpserver"
	"github.com/starford/clm/internal/sse"
	"github.com/starford/clm/internal/storage"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{logOut: os.Stdout, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// logger installs the structured JSON logger as the default.
func (a *application) logger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOut, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// openCatalog opens the course and the SQLite catalog and brings the
// catalog up to date with the course tree.
func (a *application) openCatalog(ctx context.Context, logger *slog.Logger) (*storage.FS, *index.DB, error) {
	cfg := a.config
	store, err := storage.NewFS(cfg.Course.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init course storage: %w", err)
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init index: %w", err)
	}
	if err := index.Sync(ctx, db, store, cfg.Course.Rules, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	return store, db, nil
}

// Run starts the HTTP server and the course watcher.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("course_path", cfg.Course.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, db, err := app.openCatalog(ctx, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc := docservice.NewService(store, db, cfg.Course.Rules, cfg.Course.Languages)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := index.Watch(gCtx, db, store, cfg.Course.Rules, logger, broker.PublishDocumentEvent)
		if err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
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
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...", slog.Int("sse_clients", broker.ClientCount()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// Build derives every variant of the course into the output directory.
func Build(ctx context.Context, opts ...Option) (*course.Report, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	cfg := app.config
	logger := app.logger()

	source, err := storage.NewFS(cfg.Course.Path)
	if err != nil {
		return nil, fmt.Errorf("init course storage: %w", err)
	}
	if err := os.MkdirAll(cfg.Output.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	output, err := storage.NewFS(cfg.Output.Path)
	if err != nil {
		return nil, fmt.Errorf("init output storage: %w", err)
	}

	var spec *coursespec.CourseSpec
	if app.specFile != "" {
		spec, err = coursespec.ReadFile(app.specFile, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("course spec loaded",
			slog.String("file", app.specFile),
			slog.Int("documents", len(spec.Documents)))
	}

	return course.Build(ctx, course.BuildOptions{
		Source:    source,
		Output:    output,
		Rules:     cfg.Course.Rules,
		Languages: cfg.Course.Languages,
		Workers:   cfg.Output.Workers,
		Spec:      spec,
		Prune:     cfg.Output.Prune,
		Logger:    logger,
	})
}

// ServeMCP serves the MCP tools on stdin/stdout until the client
// disconnects. The catalog is kept current by a watcher meanwhile.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	if app.logOut == os.Stdout {
		app.logOut = io.Discard
	}
	cfg := app.config
	logger := app.logger()

	store, db, err := app.openCatalog(ctx, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := index.Watch(watchCtx, db, store, cfg.Course.Rules, logger, nil); err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
	}()
	defer func() {
		cancel()
		<-done
	}()

	svc := docservice.NewService(store, db, cfg.Course.Rules, cfg.Course.Languages)
	return mcpserver.New(svc, app.version).ServeStdio()
}
