// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/notecal/internal/api"
	"github.com/starford/notecal/internal/calendar"
	"github.com/starford/notecal/internal/index"
	"github.com/starford/notecal/internal/mcpserver"
	"github.com/starford/notecal/internal/noteservice"
	"github.com/starford/notecal/internal/sse"
	"github.com/starford/notecal/internal/storage"
)

var errConfigRequired = errors.New("config is required")

// services is the wired core shared by every command.
type services struct {
	logger    *slog.Logger
	store     *storage.FS
	mirror    *index.DB
	cell      *index.Cell
	rescanner *index.Rescanner
	notes     *noteservice.Service
}

func (s *services) Close() {
	if s.mirror != nil {
		if err := s.mirror.Close(); err != nil {
			s.logger.Warn("mirror close failed", slog.String("error", err.Error()))
		}
	}
}

func (a *application) newLogger() *slog.Logger {
	out := a.logOutput
	if out == nil {
		out = os.Stdout
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
}

// build wires storage, the optional mirror, the index and the note service.
// It does not scan.
func (a *application) build(logger *slog.Logger, publish index.PublishHook, selection noteservice.SelectionHook) (*services, error) {
	cfg := a.config

	matcher, err := cfg.Workspace.Matcher()
	if err != nil {
		return nil, fmt.Errorf("init matcher: %w", err)
	}
	store, err := storage.NewFS(cfg.Workspace.Root, storage.WithMatcher(matcher))
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	s := &services{logger: logger, store: store, cell: index.NewCell()}

	rescanOpts := []index.RescannerOption{
		index.WithRescanLogger(logger),
		index.WithPublishHook(publish),
	}
	if cfg.SQLite.Enabled() {
		db, err := index.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("init mirror: %w", err)
		}
		s.mirror = db
		rescanOpts = append(rescanOpts, index.WithMirror(db))
	}

	indexer := index.NewIndexer(store,
		index.WithDateFields(cfg.Workspace.DateFields),
		index.WithWorkers(cfg.Workspace.ScanWorkers),
		index.WithLogger(logger),
	)
	s.rescanner = index.NewRescanner(indexer, s.cell, rescanOpts...)

	s.notes = noteservice.New(store, s.cell, s.rescanner,
		noteservice.WithDateFields(cfg.Workspace.DateFields),
		noteservice.WithNotesDirectory(cfg.Workspace.NotesDirectory),
		noteservice.WithFilenamePattern(cfg.Workspace.FilenamePattern),
		noteservice.WithLogger(logger),
		noteservice.WithSelectionHook(selection),
	)
	return s, nil
}

// start warms the index from the mirror, then runs the first full scan.
func (s *services) start(ctx context.Context) error {
	if _, err := s.rescanner.Warm(); err != nil {
		s.logger.Warn("warm start failed", slog.String("error", err.Error()))
	}
	if _, err := s.rescanner.Rescan(ctx); err != nil {
		return fmt.Errorf("initial scan: %w", err)
	}
	return nil
}

// Run starts the HTTP server and file watcher with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := app.newLogger()
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("workspace_root", cfg.Workspace.Root),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Any("date_fields", cfg.Workspace.DateFields),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker(0)
	defer broker.Close()

	svcs, err := app.build(logger,
		func(snap *index.Snapshot) {
			broker.PublishIndexUpdated(snap.Generation, snap.Index.Len(), snap.Index.Total())
		},
		broker.PublishSelection,
	)
	if err != nil {
		return err
	}
	defer svcs.Close()

	if err := svcs.start(ctx); err != nil {
		return err
	}

	apiRouter := api.NewRouter(svcs.notes, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
		if svcs.cell.Load().Generation == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"indexing"}`))
			return
		}
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
		err := index.Watch(gCtx, index.WatchParams{
			Root:       svcs.store.Root(),
			Rescanner:  svcs.rescanner,
			Filter:     svcs.store,
			Logger:     logger,
			Debounce:   cfg.Watcher.Debounce,
			RetryDelay: cfg.Watcher.RetryDelay,
			MaxRetries: cfg.Watcher.MaxRetries,
		})
		if err != nil {
			// The index stays queryable without live updates.
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

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher exits with the server.
var errShutdown = errors.New("shutdown")

// Scan runs one full scan and returns the published snapshot. The mirror,
// when configured, is updated.
func Scan(ctx context.Context, opts ...Option) (*index.Snapshot, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	svcs, err := app.build(app.newLogger(), nil, nil)
	if err != nil {
		return nil, err
	}
	defer svcs.Close()

	snap, err := svcs.rescanner.Rescan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return snap, nil
}

// Month scans the workspace and renders the calendar grid for the given
// month, marking today.
func Month(ctx context.Context, year int, month time.Month, opts ...Option) (string, error) {
	snap, err := Scan(ctx, opts...)
	if err != nil {
		return "", err
	}
	today := time.Now().UTC().Format(time.DateOnly)
	return calendar.RenderMonth(year, month, snap.Index, calendar.Marks{Today: today}), nil
}

// CreateNote scans the workspace and creates a note for date, or for today
// when date is empty.
func CreateNote(ctx context.Context, date string, opts ...Option) (*noteservice.CreatedNote, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	svcs, err := app.build(app.newLogger(), nil, nil)
	if err != nil {
		return nil, err
	}
	defer svcs.Close()

	if err := svcs.start(ctx); err != nil {
		return nil, err
	}
	return svcs.notes.CreateNoteForDate(ctx, date)
}

// ServeMCP serves the MCP tools over stdio while a watcher keeps the index
// current. Logs go to stderr unless WithLogOutput says otherwise.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	logger := app.newLogger()

	svcs, err := app.build(logger, nil, nil)
	if err != nil {
		return err
	}
	defer svcs.Close()

	if err := svcs.start(ctx); err != nil {
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		err := index.Watch(watchCtx, index.WatchParams{
			Root:       svcs.store.Root(),
			Rescanner:  svcs.rescanner,
			Filter:     svcs.store,
			Logger:     logger,
			Debounce:   app.config.Watcher.Debounce,
			RetryDelay: app.config.Watcher.RetryDelay,
			MaxRetries: app.config.Watcher.MaxRetries,
		})
		if err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
	}()

	logger.Info("MCP server starting", slog.String("version", app.version))
	return mcpserver.New(svcs.notes, svcs.store, app.version).ServeStdio()
}
