package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"annoloom/internal/config"
	"annoloom/internal/contextutil"
	"annoloom/internal/fileaccess"
	"annoloom/internal/http"
	"annoloom/internal/render"
	"annoloom/internal/resync"
	"annoloom/internal/service"
	"annoloom/internal/storage"
	"annoloom/internal/watcher"
	"annoloom/internal/workspace"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	ctx := contextutil.WithLogger(context.Background(), logger)

	// Resolve the workspace the served root belongs to
	scope, err := workspace.NewScope(cfg.RootDir, cfg.WorkspaceRoot)
	if err != nil {
		log.Fatalf("Failed to resolve workspace: %v", err)
	}
	ws, err := storage.NewWorkspaceRepo(db).GetOrCreateByKey(ctx, scope.Key(), scope.WorkspaceRoot())
	if err != nil {
		log.Fatalf("Failed to register workspace: %v", err)
	}
	annotationRepo := storage.NewAnnotationRepo(db, ws.ID)
	slog.Info("Workspace ready", "id", ws.ID, "root", scope.Root(), "workspace_root", scope.WorkspaceRoot())

	files, err := fileaccess.New(scope.Root(),
		fileaccess.WithFullReadLimit(cfg.ResyncFullLimitBytes),
		fileaccess.WithTreeCacheTTL(cfg.TreeCacheTTL),
	)
	if err != nil {
		log.Fatalf("Failed to open root: %v", err)
	}

	// Resync engine keys files by their workspace-relative path
	engine := resync.NewEngine(files, annotationRepo,
		resync.WithWindow(cfg.ResyncWindow),
		resync.WithFullLimitBytes(cfg.ResyncFullLimitBytes),
		resync.WithFileKey(scope.ToWorkspaceRelative),
	)
	scheduler := resync.NewScheduler(engine, resync.Options{RemoveBroken: true})

	deps := &http.Deps{
		Annotations: service.NewAnnotationService(annotationRepo, scope),
		Files:       service.NewFileService(files, scheduler),
		Verifier:    service.NewVerifier(engine),
		Markdown:    render.NewMarkdown(),
		DB:          db,
	}
	router := http.NewRouter(deps)

	var fsWatcher *watcher.Watcher
	if cfg.WatchEnabled {
		fsWatcher, err = watcher.New(scope.Root(), cfg.WatchDebounce, scheduler.Trigger)
		if err != nil {
			log.Fatalf("Failed to create file watcher: %v", err)
		}
		if err := fsWatcher.Start(); err != nil {
			log.Fatalf("Failed to start file watcher: %v", err)
		}
		slog.Info("Watching root for changes", "debounce", cfg.WatchDebounce)
	}

	// Start API server
	addr := ":" + cfg.APIPort
	server := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("Shutting down", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("API server failed", "error", err)
	}

	if fsWatcher != nil {
		if err := fsWatcher.Stop(); err != nil {
			slog.Warn("Failed to stop file watcher", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}

	scheduler.Wait()
	slog.Info("Shutdown complete")
}
