package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-tracker/internal/admin"
	"github.com/p-n-ai/pai-tracker/internal/auth"
	"github.com/p-n-ai/pai-tracker/internal/catalog"
	"github.com/p-n-ai/pai-tracker/internal/httpapi"
	"github.com/p-n-ai/pai-tracker/internal/platform/cache"
	"github.com/p-n-ai/pai-tracker/internal/platform/config"
	"github.com/p-n-ai/pai-tracker/internal/platform/database"
	"github.com/p-n-ai/pai-tracker/internal/progress"
	"github.com/p-n-ai/pai-tracker/internal/realtime"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(os.Stdout, cfg.Log))
	if cfg.UsesDefaultSecret() {
		slog.Warn("TRACKER_AUTH_JWT_SECRET is not set, using the development default for the memory store")
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	app, cleanup, err := build(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      app,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// newLogger builds the process logger from config.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

type stores struct {
	catalog  catalog.Store
	progress progress.Store
	users    auth.UserStore
	events   progress.EventLogger
	checks   []httpapi.Check
}

// build wires stores, services and the router. cleanup releases connections.
func build(ctx context.Context, cfg *config.Config) (http.Handler, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	s, dbClose, err := openStores(ctx, cfg)
	if err != nil {
		return nil, cleanup, err
	}
	if dbClose != nil {
		closers = append(closers, dbClose)
	}

	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("connecting to cache: %w", err)
		}
		closers = append(closers, func() { c.Close() })
		s.catalog = catalog.NewCachedStore(s.catalog, c, time.Duration(cfg.Cache.CatalogTTL)*time.Second)
		s.checks = append(s.checks, httpapi.Check{Name: "cache", Checker: c})
		slog.Info("catalog cache enabled", "ttl_seconds", cfg.Cache.CatalogTTL)
	}

	if cfg.CatalogPath != "" {
		loader, err := catalog.NewLoader(cfg.CatalogPath)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		if _, err := loader.Seed(ctx, s.catalog); err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("seeding catalog: %w", err)
		}
	}

	var google auth.GoogleVerifier
	if cfg.Auth.GoogleClientID != "" {
		v, err := auth.NewIDTokenVerifier(cfg.Auth.GoogleClientID)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		google = v
	}

	hub := realtime.NewHub(0)
	handler := httpapi.NewRouter(httpapi.Deps{
		Auth: auth.NewService(auth.ServiceConfig{
			Auth:     cfg.Auth,
			Users:    s.users,
			Progress: s.progress,
			Google:   google,
		}),
		Gateway: auth.NewGateway(cfg.Auth, s.users),
		Catalog: catalog.NewService(s.catalog),
		Progress: progress.NewService(progress.ServiceConfig{
			Catalog:  s.catalog,
			Store:    s.progress,
			Events:   s.events,
			Notifier: hub,
		}),
		Admin:          admin.NewService(s.users, s.catalog, s.progress),
		Hub:            hub,
		Checks:         s.checks,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	return handler, cleanup, nil
}

func openStores(ctx context.Context, cfg *config.Config) (stores, func(), error) {
	if cfg.Store == config.StoreMemory {
		slog.Info("using in-memory stores")
		return stores{
			catalog:  catalog.NewMemoryStore(),
			progress: progress.NewMemoryStore(),
			users:    auth.NewMemoryUserStore(),
			events:   progress.NopEventLogger{},
		}, nil, nil
	}

	db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		return stores{}, nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return stores{}, nil, fmt.Errorf("migrating database: %w", err)
	}

	catalogStore, err := catalog.NewPostgresStore(db.Pool)
	if err != nil {
		db.Close()
		return stores{}, nil, err
	}
	progressStore, err := progress.NewPostgresStore(db.Pool)
	if err != nil {
		db.Close()
		return stores{}, nil, err
	}
	userStore, err := auth.NewPostgresUserStore(db.Pool)
	if err != nil {
		db.Close()
		return stores{}, nil, err
	}

	return stores{
		catalog:  catalogStore,
		progress: progressStore,
		users:    userStore,
		events:   progress.NewPostgresEventLogger(db.Pool),
		checks:   []httpapi.Check{{Name: "database", Checker: db}},
	}, db.Close, nil
}
