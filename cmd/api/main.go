package main

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

	"libri/internal/config"
	"libri/internal/httpx"
	"libri/internal/library"
	"libri/internal/platform/googlebooks"
	"libri/internal/platform/googleid"
	"libri/internal/platform/postgres"
	"libri/internal/store"
	"libri/internal/user"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run(ctx context.Context, cfg config.Config) error {
	d, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	d.catalog = googlebooks.NewClient(cfg.GoogleBooksBaseURL, cfg.GoogleBooksAPIKey, cfg.UpstreamTimeout)
	d.identity = googleid.NewVerifier(cfg.GoogleUserInfoURL, cfg.UpstreamTimeout)
	if cfg.GoogleBooksAPIKey == "" {
		slog.Warn("GOOGLE_BOOKS_API_KEY is not set, book search will fail")
	}

	d.limiter = httpx.NewRateLimitMiddleware(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst)
	d.limiter.TrustProxy = cfg.TrustProxy
	go d.limiter.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(cfg, d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.Addr, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openStore returns repositories for the configured backend and a func that
// releases them.
func openStore(ctx context.Context, cfg config.Config) (deps, func(), error) {
	if cfg.Store == config.StoreMemory {
		slog.Warn("using in-memory store, data is lost on restart")
		return deps{
			users:   store.NewUserMemory(),
			library: store.NewLibraryMemory(),
		}, func() {}, nil
	}

	pool, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return deps{}, nil, fmt.Errorf("open database (%s): %w", cfg.RedactedDSN(), err)
	}
	slog.Info("database connection OK", "dsn", cfg.RedactedDSN())

	if err := postgres.Migrate(ctx, pool, "up"); err != nil {
		pool.Close()
		return deps{}, nil, fmt.Errorf("migrate: %w", err)
	}

	return deps{
		users:   user.NewPostgresRepo(pool, cfg.DBTimeout),
		library: library.NewPostgresRepo(pool, cfg.DBTimeout),
		ready:   pool.Ping,
	}, pool.Close, nil
}
