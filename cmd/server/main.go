package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iudanet/fieldkeeper/internal/server/config"
	"github.com/iudanet/fieldkeeper/internal/server/handlers"
	"github.com/iudanet/fieldkeeper/internal/server/jwt"
	"github.com/iudanet/fieldkeeper/internal/server/middleware"
	"github.com/iudanet/fieldkeeper/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fieldkeeper-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg.Logging.Level)
	logger.Info("starting fieldkeeper server",
		slog.String("version", Version),
		slog.String("addr", cfg.Addr()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", slog.Any("error", err))
		}
	}()

	tokens := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)

	// Health не логируем, его опрашивают клиенты для проверки доступности
	common := []handlers.Middleware{
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingWithSkip(logger, []string{"/api/v1/health"}),
	}
	if cfg.RateLimit.Enabled {
		common = append(common, middleware.RateLimitMiddleware(
			cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window, logger))
	}

	router := handlers.NewRouter(
		logger,
		handlers.NewAuthHandler(logger, store, tokens),
		handlers.NewSyncHandler(logger, store),
		handlers.NewHealthHandler(logger),
		middleware.AuthMiddleware(logger, tokens),
		common...,
	)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func printVersion() {
	fmt.Printf("FieldKeeper Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
