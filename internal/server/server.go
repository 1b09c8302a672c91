// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server wires the recovery flow together and serves it over HTTP.
package server

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

	"codeberg.org/oliverandrich/recovery-service/internal/config"
	"codeberg.org/oliverandrich/recovery-service/internal/directory"
	"codeberg.org/oliverandrich/recovery-service/internal/handlers"
	"codeberg.org/oliverandrich/recovery-service/internal/i18n"
	"codeberg.org/oliverandrich/recovery-service/internal/mailer"
	"codeberg.org/oliverandrich/recovery-service/internal/recovery"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"store_backend", cfg.Store.Backend,
	)

	// i18n
	if err := i18n.Init(); err != nil {
		return fmt.Errorf("failed to init i18n: %w", err)
	}

	// Sender credentials. A missing or partial credentials file is fatal:
	// the flow must not come up without its send capability.
	creds, err := config.LoadCredentials(cfg.SMTP.CredentialsFile)
	if err != nil {
		slog.Error("failed to load sender credentials", "error", err)
		return err
	}

	dispatcher, err := mailer.NewDispatcher(&cfg.SMTP, creds)
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	// User directory
	dir, closeDir, err := openDirectory(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open user directory: %w", err)
	}
	defer func() {
		if closeErr := closeDir(); closeErr != nil {
			slog.Error("failed to close user directory", "error", closeErr)
		}
	}()

	flow := recovery.New(dir, dispatcher)

	flash, err := handlers.NewFlashCodec(cfg.Flash.HashKey)
	if err != nil {
		return fmt.Errorf("failed to create flash codec: %w", err)
	}

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(RequestLogger())

	setupRoutes(e, flow, flash)

	return startWithGracefulShutdown(ctx, e, cfg)
}

// openDirectory selects the user-store backend from the configuration.
// The JSON backend defers reading to lookup time; the SQLite backend
// validates its records up front and needs closing on shutdown.
func openDirectory(cfg config.StoreConfig) (directory.Directory, func() error, error) {
	switch cfg.Backend {
	case config.StoreBackendSQLite:
		store, err := directory.OpenSQLite(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.StoreBackendJSON, "":
		return directory.NewJSONStore(cfg.Path), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func setupRoutes(e *echo.Echo, flow *recovery.Flow, flash *handlers.FlashCodec) {
	h := handlers.New(flow, flash)

	e.GET("/", h.RecoveryPage)
	e.POST("/recover", h.Recover)
	e.GET("/health", h.Health)
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("server running", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case <-ctx.Done():
		slog.Info("shutting down server", "reason", ctx.Err())
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
		return err
	}

	slog.Info("server stopped")
	return nil
}
