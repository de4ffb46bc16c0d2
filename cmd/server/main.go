package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/csvload/internal/config"
	"github.com/JonMunkholm/csvload/internal/core"
	_ "github.com/JonMunkholm/csvload/internal/core/layouts" // Register all layouts
	"github.com/JonMunkholm/csvload/internal/logging"
	"github.com/JonMunkholm/csvload/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"max_concurrent", cfg.Limits.MaxConcurrent,
		"max_file_size", cfg.Limits.MaxFileSize,
		"api_key_required", cfg.Security.RequireAPIKey,
	)

	groups := map[string]int{}
	for _, l := range core.All() {
		groups[l.Group]++
	}
	slog.Info("layouts registered", "count", core.LayoutCount(), "groups", len(groups))
	for group, n := range groups {
		slog.Debug("layout group", "group", group, "layouts", n)
	}

	limiter := core.NewPassLimiter(cfg.Limits.MaxConcurrent, cfg.Limits.MaxWaitTime)
	server := web.NewServer(cfg, limiter)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := limiter.Status(); status.Active > 0 {
			slog.Info("waiting for parse passes to finish", "active", status.Active)
			if err := limiter.WaitForDrain(ctx); err != nil {
				slog.Warn("parse passes did not finish in time", "error", err)
			}
		}

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
