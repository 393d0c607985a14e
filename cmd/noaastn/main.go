package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/lmittmann/tint"

	httpapi "github.com/i474232898/noaastn/internal/api/http"
	"github.com/i474232898/noaastn/internal/config"
	"github.com/i474232898/noaastn/internal/noaa"
	"github.com/i474232898/noaastn/internal/noaa/ftpfetch"
	"github.com/i474232898/noaastn/internal/scheduler"
	"github.com/i474232898/noaastn/internal/store"
	"github.com/i474232898/noaastn/internal/store/sqlite"
)

const appName = "noaastn"

// Default version is "dev" if not set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg)
	slog.SetDefault(log)

	log.Info("starting",
		"version", version,
		"env", cfg.AppEnv,
		"ftp", cfg.FTPAddr,
		"log_level", cfg.LogLevel.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("exiting", "err", err)
		stop()
		os.Exit(1)
	}
}

// run wires the components and serves HTTP until ctx is done.
func run(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) error {
	// FTP transport guarded by a circuit breaker.
	fetcher := ftpfetch.NewClient(ftpfetch.Config{
		Addr:     cfg.FTPAddr,
		User:     cfg.FTPUser,
		Password: cfg.FTPPassword,
		Timeout:  cfg.FTPTimeout,
	}, log)

	// In-memory cache with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	svcCfg := noaa.ServiceConfig{BaseDir: cfg.BaseDir, Logger: log}
	if cfg.ArchiveDBPath != "" {
		archive, err := sqlite.Open(cfg.ArchiveDBPath, log)
		if err != nil {
			return fmt.Errorf("failed to open archive %s: %w", cfg.ArchiveDBPath, err)
		}
		defer archive.Close()
		svcCfg.Archive = archive
	}

	service := noaa.NewService(fetcher, memStore, svcCfg)

	// Scheduler that keeps the station listing warm.
	sched := scheduler.New(cfg.StationsRefreshInterval, scheduler.RefresherFunc(func(ctx context.Context) error {
		_, err := service.RefreshStations(ctx)
		return err
	}), log)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// Uncached observation requests wait on an FTP download.
		WriteTimeout: cfg.FTPTimeout + 10*time.Second,
		ErrorHandler: httpapi.ErrorHandler(log),
	})

	// Global middleware
	app.Use(httpapi.RequestID())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} - ${latency} ${method} ${path} ${respHeader:X-Request-ID}\n",
	}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
			"version": version,
		})
	})

	httpapi.RegisterRoutes(app, service, httpapi.Options{RawDataDir: cfg.RawDataDir})

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(":" + cfg.Port)
	}()
	log.Info("listening", "port", cfg.Port)

	// Wait for termination signal
	select {
	case <-ctx.Done():
	case err := <-listenErr:
		return fmt.Errorf("fiber server stopped: %w", err)
	}
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "err", err)
	}
	return nil
}

func newLogger(cfg *config.AppConfig) *slog.Logger {
	if cfg.AppEnv == "dev" {
		h := tint.NewHandler(os.Stdout, &tint.Options{
			Level:      cfg.LogLevel,
			AddSource:  true,
			TimeFormat: time.Kitchen,
		})
		return slog.New(h).With("app", appName)
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})
	return slog.New(h).With(
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
	)
}
