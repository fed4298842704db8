package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/nmacchitella/topoi/internal/adapters/directory"
	"github.com/nmacchitella/topoi/internal/adapters/http"
	natsadapter "github.com/nmacchitella/topoi/internal/adapters/nats"
	"github.com/nmacchitella/topoi/internal/adapters/valkey"
	"github.com/nmacchitella/topoi/internal/core/ports"
	"github.com/nmacchitella/topoi/internal/core/usecases"
	"github.com/nmacchitella/topoi/internal/pkg/config"
	"github.com/nmacchitella/topoi/internal/pkg/logging"
	"github.com/nmacchitella/topoi/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("topoi-gateway")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Directory backend
	dir := directory.Instrument(directory.NewClient(cfg.Directory.BaseURL, cfg.Directory.Token))

	// Cache
	var cache *valkey.Cache
	var cacheSvc ports.CacheService
	if cfg.Valkey.Enabled {
		cache, err = valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable, catalogs uncached", "error", err)
		} else {
			cacheSvc = cache
			defer cache.Close()
		}
	}

	// Change feed
	var feed ports.ChangeFeed
	if nf, err := natsadapter.NewChangeFeed(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, change notifications disabled", "error", err)
	} else {
		feed = nf
	}

	catalog := usecases.NewCatalogService(dir, cacheSvc, cfg.Directory.UserID)
	hub := usecases.NewSessionHub(feed, logging.Component("hub"))
	defer hub.Close()

	deps := &http.Dependencies{
		Catalog:   catalog,
		Hub:       hub,
		Directory: dir,
		SelfID:    cfg.Directory.UserID,
		Cache:     cache,
		Log:       logging.Component("session"),
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Topoi Gateway",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("gateway starting", "addr", addr, "user", cfg.Directory.UserID)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("gateway stopped")
}
