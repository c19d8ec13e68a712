package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"wallgraph/internal/common/config"
	"wallgraph/internal/common/health"
	"wallgraph/internal/common/logging"
	"wallgraph/internal/common/middleware"
	"wallgraph/internal/importer/handlers"
	"wallgraph/internal/importer/mapper"
	"wallgraph/internal/importer/service"
	"wallgraph/internal/store"
)

// ============================================================
// Importer Service
// ============================================================

func main() {
	cfg := config.Load()
	if os.Getenv("PORT") == "" {
		cfg.Port = "3001"
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Development: cfg.IsDevelopment(),
		Service:     "importer",
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	kv, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatal("open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer kv.Close()

	opts := mapper.OptionsFrom(cfg.Tolerances)
	converter := mapper.New(opts, logger.Named("pipeline"))
	sessions := service.NewSessionManager(time.Duration(cfg.SessionTTLMinutes) * time.Minute)
	projects := service.NewProjects(kv, opts.Fingerprint, logger.Named("projects"))
	importHandler := handlers.New(converter, sessions, projects, cfg.Tolerances.ApplyCorrections, logger.Named("http"))

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    cfg.BodyLimitMB << 20,
		AppName:      "Importer Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger("importer"))
	app.Use(middleware.Metrics("importer"))
	if cfg.IsDevelopment() {
		app.Use(middleware.CORS())
	}

	// ============================================================
	// Health Check & Metrics Routes
	// ============================================================

	app.Get("/health/live", health.LivenessProbe)
	app.Get("/health/startup", health.StartupProbe)
	app.Get("/health/ready", health.ReadinessProbe(map[string]health.Checker{
		"store": kv.Ping,
	}))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// ============================================================
	// Importer Routes
	// ============================================================

	importHandler.Register(app)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("starting importer service",
		zap.String("addr", addr),
		zap.String("env", cfg.Environment),
		zap.String("store", cfg.Store.Driver),
	)

	if err := app.Listen(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
