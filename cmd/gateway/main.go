package main

import (
	"fmt"
	"log"
	"net/http"
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
	"wallgraph/internal/gateway/proxy"
)

// ============================================================
// API Gateway
// ============================================================

func main() {
	cfg := config.Load()

	logger, err := logging.New(logging.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Development: cfg.IsDevelopment(),
		Service:     "gateway",
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    cfg.BodyLimitMB << 20,
		AppName:      "API Gateway",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger("gateway"))
	app.Use(middleware.Metrics("gateway"))
	app.Use(middleware.CORS())

	// ============================================================
	// Health Check Routes
	// ============================================================

	probe := &http.Client{Timeout: 2 * time.Second}
	app.Get("/health/live", health.LivenessProbe)
	app.Get("/health/startup", health.StartupProbe)
	app.Get("/health/ready", health.ReadinessProbe(map[string]health.Checker{
		"importer": health.HTTPCheck(probe, cfg.ImporterURL+"/health/ready"),
	}))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// ============================================================
	// API Routes
	// ============================================================

	api := app.Group("/api/v1")

	api.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Wall graph API v1",
			"status":  "ok",
		})
	})

	// ============================================================
	// Service Routes (Proxy)
	// ============================================================

	importer := proxy.New(cfg.ImporterURL, "/api/v1", time.Duration(cfg.WriteTimeout)*time.Second*3, logger.Named("proxy")).Handler()
	api.All("/imports", importer)
	api.All("/imports/*", importer)
	api.All("/projects/*", importer)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("starting API gateway",
		zap.String("addr", addr),
		zap.String("env", cfg.Environment),
		zap.String("importer", cfg.ImporterURL),
	)

	if err := app.Listen(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
