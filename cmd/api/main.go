package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fanreg/internal/config"
	"fanreg/internal/database"
	"fanreg/internal/database/migration"
	handlers "fanreg/internal/http/handler"
	"fanreg/internal/http/middleware"
	"fanreg/internal/oracle"
	"fanreg/internal/otel"
	"fanreg/internal/repository/postgres"
	"fanreg/internal/service"
	"fanreg/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Tracing is optional; Init degrades to a noop provider on exporter errors.
	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		logger.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer shutdownTracing(ctx)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	migCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := migration.EnsureMigrated(migCtx, db, time.UTC, cfg.Database.Host); err != nil {
		cancel()
		logger.Fatal("failed to migrate database", zap.Error(err))
	}
	cancel()

	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		logger.Fatal("failed to initialize object storage", zap.Error(err))
	}

	gemini, err := oracle.NewGemini(ctx, cfg.Oracle)
	if err != nil {
		logger.Fatal("failed to initialize oracle client", zap.Error(err))
	}

	regRepo := postgres.NewRegistrationPostgres(db)
	regSvc := service.NewRegistrationService(gemini, objStore, regRepo, logger, cfg.Oracle)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    32 * 1024 * 1024,
	})

	// RequestID first so the logger and error payloads can pick it up.
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMw, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		logger.Fatal("failed to register metrics", zap.Error(err))
	}
	app.Use(promMw.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, db, regSvc)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
