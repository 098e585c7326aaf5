package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"

	"workbench/docs"
	"workbench/internal/config"
	"workbench/internal/database"
	"workbench/internal/database/migration"
	handlers "workbench/internal/http/handler"
	"workbench/internal/http/middleware"
	"workbench/internal/logger"
	"workbench/internal/otel"
	"workbench/internal/repository/postgres"
	"workbench/internal/service"
	"workbench/internal/storage"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// @title Workbench API
// @version 1.0
// @description Upload tabular datasets and run correlation, covariate and missing-data analyses.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	log := logger.New(cfg.Env)
	log.Info("config_loaded", "env", cfg.Env, "timezone", cfg.TZLocation)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server_exited", "error", err)
		os.Exit(1)
	}
}

// run wires the service and serves until the listener stops. Every resource
// opened here is released before it returns.
func run(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) error {
	shutdownTracing, err := otel.Init(ctx, log, otel.Options{ServiceVersion: version, Environment: cfg.Env})
	if err != nil {
		return fmt.Errorf("initialize tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Error("failed to shut down tracing", "error", err)
		}
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		return fmt.Errorf("initialize object storage: %w", err)
	}

	metrics, err := service.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register analysis metrics: %w", err)
	}

	// Initialize repositories and services
	datasetRepo := postgres.NewDatasetPostgres(db)
	analysisRepo := postgres.NewAnalysisPostgres(db)
	datasetSvc := service.NewDatasetService(objStore, datasetRepo, cfg.MinIO.PresignExpiry())
	analysisSvc := service.NewAnalysisService(datasetSvc, objStore, analysisRepo, metrics, service.AnalysisConfig{
		Digits:        cfg.Analysis.RoundDigits,
		PresignExpiry: cfg.MinIO.PresignExpiry(),
		Logger:        log,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    cfg.Analysis.MaxUploadBytes,
	})

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Tracing())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(cfg.Location()))
	app.Use(promMiddleware.Handler())

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, objStore, datasetSvc, analysisSvc, prometheus.DefaultGatherer)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port
	log.Info("server_starting", "addr", addr)

	if err := app.Listen(addr); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	return nil
}
