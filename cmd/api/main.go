package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"mongorest/docs"
	"mongorest/internal/config"
	"mongorest/internal/database"
	handlers "mongorest/internal/http/handler"
	"mongorest/internal/http/middleware"
	"mongorest/internal/logging"
	"mongorest/internal/manager"
	"mongorest/internal/otel"
	"mongorest/internal/service"
	"mongorest/internal/storage"
)

// @title mongorest API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		logger.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer shutdownTracing(ctx)

	client, err := database.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		logger.Fatal("failed to connect to mongodb", zap.Error(err))
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.Mongo.Database)
	if err := database.EnsureCollections(ctx, db, cfg.API.Collections, logger.Sugar()); err != nil {
		logger.Fatal("failed to bootstrap collections", zap.Error(err))
	}

	// Object storage backs the export endpoint; without an endpoint the
	// endpoint answers 501 and everything else works.
	var objStore storage.Storage
	if cfg.MinIO.Endpoint != "" {
		objStore, err = storage.NewMinIO(cfg.MinIO)
		if err != nil {
			logger.Fatal("failed to initialize object storage", zap.Error(err))
		}
	} else {
		logger.Warn("object storage not configured, export disabled")
	}

	managers := service.ManagerFactory(func(collection string) service.ResourceManager {
		return manager.New(db.Collection(collection), manager.Options{
			IDField:         cfg.API.IDField,
			RegexSuffix:     cfg.API.RegexSuffix,
			ExcludeFields:   cfg.API.ExcludeFields,
			DefaultPageSize: cfg.API.DefaultPageSize,
		})
	})
	svc := service.NewResourceService(
		managers,
		objStore,
		cfg.API.IDField,
		cfg.API.Collections,
		time.Duration(cfg.API.ExportExpirySec)*time.Second,
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMW, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		logger.Fatal("failed to register metrics", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(logger))
	app.Use(otelfiber.Middleware())
	app.Use(promMW.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, client, svc)

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
	logger.Info("starting server", zap.String("addr", addr), zap.String("database", cfg.Mongo.Database))

	if err := app.Listen(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
