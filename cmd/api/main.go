package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stackapi/internal/auth"
	"stackapi/internal/config"
	"stackapi/internal/database"
	"stackapi/internal/database/migration"
	handlers "stackapi/internal/http/handler"
	"stackapi/internal/http/middleware"
	"stackapi/internal/otel"
	"stackapi/internal/repository/postgres"
	"stackapi/internal/service"
	"stackapi/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := time.UTC

	ctx := context.Background()

	// Tracing is a no-op unless OTEL_ENABLED is set
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Object storage is optional; without it attachment endpoints fail cleanly
	var objStore storage.ObjectStore
	if cfg.ObjectStore.Endpoint != "" {
		objStore, err = storage.NewMinIO(cfg.ObjectStore)
		if err != nil {
			log.Fatalf("failed to initialize object storage: %v", err)
		}
	}

	// Initialize repositories and services
	userRepo := postgres.NewUserPostgres(db)
	itemRepo := postgres.NewItemPostgres(db)
	userSvc := service.NewUserService(userRepo)
	itemSvc := service.NewItemService(itemRepo, objStore)

	if cfg.Auth.SignKey == "" {
		log.Fatal("AUTH_SIGN_KEY must be set")
	}
	tokens := auth.NewTokenManager([]byte(cfg.Auth.SignKey), cfg.Auth.AccessTTL)

	if cfg.Auth.SuperuserEmail != "" {
		if err := userSvc.EnsureSuperuser(ctx, cfg.Auth.SuperuserEmail, cfg.Auth.SuperuserPassword); err != nil {
			log.Fatalf("failed to bootstrap superuser: %v", err)
		}
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to initialize metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, userSvc, itemSvc, tokens)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
