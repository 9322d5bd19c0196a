package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/student-portal-service/internal/auth"
	"github.com/SAP-F-2025/student-portal-service/internal/cache"
	"github.com/SAP-F-2025/student-portal-service/internal/config"
	"github.com/SAP-F-2025/student-portal-service/internal/events"
	"github.com/SAP-F-2025/student-portal-service/internal/handlers"
	"github.com/SAP-F-2025/student-portal-service/internal/repositories"
	"github.com/SAP-F-2025/student-portal-service/internal/repositories/mongodb"
	"github.com/SAP-F-2025/student-portal-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/student-portal-service/internal/services"
	"github.com/SAP-F-2025/student-portal-service/internal/utils"
	"github.com/SAP-F-2025/student-portal-service/internal/validator"
	"github.com/SAP-F-2025/student-portal-service/pkg"
	"github.com/gin-gonic/gin"
)

const (
	devTokenTTL        = 24 * time.Hour
	auditFallbackLimit = 1000
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.Environment, cfg.LogLevel)
	slogger := utils.ToSlogLogger(logger)

	// Document store; the connection is opened on first use.
	mongoRouter := pkg.NewMongoRouter(cfg.Mongo, slogger)
	indexCtx, cancelIndex := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout)
	if err := mongodb.EnsureIndexes(indexCtx, mongoRouter, slogger); err != nil {
		logger.Warn("Failed to ensure user indexes; continuing", "error", err)
	}
	cancelIndex()

	repo := repositories.NewRepository(
		mongodb.NewUserMongoRepository(mongoRouter),
		mongodb.NewRecordMongoRepository(mongoRouter),
		mongodb.NewAnalyticsMongoRepository(mongoRouter),
		newAuditRepository(cfg, slogger),
	)

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.Warn("Failed to create event publisher, using mock", "error", err)
		publisher = events.NewMockEventPublisher(slogger)
	}

	serviceManager := services.NewServiceManager(repo, publisher, validator.New(), slogger, services.ManagerConfig{
		DefaultRole: cfg.Identity.DefaultRole,
		Users: services.UserServiceConfig{
			StudentCodePrefix:      cfg.Student.CodePrefix,
			StudentCodeMaxAttempts: cfg.Student.CodeMaxAttempts,
		},
	})

	guard, closeGuard := newDeliveryGuard(cfg, logger)
	if cfg.Identity.WebhookSecret == "" {
		logger.Warn("WEBHOOK_SECRET not set, identity webhook accepts unsigned requests")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), utils.RequestID(), utils.LoggerMiddleware(logger, "/health"))

	handlerManager := handlers.NewHandlerManager(serviceManager, handlers.RouterConfig{
		Verifier:      newVerifier(cfg, logger),
		DeliveryGuard: guard,
		WebhookSecret: cfg.Identity.WebhookSecret,
		Store:         mongoRouter,
	}, logger)
	handlerManager.SetupRoutes(engine)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", "error", err)
		}
	case sig := <-sigCh:
		logger.Info("Shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Warn("Failed to close event publisher", "error", err)
	}
	closeGuard()
	if err := mongoRouter.Close(ctx); err != nil {
		logger.Warn("Failed to close mongo client", "error", err)
	}
	logger.Info("Server stopped")
}

// newAuditRepository prefers Postgres and falls back to the in-memory log.
func newAuditRepository(cfg *config.Config, logger *slog.Logger) repositories.AuditRepository {
	if cfg.Audit.DatabaseURL == "" {
		logger.Info("AUDIT_DATABASE_URL not set, keeping audit trail in memory")
		return repositories.NewLogAuditRepository(logger, auditFallbackLimit)
	}

	db, err := pkg.InitAuditDatabase(cfg)
	if err != nil {
		logger.Warn("Audit database unavailable, keeping audit trail in memory", "error", err)
		return repositories.NewLogAuditRepository(logger, auditFallbackLimit)
	}
	return postgres.NewAuditPostgreSQL(db)
}

func newDeliveryGuard(cfg *config.Config, logger utils.Logger) (cache.DeliveryGuard, func()) {
	if cfg.Redis.URL == "" {
		return cache.NewMemoryDeliveryGuard(cfg.Redis.DeliveryTTL), func() {}
	}

	client, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, using in-process delivery guard", "error", err)
		return cache.NewMemoryDeliveryGuard(cfg.Redis.DeliveryTTL), func() {}
	}
	return cache.NewRedisDeliveryGuard(client, cfg.Redis.DeliveryTTL), func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close redis client", "error", err)
		}
	}
}

func newVerifier(cfg *config.Config, logger utils.Logger) auth.Verifier {
	if cfg.Identity.UseCasdoor() {
		logger.Info("Verifying sessions with casdoor", "endpoint", cfg.Identity.Endpoint)
		return auth.NewCasdoorVerifier(auth.CasdoorConfig{
			Endpoint:     cfg.Identity.Endpoint,
			ClientID:     cfg.Identity.ClientID,
			ClientSecret: cfg.Identity.ClientSecret,
			Certificate:  cfg.Identity.Certificate,
			Organization: cfg.Identity.Organization,
			Application:  cfg.Identity.Application,
		})
	}
	logger.Warn("Casdoor not configured, verifying HS256 session tokens")
	return auth.NewHMACVerifier(cfg.Identity.JWTSecret, devTokenTTL)
}
