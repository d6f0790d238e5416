package app

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"parentpal_backend/database"
	"parentpal_backend/internal/config"
	"parentpal_backend/internal/handlers"
	"parentpal_backend/internal/logger"
	"parentpal_backend/internal/mailbox"
	"parentpal_backend/internal/middleware"
	"parentpal_backend/internal/repositories"
	"parentpal_backend/internal/routes"
	"parentpal_backend/internal/services"
	"parentpal_backend/internal/sms"
	"parentpal_backend/internal/utils"
	"parentpal_backend/internal/validator"
	"parentpal_backend/internal/workers"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("AutoMigrate failed", "error", err)
	}

	repos := buildRepositories(gormDB)
	container := buildServices(cfg, repos)

	ginRouter := SetupRouter(cfg, repos, container)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startWorkers(ctx, cfg, repos, container)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:    address,
		Handler: ginRouter,
	}

	go func() {
		logger.Info(fmt.Sprintf("Server starting on %s", address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}

func SetupRouter(cfg *config.Config, repos services.RepositorySet, container *services.ServiceContainer) *gin.Engine {
	appHandlers := handlers.NewAppHandlers(validator.New(), repos, container)

	ginRouter := initializeGinRouter(cfg)
	routes.RegisterRoutes(ginRouter, appHandlers)

	return ginRouter
}

func buildRepositories(gormDB *gorm.DB) services.RepositorySet {
	return services.RepositorySet{
		Users:         repositories.NewUserRepository(gormDB),
		Children:      repositories.NewChildRepository(gormDB),
		RawMessages:   repositories.NewRawMessageRepository(gormDB),
		Events:        repositories.NewEventRepository(gormDB),
		Custody:       repositories.NewCustodyRepository(gormDB),
		Notifications: repositories.NewNotificationRepository(gormDB),
	}
}

func buildServices(cfg *config.Config, repos services.RepositorySet) *services.ServiceContainer {
	completion := services.NewCompletionClient(services.CompletionConfig{
		Endpoint:    cfg.Extractor.Endpoint,
		APIKey:      cfg.Extractor.APIKey,
		Model:       cfg.Extractor.Model,
		Temperature: cfg.Extractor.Temperature,
		TimeoutSecs: cfg.Extractor.TimeoutSecs,
	})

	gateway := sms.NewTwilioGateway(sms.Config{
		AccountSID: cfg.SMS.AccountSID,
		AuthToken:  cfg.SMS.AuthToken,
		FromNumber: cfg.SMS.FromNumber,
	})

	emailer := utils.NewEmailSender(cfg)

	return services.NewServiceContainer(repos, completion, gateway, emailer, cfg.Ingest.Concurrency)
}

func startWorkers(ctx context.Context, cfg *config.Config, repos services.RepositorySet, container *services.ServiceContainer) {
	// Finish any message a previous run stored but never marked processed.
	go func() {
		if err := container.Ingestion.RecoverPending(ctx); err != nil {
			logger.Error("Pending message recovery failed", "error", err)
		}
	}()

	if cfg.Mailbox.Server != "" {
		worker := workers.NewMailboxWorker(mailbox.NewStandardClient(), container.Ingestion, cfg)
		if err := worker.Connect(); err != nil {
			logger.Error("Initial mailbox connection failed, worker will retry on poll", "error", err)
		}
		worker.Start(ctx)
		logger.Info("Mailbox worker started", "server", cfg.Mailbox.Server, "folder", cfg.Mailbox.Folder)
	} else {
		logger.Warn("Mailbox not configured, relying on inbound webhook only")
	}

	briefing := workers.NewBriefingWorker(repos.Users, container.Notification, cfg.Ingest.BriefingHour)
	briefing.Start(ctx)
	logger.Info("Briefing worker started", "hour", cfg.Ingest.BriefingHour)
}

func initializeGinRouter(cfg *config.Config) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery())
	ginRouter.Use(middleware.RequestIDMiddleware())
	ginRouter.Use(middleware.LoggingMiddleware())

	return ginRouter
}
