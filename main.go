package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/PPLKelompok1-2025/lms-service/internal/certificates"
	"github.com/PPLKelompok1-2025/lms-service/internal/config"
	"github.com/PPLKelompok1-2025/lms-service/internal/events"
	"github.com/PPLKelompok1-2025/lms-service/internal/handlers"
	"github.com/PPLKelompok1-2025/lms-service/internal/repositories/postgres"
	"github.com/PPLKelompok1-2025/lms-service/internal/services"
	"github.com/PPLKelompok1-2025/lms-service/internal/utils"
	"github.com/PPLKelompok1-2025/lms-service/internal/validator"
	"github.com/PPLKelompok1-2025/lms-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Redis: %v", err)
		}
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()

	// Initialize validator
	businessValidator := validator.NewBusinessValidator()

	// Event bus: Kafka when brokers are configured, an in-process bus
	// otherwise so completion events still reach the certificate worker.
	var publisher events.Publisher
	var subscriber events.Subscriber
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, slogLogger)
		if err != nil {
			log.Fatalf("Failed to initialize Kafka publisher: %v", err)
		}
		kafkaSubscriber, err := events.NewKafkaSubscriber(cfg.KafkaBrokers, cfg.ConsumerGroup, slogLogger)
		if err != nil {
			log.Fatalf("Failed to initialize Kafka subscriber: %v", err)
		}
		publisher, subscriber = kafkaPublisher, kafkaSubscriber
	} else {
		bus := events.NewLocalBus(slogLogger)
		publisher, subscriber = bus, bus
	}

	// Certificate artifact pipeline
	generator := certificates.NewGenerator(
		certificates.NewRenderer(cfg.FontPath),
		certificates.NewDiskStore(cfg.StorageDir),
		slogLogger,
	)

	// Initialize services
	serviceManager := services.NewDefaultServiceManager(db, repo, slogLogger, businessValidator, services.Dependencies{
		Publisher:            publisher,
		Subscriber:           subscriber,
		CertificateGenerator: generator,
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Background certificate work: issue on completion events, and sweep
	// periodically for artifacts whose rendering previously failed.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	go func() {
		if err := serviceManager.Certificate().Start(workerCtx); err != nil {
			slogLogger.Error("Certificate worker stopped", "error", err)
		}
	}()
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				if done, err := serviceManager.Certificate().ProcessPending(workerCtx, 50); err != nil {
					slogLogger.Error("Pending certificate sweep failed", "error", err)
				} else if done > 0 {
					slogLogger.Info("Rendered pending certificates", "count", done)
				}
			}
		}
	}()

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, logger, cfg.Casdoor, repo.User())

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger)
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Stop background workers before dropping infrastructure handles
	stopWorkers()

	// Shutdown services (closes the event bus)
	if err := serviceManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown services: %v", err)
	}

	// Close database connection
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	// Close Redis connection
	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited")
}
