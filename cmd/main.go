package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vhvplatform/go-campaign-service/internal/emailtemplate"
	"github.com/vhvplatform/go-campaign-service/internal/events"
	"github.com/vhvplatform/go-campaign-service/internal/handler"
	"github.com/vhvplatform/go-campaign-service/internal/mailer"
	"github.com/vhvplatform/go-campaign-service/internal/middleware"
	"github.com/vhvplatform/go-campaign-service/internal/repository"
	"github.com/vhvplatform/go-campaign-service/internal/service"
	"github.com/vhvplatform/go-campaign-service/internal/shared/config"
	"github.com/vhvplatform/go-campaign-service/internal/shared/logger"
	"github.com/vhvplatform/go-campaign-service/internal/shared/rabbitmq"
	"github.com/vhvplatform/go-campaign-service/internal/webhook"
)

// shutdownTimeout leaves room for an in-flight campaign to finish its batches
const shutdownTimeout = 60 * time.Second

func main() {
	// Load configuration
	cfg, cfgErr := config.LoadConfig()

	level := "info"
	if cfg != nil && cfg.LogLevel != "" {
		level = cfg.LogLevel
	}

	// Initialize logger
	log, err := logger.NewLogger(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfgErr != nil {
		log.Fatal("Failed to load configuration", "error", cfgErr)
	}

	log.Info("Starting Campaign Service...", "mail_provider", cfg.Mail.Provider)

	// Mail provider
	sender, err := mailer.New(cfg.Mail)
	if err != nil {
		log.Fatal("Failed to initialize mail provider", "error", err)
	}

	// Campaign events are optional
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		rabbitMQClient, err := rabbitmq.NewRabbitMQClient(cfg.RabbitMQ.URL)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ", "error", err)
		}
		defer rabbitMQClient.Close()

		rabbitPublisher, err := events.NewRabbitPublisher(rabbitMQClient, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.Fatal("Failed to initialize campaign event publisher", "error", err)
		}
		publisher = rabbitPublisher
	} else {
		log.Info("RABBITMQ_URL not set, campaign events disabled")
	}

	// Initialize services
	recipientRepo := repository.NewRecipientRepository(cfg.MongoDB, log)
	campaignService := service.NewCampaignService(
		emailtemplate.MustNew(),
		recipientRepo,
		sender,
		publisher,
		mailer.Address{Email: cfg.Mail.FromEmail, Name: cfg.Mail.FromName},
		log,
	)

	// Initialize HTTP handlers
	campaignHandler := handler.NewCampaignHandler(campaignService, log)
	deliveryHandler := webhook.NewDeliveryHandler(log)

	// Initialize rate limiter
	rateLimiter := middleware.NewClientRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))

	// Health check endpoints
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes with rate limiting
	api := router.Group("/api")
	api.Use(middleware.RateLimitMiddleware(rateLimiter))
	campaignHandler.RegisterRoutes(api)

	// Provider delivery webhooks are not rate limited
	deliveryHandler.RegisterRoutes(router.Group("/webhooks"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Campaign Service started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down Campaign Service...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Campaign Service stopped")
}
