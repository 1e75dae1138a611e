package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"swiftserve/internal/config"
	handlers "swiftserve/internal/handlers/shared"
	"swiftserve/internal/jobs"
	"swiftserve/internal/middleware"
	"swiftserve/internal/repositories/mongodb"
	"swiftserve/internal/services"
	"swiftserve/pkg/cache"
	"swiftserve/pkg/database"
	"swiftserve/pkg/logger"
	"swiftserve/pkg/payout"
	"swiftserve/pkg/push"
	"swiftserve/pkg/sms"
	"swiftserve/pkg/storage"
	"swiftserve/pkg/websocket"
	"swiftserve/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	middleware.SetJWTSecret(cfg.Security.JWTSecret)

	// MongoDB
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer db.Close()

	if err := database.NewMigrator(db.Database).Up(); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	// Redis
	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		IdleTimeout:  cfg.Redis.IdleTimeout,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisCache.Close()

	cacheService := services.NewCacheService(redisCache, log, "swiftserve:", 15*time.Minute)

	// Realtime hub
	wsHandler := websocket.NewHandler(&websocket.Options{
		ReadBufferSize:    cfg.WebSocket.ReadBufferSize,
		WriteBufferSize:   cfg.WebSocket.WriteBufferSize,
		HandshakeTimeout:  cfg.WebSocket.HandshakeTimeout,
		PingInterval:      cfg.WebSocket.PingInterval,
		PongTimeout:       cfg.WebSocket.PongTimeout,
		MaxConnections:    cfg.WebSocket.MaxConnections,
		EnableCompression: cfg.WebSocket.EnableCompression,
		AllowedOrigins:    cfg.WebSocket.AllowedOrigins,
	})
	wsHub := wsHandler.GetHub()

	// External providers
	smsProvider := newSMSProvider(cfg, log)
	pushProvider := newPushProvider(cfg, log)
	storageProvider := newStorageProvider(cfg, log)
	disburser := newDisbursementProvider(cfg, log)

	// Repositories
	deliveryRepo := mongodb.NewDeliveryRepository(db.Database, cacheService)
	driverRepo := mongodb.NewDriverRepository(db.Database, cacheService)
	customerRepo := mongodb.NewCustomerRepository(db.Database, cacheService)
	orderRepo := mongodb.NewOrderRepository(db.Database, cacheService)
	payoutRepo := mongodb.NewPayoutRepository(db.Database)

	// Services
	smsService := services.NewSMSService(smsProvider, cfg.SMS.DefaultFrom, log)
	pushService := services.NewPushService(pushProvider, log)
	podPolicy := services.NewPODPolicy(cfg.Delivery.HighValueOTPThreshold)

	trackingService := services.NewTrackingService(cfg, cacheService, deliveryRepo, orderRepo, driverRepo, wsHub, log)
	podService := services.NewPODService(cfg, cacheService, deliveryRepo, orderRepo, customerRepo, podPolicy, smsService, pushService, wsHub, log)
	completionService := services.NewCompletionService(cfg, db, deliveryRepo, orderRepo, driverRepo, customerRepo,
		podPolicy, podService, trackingService, storageProvider, pushService, wsHub, log)
	earningsService := services.NewEarningsService(deliveryRepo, driverRepo, payoutRepo, log)
	payoutService := services.NewPayoutService(cfg, db, payoutRepo, driverRepo, deliveryRepo, disburser, pushService, wsHub, log)
	issueService := services.NewIssueService(deliveryRepo, wsHub, log)

	// Handlers
	trackingHandler := handlers.NewTrackingHandler(trackingService)
	podHandler := handlers.NewPODHandler(podService, completionService)
	earningsHandler := handlers.NewEarningsHandler(earningsService)
	payoutHandler := handlers.NewPayoutHandler(payoutService)
	adminPayoutHandler := handlers.NewAdminPayoutHandler(payoutService)
	issueHandler := handlers.NewIssueHandler(issueService)

	// Router
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(log))

	v1 := router.Group("/api/v1")
	{
		routes.SetupTrackingRoutes(v1, trackingHandler)
		routes.SetupDeliveryRoutes(v1, podHandler, issueHandler)
		routes.SetupPayoutRoutes(v1, earningsHandler, payoutHandler, adminPayoutHandler)
		routes.SetupWebSocketRoutes(v1, wsHandler)
	}

	router.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		if err := db.Ping(c.Request.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		if err := cacheService.Ping(c.Request.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"version": cfg.App.Version,
		})
	})

	// Background jobs
	jobManager := jobs.NewJobManager(cfg, payoutService, cacheService, deliveryRepo, log)
	if err := jobManager.StartAll(); err != nil {
		log.WithError(err).Fatal("Failed to start background jobs")
	}
	defer jobManager.StopAll()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.App.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Forced shutdown")
	}
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	format := "json"
	colors := false
	if cfg.App.Environment == "development" {
		format = "text"
		colors = true
	}
	return logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.App.LogLevel),
		Format:     format,
		Output:     "stdout",
		TimeFormat: time.RFC3339,
		Colors:     colors,
	})
}

// Provider selection. A provider that cannot be built is logged and left
// nil; the owning service degrades instead of blocking startup.

func newSMSProvider(cfg *config.Config, log *logger.Logger) sms.SMSProvider {
	switch cfg.SMS.Provider {
	case "twilio":
		if cfg.SMS.Twilio.AccountSID == "" {
			log.Warn("Twilio credentials missing, SMS disabled")
			return nil
		}
		return sms.NewTwilioProvider(cfg.SMS.Twilio.AccountSID, cfg.SMS.Twilio.AuthToken, cfg.SMS.Twilio.FromNumber)
	case "aws":
		provider, err := sms.NewAWSSNSProvider(cfg.SMS.AWS.Region)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize SNS, SMS disabled")
			return nil
		}
		return provider
	default:
		log.WithField("provider", cfg.SMS.Provider).Warn("Unknown SMS provider, SMS disabled")
		return nil
	}
}

func newPushProvider(cfg *config.Config, log *logger.Logger) push.PushProvider {
	switch cfg.Push.Provider {
	case "fcm":
		if cfg.Push.FCM.Credentials == "" {
			log.Warn("FCM credentials missing, push disabled")
			return nil
		}
		provider, err := push.NewFCMProvider(cfg.Push.FCM.Credentials)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize FCM, push disabled")
			return nil
		}
		return provider
	case "apns":
		provider, err := push.NewAPNSProvider(cfg.Push.APNS.KeyFile, cfg.Push.APNS.KeyID,
			cfg.Push.APNS.TeamID, cfg.Push.APNS.BundleID, cfg.Push.APNS.Production)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize APNS, push disabled")
			return nil
		}
		return provider
	default:
		log.WithField("provider", cfg.Push.Provider).Warn("Unknown push provider, push disabled")
		return nil
	}
}

func newStorageProvider(cfg *config.Config, log *logger.Logger) storage.StorageProvider {
	switch cfg.Storage.Provider {
	case "aws":
		provider, err := storage.NewAWSS3Storage(cfg.Storage.AWS.Region, cfg.Storage.AWS.Bucket, cfg.Storage.AWS.CDNDomain)
		if err == nil {
			return provider
		}
		log.WithError(err).Warn("Failed to initialize S3, falling back to local storage")
	case "gcp":
		provider, err := storage.NewGCPStorage(cfg.Storage.GCP.ProjectID, cfg.Storage.GCP.Bucket,
			cfg.Storage.GCP.CredentialsFile, cfg.Storage.GCP.CDNDomain)
		if err == nil {
			return provider
		}
		log.WithError(err).Warn("Failed to initialize GCP storage, falling back to local storage")
	}

	provider, err := storage.NewLocalStorage(cfg.Storage.Local.BasePath, cfg.Storage.Local.BaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize local storage")
	}
	return provider
}

func newDisbursementProvider(cfg *config.Config, log *logger.Logger) payout.DisbursementProvider {
	switch cfg.Payout.Provider {
	case "stripe":
		if cfg.Payout.Stripe.SecretKey == "" {
			log.Warn("Stripe credentials missing, payouts settle manually")
			return nil
		}
		return payout.NewStripeProvider(cfg.Payout.Stripe.SecretKey, cfg.Payout.Stripe.WebhookSecret)
	case "paypal":
		if cfg.Payout.PayPal.ClientID == "" {
			log.Warn("PayPal credentials missing, payouts settle manually")
			return nil
		}
		return payout.NewPayPalProvider(cfg.Payout.PayPal.ClientID, cfg.Payout.PayPal.ClientSecret, cfg.Payout.PayPal.Mode)
	case "razorpay":
		if cfg.Payout.Razorpay.KeyID == "" {
			log.Warn("Razorpay credentials missing, payouts settle manually")
			return nil
		}
		return payout.NewRazorpayProvider(cfg.Payout.Razorpay.KeyID, cfg.Payout.Razorpay.KeySecret, cfg.Payout.Razorpay.Webhook)
	default:
		log.WithField("provider", cfg.Payout.Provider).Warn("Unknown payout provider, payouts settle manually")
		return nil
	}
}
