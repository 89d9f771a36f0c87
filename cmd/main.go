package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "critterlog/docs"
	"critterlog/internal/caching"
	"critterlog/internal/handlers"
	"critterlog/internal/jobs/background"
	"critterlog/internal/middleware"
	"critterlog/internal/repositories"
	"critterlog/internal/services"
	"critterlog/pkg/database"
)

const version = "1.0.0"

func main() {
	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
	jwks := middleware.NewJWKS(os.Getenv("AUTH_JWKS_URL"))

	// Stripe configuration
	stripeKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeKey == "" {
		log.Fatal("STRIPE_SECRET_KEY environment variable is required")
	}
	stripeWebhookSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	if stripeWebhookSecret == "" {
		log.Fatal("STRIPE_WEBHOOK_SECRET environment variable is required")
	}
	stripePriceID := os.Getenv("STRIPE_PRICE_ID")
	if stripePriceID == "" {
		log.Fatal("STRIPE_PRICE_ID environment variable is required")
	}
	appBaseURL := os.Getenv("APP_BASE_URL")
	if appBaseURL == "" {
		appBaseURL = "http://localhost:3000"
	}

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	// MinIO configuration
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000"
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin" // Default for development
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin" // Default for development
	}
	minioBucket := os.Getenv("MINIO_BUCKET")
	if minioBucket == "" {
		minioBucket = "critterlog-photos"
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	// Photo storage
	photoSvc, err := services.NewMinioPhotoStorage(minioEndpoint, minioAccessKey, minioSecretKey, minioBucket, useSSL)
	if err != nil {
		log.Fatalf("Failed to initialize photo storage: %v", err)
	}

	// Create repositories
	userRepo := repositories.NewUserRepo(pool)
	animalRepo := repositories.NewAnimalRepo(pool)
	eventRepo := repositories.NewCareEventRepo(pool)
	subscriptionRepo := repositories.NewSubscriptionRepo(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Create services
	stripeSvc := services.NewStripeService(stripeKey, stripeWebhookSecret, stripePriceID, appBaseURL)
	subscriptionSvc := services.NewSubscriptionService(subscriptionRepo, userRepo, stripeSvc, cacheSvc)
	entitlementSvc := services.NewEntitlementService(subscriptionSvc, animalRepo)
	animalSvc := services.NewAnimalService(animalRepo, entitlementSvc, photoSvc, cacheSvc)
	eventSvc := services.NewCareEventService(eventRepo, animalSvc)
	authSvc := services.NewAuthService(cacheSvc, jwtSecret, 3600, 30*24*3600)

	// Create handlers
	authHandlers := handlers.NewAuthHandlers(authSvc, userRepo)
	animalHandlers := handlers.NewAnimalHandlers(animalSvc)
	eventHandlers := handlers.NewCareEventHandlers(eventSvc)
	subscriptionHandlers := handlers.NewSubscriptionHandlers(subscriptionSvc, entitlementSvc)
	webhookHandlers := handlers.NewWebhookHandlers(subscriptionSvc, stripeSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	// Background jobs
	scheduler, err := background.NewJobScheduler(subscriptionRepo, cacheSvc)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("Failed to stop scheduler: %v", err)
		}
	}()

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	// API docs
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Billing webhook (authenticated by signature, not JWT)
	e.POST("/webhooks/stripe", webhookHandlers.StripeWebhook)

	// API routes
	v1 := e.Group("/v1")

	// Authentication routes (no JWT required for signup/login)
	auth := v1.Group("/auth")
	auth.POST("/signup", authHandlers.Signup)
	auth.POST("/login", authHandlers.Login)
	auth.POST("/refresh", authHandlers.Refresh)

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.JWTMiddleware(jwtSecret, jwks))

	protected.GET("/me", authHandlers.Me)

	// Animal routes
	protected.GET("/animals", animalHandlers.ListAnimals)
	protected.POST("/animals", animalHandlers.CreateAnimal)
	protected.GET("/animals/:id", animalHandlers.GetAnimal)
	protected.PUT("/animals/:id", animalHandlers.UpdateAnimal)
	protected.DELETE("/animals/:id", animalHandlers.DeleteAnimal)
	protected.POST("/animals/:id/photo", animalHandlers.UploadPhoto)

	// Care event routes
	protected.GET("/animals/:id/events", eventHandlers.ListEvents)
	protected.POST("/animals/:id/events", eventHandlers.CreateEvent)
	protected.DELETE("/events/:id", eventHandlers.DeleteEvent)

	// Billing routes
	protected.GET("/billing/plans", subscriptionHandlers.GetPlans)
	protected.GET("/billing/subscription", subscriptionHandlers.GetSubscription)
	protected.POST("/billing/checkout", subscriptionHandlers.CreateCheckout)

	// Start server
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	log.Printf("critterlog server v%s starting on port %d", version, port)

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
